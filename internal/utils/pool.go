package utils

import (
	"context"
	"sync"
)

// CompletedTask is the outcome of one input. Index is the position of the
// input it was produced from.
type CompletedTask[T any] struct {
	Index  int
	Result T
	Error  error
}

// RunInPool runs worker over inputs on at most maxWorkers goroutines. The
// returned channel yields one task per input in completion order and is
// closed once all inputs are accounted for. Inputs not yet started when ctx
// is cancelled complete with ctx.Err() without running.
func RunInPool[In any, Out any](ctx context.Context, worker func(context.Context, In) (Out, error), inputs []In, maxWorkers int) <-chan CompletedTask[Out] {
	completed := make(chan CompletedTask[Out], len(inputs))

	queue := make(chan int, len(inputs))
	for i := range inputs {
		queue <- i
	}
	close(queue)

	workers := max(min(len(inputs), maxWorkers), 1)

	go func() {
		wg := sync.WaitGroup{}
		wg.Add(workers)

		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()

				for idx := range queue {
					if err := ctx.Err(); err != nil {
						completed <- CompletedTask[Out]{Index: idx, Error: err}
						continue
					}

					res, err := worker(ctx, inputs[idx])
					completed <- CompletedTask[Out]{Index: idx, Result: res, Error: err}
				}
			}()
		}

		wg.Wait()

		close(completed)
	}()

	return completed
}
