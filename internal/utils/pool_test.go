package utils_test

import (
	"context"
	"fmt"
	"phishdetector/internal/utils"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunInPool(t *testing.T) {
	worker := func(_ context.Context, i int) (string, error) {
		if i%4 == 3 {
			time.Sleep(time.Duration(10-i) * time.Millisecond)
			return "", fmt.Errorf("error")
		}
		return fmt.Sprintf("%d-%d", i, i), nil
	}

	inputs := make([]int, 10)
	for i := range inputs {
		inputs[i] = i
	}

	results := make([]string, 10)
	success, errors := 0, 0
	for task := range utils.RunInPool(context.Background(), worker, inputs, 5) {
		if task.Error != nil {
			errors++
		} else {
			success++
			results[task.Index] = task.Result
		}
	}

	assert.Equal(t, 8, success)
	assert.Equal(t, 2, errors)
	assert.Equal(t, "5-5", results[5])
	assert.Equal(t, "", results[7])
}

func TestRunInPoolCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	worker := func(_ context.Context, i int) (int, error) {
		calls.Add(1)
		return i, nil
	}

	count := 0
	for task := range utils.RunInPool(ctx, worker, []int{1, 2, 3}, 2) {
		assert.ErrorIs(t, task.Error, context.Canceled)
		count++
	}
	assert.Equal(t, 3, count)
	assert.Equal(t, int32(0), calls.Load())
}

func TestRunInPoolEmpty(t *testing.T) {
	worker := func(_ context.Context, i int) (int, error) { return i, nil }

	count := 0
	for range utils.RunInPool(context.Background(), worker, nil, 4) {
		count++
	}
	assert.Equal(t, 0, count)
}
