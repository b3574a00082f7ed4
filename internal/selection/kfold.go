package selection

import (
	"fmt"
	"sort"
)

// StratifiedKFold returns the test indices of each fold. Samples of every
// class are dealt to the folds in contiguous chunks, in their original
// order, so the result is fully determined by y.
func StratifiedKFold(y []int, k int) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("number of folds must be at least 2, got %d", k)
	}
	if len(y) < k {
		return nil, fmt.Errorf("cannot split %d samples into %d folds", len(y), k)
	}

	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	folds := make([][]int, k)
	start := 0
	for _, c := range classes {
		idx := byClass[c]
		size, extra := len(idx)/k, len(idx)%k
		pos := 0
		for f := 0; f < k; f++ {
			// Folds take turns absorbing the remainder so small classes are
			// spread across folds rather than piled into the first one.
			n := size
			if (f-start+k)%k < extra {
				n++
			}
			folds[f] = append(folds[f], idx[pos:pos+n]...)
			pos += n
		}
		start = (start + extra) % k
	}

	for f := range folds {
		if len(folds[f]) == 0 {
			return nil, fmt.Errorf("fold %d is empty", f)
		}
		sort.Ints(folds[f])
	}
	return folds, nil
}

// complement returns the indices in [0, n) that are not in test.
func complement(n int, test []int) []int {
	in := make([]bool, n)
	for _, i := range test {
		in[i] = true
	}
	train := make([]int, 0, n-len(test))
	for i := 0; i < n; i++ {
		if !in[i] {
			train = append(train, i)
		}
	}
	return train
}
