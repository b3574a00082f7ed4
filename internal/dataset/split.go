package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

type SplitOptions struct {
	TestSize float64
	Seed     int64
	// StratifyBy names the label column; the split is stratified when the
	// column is present and unstratified otherwise.
	StratifyBy string
}

// TrainTestSplit partitions the rows of f into disjoint train and test frames.
// Every row lands in exactly one of the two. When stratifying, each class
// contributes to the test set in proportion to its share of the data.
func TrainTestSplit(f *Frame, opts SplitOptions) (*Frame, *Frame, error) {
	n := f.Len()
	if n == 0 {
		return nil, nil, ErrEmptyDataset
	}
	if opts.TestSize <= 0 || opts.TestSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0, 1), got %v", opts.TestSize)
	}

	nTest := int(math.Ceil(opts.TestSize * float64(n)))
	if nTest >= n {
		return nil, nil, fmt.Errorf("dataset with %d rows is too small for test size %v", n, opts.TestSize)
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	var trainIdx, testIdx []int
	if opts.StratifyBy != "" && f.HasColumn(opts.StratifyBy) {
		col, _ := f.Column(opts.StratifyBy)
		trainIdx, testIdx = stratifiedIndices(col, nTest, rng)
	} else {
		perm := rng.Perm(n)
		testIdx, trainIdx = perm[:nTest], perm[nTest:]
	}

	rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })
	rng.Shuffle(len(testIdx), func(i, j int) { testIdx[i], testIdx[j] = testIdx[j], testIdx[i] })

	return f.Take(trainIdx), f.Take(testIdx), nil
}

func stratifiedIndices(col *Column, nTest int, rng *rand.Rand) ([]int, []int) {
	groups := make(map[string][]int)
	for i, cell := range col.Cells {
		key := CellValue(cell, col.DType).Key()
		groups[key] = append(groups[key], i)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := len(col.Cells)
	alloc := make([]int, len(keys))
	remainders := make([]float64, len(keys))
	assigned := 0
	for c, k := range keys {
		exact := float64(nTest) * float64(len(groups[k])) / float64(n)
		alloc[c] = int(math.Floor(exact))
		remainders[c] = exact - float64(alloc[c])
		assigned += alloc[c]
	}

	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return remainders[order[a]] > remainders[order[b]] })
	for i := 0; assigned < nTest; i = (i + 1) % len(order) {
		c := order[i]
		if alloc[c] < len(groups[keys[c]]) {
			alloc[c]++
			assigned++
		}
	}

	var trainIdx, testIdx []int
	for c, k := range keys {
		idx := append([]int(nil), groups[k]...)
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		testIdx = append(testIdx, idx[:alloc[c]]...)
		trainIdx = append(trainIdx, idx[alloc[c]:]...)
	}
	return trainIdx, testIdx
}
