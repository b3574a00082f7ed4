package estimator

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

func uniqueClasses(y []int) []int {
	seen := make(map[int]struct{}, 2)
	classes := make([]int, 0, 2)
	for _, label := range y {
		if _, ok := seen[label]; !ok {
			seen[label] = struct{}{}
			classes = append(classes, label)
		}
	}
	sort.Ints(classes)
	return classes
}

func checkTrainingData(X mat.Matrix, y []int) (int, int, error) {
	if X == nil {
		return 0, 0, fmt.Errorf("no training samples")
	}
	n, d := X.Dims()
	if n == 0 || d == 0 {
		return 0, 0, fmt.Errorf("no training samples")
	}
	if len(y) != n {
		return 0, 0, fmt.Errorf("found %d samples but %d labels", n, len(y))
	}
	return n, d, nil
}

// binaryTargets maps the two training classes onto -1 and +1, with the
// larger label as the positive class.
func binaryTargets(y []int) ([]int, []float64, error) {
	classes := uniqueClasses(y)
	switch {
	case len(classes) < 2:
		return nil, nil, ErrTooFewClasses
	case len(classes) > 2:
		return nil, nil, fmt.Errorf("%w: found %d classes", ErrTooManyClasses, len(classes))
	}
	t := make([]float64, len(y))
	for i, label := range y {
		if label == classes[1] {
			t[i] = 1
		} else {
			t[i] = -1
		}
	}
	return classes, t, nil
}

func checkPredictInput(X mat.Matrix, features int) (int, error) {
	if X == nil {
		return 0, fmt.Errorf("no samples to predict")
	}
	n, d := X.Dims()
	if d != features {
		return 0, fmt.Errorf("expected %d features, got %d", features, d)
	}
	return n, nil
}

// decide maps decision values onto the two classes; values > 0 select the
// positive class.
func decide(classes []int, scores []float64) []int {
	out := make([]int, len(scores))
	for i, s := range scores {
		if s > 0 {
			out[i] = classes[1]
		} else {
			out[i] = classes[0]
		}
	}
	return out
}

// linearScores computes X·w + b for every row.
func linearScores(X mat.Matrix, w []float64, b float64) []float64 {
	n, _ := X.Dims()
	scores := make([]float64, n)
	var out mat.VecDense
	out.MulVec(X, mat.NewVecDense(len(w), w))
	for i := 0; i < n; i++ {
		scores[i] = out.AtVec(i) + b
	}
	return scores
}
