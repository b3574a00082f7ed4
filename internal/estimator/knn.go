package estimator

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type KNeighborsClassifier struct {
	NNeighbors int
	Weights    string
	P          float64

	Classes  []int
	Features int
	Samples  []float64
	Labels   []int
}

func newKNeighborsClassifier(params Params) (*KNeighborsClassifier, error) {
	r := newParamReader(KNeighbors, params)
	m := &KNeighborsClassifier{
		NNeighbors: r.minInt("n_neighbors", 5, 1),
		Weights:    r.choice("weights", "uniform", "uniform", "distance"),
		P:          float64(r.minInt("p", 2, 1)),
	}
	r.choice("metric", "minkowski", "minkowski")
	r.choice("algorithm", "auto", "auto", "brute")
	return m, r.finish()
}

func (m *KNeighborsClassifier) Fit(X mat.Matrix, y []int) error {
	n, d, err := checkTrainingData(X, y)
	if err != nil {
		return err
	}
	if m.NNeighbors > n {
		return fmt.Errorf("n_neighbors=%d exceeds the %d training samples", m.NNeighbors, n)
	}

	samples := make([]float64, n*d)
	for i := 0; i < n; i++ {
		mat.Row(samples[i*d:(i+1)*d], i, X)
	}
	m.Classes = uniqueClasses(y)
	m.Features = d
	m.Samples = samples
	m.Labels = append([]int(nil), y...)
	return nil
}

type neighbor struct {
	index int
	dist  float64
}

func (m *KNeighborsClassifier) Predict(X mat.Matrix) ([]int, error) {
	if m.Samples == nil {
		return nil, ErrNotFitted
	}
	n, err := checkPredictInput(X, m.Features)
	if err != nil {
		return nil, err
	}

	train := len(m.Labels)
	query := make([]float64, m.Features)
	neighbors := make([]neighbor, train)
	out := make([]int, n)
	for i := 0; i < n; i++ {
		mat.Row(query, i, X)
		for k := 0; k < train; k++ {
			sample := m.Samples[k*m.Features : (k+1)*m.Features]
			neighbors[k] = neighbor{index: k, dist: floats.Distance(query, sample, m.P)}
		}
		sort.SliceStable(neighbors, func(a, b int) bool { return neighbors[a].dist < neighbors[b].dist })
		out[i] = m.vote(neighbors[:m.NNeighbors])
	}
	return out, nil
}

// vote returns the class with the largest (weighted) vote; ties go to the
// smallest label.
func (m *KNeighborsClassifier) vote(nearest []neighbor) int {
	scores := make([]float64, len(m.Classes))
	exact := false
	if m.Weights == "distance" {
		for _, nb := range nearest {
			if nb.dist == 0 {
				exact = true
				break
			}
		}
	}

	for _, nb := range nearest {
		c := sort.SearchInts(m.Classes, m.Labels[nb.index])
		switch {
		case m.Weights != "distance":
			scores[c]++
		case exact:
			if nb.dist == 0 {
				scores[c]++
			}
		default:
			scores[c] += 1 / nb.dist
		}
	}

	best := 0
	for c := 1; c < len(scores); c++ {
		if scores[c] > scores[best] && !math.IsNaN(scores[c]) {
			best = c
		}
	}
	return m.Classes[best]
}
