package estimator

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LinearSVC minimises the soft-margin hinge objective
// ½‖w‖² + C·Σ max(0, 1 - yᵢ(w·xᵢ + b)) with deterministic full-batch
// sub-gradient steps and keeps the best iterate seen.
type LinearSVC struct {
	C            float64
	Kernel       string
	MaxIter      int
	LearningRate float64

	Classes   []int
	Weights   []float64
	Intercept float64
}

func newLinearSVC(params Params) (*LinearSVC, error) {
	r := newParamReader(SVC, params)
	m := &LinearSVC{
		C:            r.positiveFloat("C", 1.0),
		Kernel:       r.choice("kernel", "linear", "linear"),
		MaxIter:      r.minInt("max_iter", 1000, 1),
		LearningRate: r.positiveFloat("learning_rate", 0.1),
	}
	return m, r.finish()
}

func (m *LinearSVC) Fit(X mat.Matrix, y []int) error {
	n, d, err := checkTrainingData(X, y)
	if err != nil {
		return err
	}
	classes, t, err := binaryTargets(y)
	if err != nil {
		return err
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, X)
	}

	// Work on the objective divided by C·n so the step size does not depend
	// on the sample count.
	lambda := 1 / (m.C * float64(n))
	objective := func(w []float64, b float64) float64 {
		loss := 0.0
		for i, row := range rows {
			loss += math.Max(0, 1-t[i]*(floats.Dot(row, w)+b))
		}
		return 0.5*lambda*floats.Dot(w, w) + loss/float64(n)
	}

	w := make([]float64, d)
	b := 0.0
	bestW := make([]float64, d)
	bestB := 0.0
	best := objective(w, b)
	grad := make([]float64, d)

	for iter := 1; iter <= m.MaxIter; iter++ {
		copy(grad, w)
		floats.Scale(lambda, grad)
		gradB := 0.0
		for i, row := range rows {
			if t[i]*(floats.Dot(row, w)+b) < 1 {
				floats.AddScaled(grad, -t[i]/float64(n), row)
				gradB -= t[i] / float64(n)
			}
		}

		step := m.LearningRate / math.Sqrt(float64(iter))
		floats.AddScaled(w, -step, grad)
		b -= step * gradB

		if obj := objective(w, b); obj < best {
			best = obj
			copy(bestW, w)
			bestB = b
		}
	}

	m.Classes = classes
	m.Weights = bestW
	m.Intercept = bestB
	return nil
}

func (m *LinearSVC) Predict(X mat.Matrix) ([]int, error) {
	if m.Weights == nil {
		return nil, ErrNotFitted
	}
	if _, err := checkPredictInput(X, len(m.Weights)); err != nil {
		return nil, err
	}
	return decide(m.Classes, linearScores(X, m.Weights, m.Intercept)), nil
}
