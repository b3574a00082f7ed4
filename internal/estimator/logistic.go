package estimator

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LogisticRegression is a binary L2-regularised logistic model fitted with
// full-batch gradient descent.
type LogisticRegression struct {
	C            float64
	MaxIter      int
	Tol          float64
	LearningRate float64
	FitIntercept bool

	Classes   []int
	Weights   []float64
	Intercept float64
	NIter     int
}

func newLogisticRegression(params Params) (*LogisticRegression, error) {
	r := newParamReader(Logistic, params)
	m := &LogisticRegression{
		C:            r.positiveFloat("C", 1.0),
		MaxIter:      r.minInt("max_iter", 100, 1),
		Tol:          r.float("tol", 1e-4),
		LearningRate: r.positiveFloat("learning_rate", 0.5),
		FitIntercept: r.bool("fit_intercept", true),
	}
	r.choice("penalty", "l2", "l2")
	r.choice("solver", "lbfgs", "lbfgs", "gd")
	if m.Tol < 0 {
		r.fail("tol", m.Tol, "must not be negative")
	}
	return m, r.finish()
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func (m *LogisticRegression) Fit(X mat.Matrix, y []int) error {
	n, d, err := checkTrainingData(X, y)
	if err != nil {
		return err
	}
	classes, t, err := binaryTargets(y)
	if err != nil {
		return err
	}

	target := make([]float64, n)
	for i, v := range t {
		if v > 0 {
			target[i] = 1
		}
	}

	w := make([]float64, d)
	b := 0.0
	grad := make([]float64, d)
	row := make([]float64, d)
	penalty := 1 / (m.C * float64(n))

	iter := 0
	for iter < m.MaxIter {
		iter++
		for j := range grad {
			grad[j] = 0
		}
		gradB := 0.0
		for i := 0; i < n; i++ {
			mat.Row(row, i, X)
			residual := sigmoid(floats.Dot(row, w)+b) - target[i]
			floats.AddScaled(grad, residual, row)
			gradB += residual
		}
		floats.Scale(1/float64(n), grad)
		floats.AddScaled(grad, penalty, w)
		gradB /= float64(n)
		if !m.FitIntercept {
			gradB = 0
		}

		floats.AddScaled(w, -m.LearningRate, grad)
		b -= m.LearningRate * gradB

		if math.Max(floats.Norm(grad, math.Inf(1)), math.Abs(gradB)) < m.Tol {
			break
		}
	}

	m.Classes = classes
	m.Weights = w
	m.Intercept = b
	m.NIter = iter
	return nil
}

func (m *LogisticRegression) Predict(X mat.Matrix) ([]int, error) {
	if m.Weights == nil {
		return nil, ErrNotFitted
	}
	if _, err := checkPredictInput(X, len(m.Weights)); err != nil {
		return nil, err
	}
	return decide(m.Classes, linearScores(X, m.Weights, m.Intercept)), nil
}

// PredictProba returns the probability of the positive class for every row.
func (m *LogisticRegression) PredictProba(X mat.Matrix) ([]float64, error) {
	if m.Weights == nil {
		return nil, ErrNotFitted
	}
	if _, err := checkPredictInput(X, len(m.Weights)); err != nil {
		return nil, err
	}
	scores := linearScores(X, m.Weights, m.Intercept)
	for i, s := range scores {
		scores[i] = sigmoid(s)
	}
	return scores, nil
}
