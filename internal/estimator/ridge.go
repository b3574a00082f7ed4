package estimator

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// RidgeClassifier regresses ±1 targets with an L2 penalty and classifies by
// the sign of the prediction.
type RidgeClassifier struct {
	Alpha        float64
	FitIntercept bool

	Classes   []int
	Weights   []float64
	Intercept float64
}

func newRidgeClassifier(params Params) (*RidgeClassifier, error) {
	r := newParamReader(Ridge, params)
	m := &RidgeClassifier{
		Alpha:        r.float("alpha", 1.0),
		FitIntercept: r.bool("fit_intercept", true),
	}
	r.choice("solver", "auto", "auto", "cholesky")
	if m.Alpha < 0 {
		r.fail("alpha", m.Alpha, "must not be negative")
	}
	return m, r.finish()
}

func (m *RidgeClassifier) Fit(X mat.Matrix, y []int) error {
	n, d, err := checkTrainingData(X, y)
	if err != nil {
		return err
	}
	classes, t, err := binaryTargets(y)
	if err != nil {
		return err
	}

	xMean := make([]float64, d)
	yMean := 0.0
	if m.FitIntercept {
		for j := 0; j < d; j++ {
			sum := 0.0
			for i := 0; i < n; i++ {
				sum += X.At(i, j)
			}
			xMean[j] = sum / float64(n)
		}
		for _, v := range t {
			yMean += v
		}
		yMean /= float64(n)
	}

	xc := mat.NewDense(n, d, nil)
	xc.Apply(func(i, j int, v float64) float64 { return v - xMean[j] }, X)
	yc := mat.NewVecDense(n, nil)
	for i, v := range t {
		yc.SetVec(i, v-yMean)
	}

	// Solve (XᵀX + αI) w = Xᵀy.
	var gram mat.SymDense
	gram.SymOuterK(1, xc.T())
	for j := 0; j < d; j++ {
		gram.SetSym(j, j, gram.At(j, j)+m.Alpha)
	}
	var rhs mat.VecDense
	rhs.MulVec(xc.T(), yc)

	var w mat.VecDense
	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); ok {
		if err := chol.SolveVecTo(&w, &rhs); err != nil {
			return fmt.Errorf("ridge: %w", err)
		}
	} else if err := w.SolveVec(&gram, &rhs); err != nil {
		return fmt.Errorf("ridge: normal equations are singular: %w", err)
	}

	weights := make([]float64, d)
	intercept := yMean
	for j := 0; j < d; j++ {
		weights[j] = w.AtVec(j)
		intercept -= xMean[j] * weights[j]
	}

	m.Classes = classes
	m.Weights = weights
	m.Intercept = intercept
	return nil
}

func (m *RidgeClassifier) Predict(X mat.Matrix) ([]int, error) {
	if m.Weights == nil {
		return nil, ErrNotFitted
	}
	if _, err := checkPredictInput(X, len(m.Weights)); err != nil {
		return nil, err
	}
	return decide(m.Classes, linearScores(X, m.Weights, m.Intercept)), nil
}
