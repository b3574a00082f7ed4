package estimator_test

import (
	"bytes"
	"phishdetector/internal/estimator"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// separable returns two well separated clusters labelled -1 and 1.
func separable() (*mat.Dense, []int) {
	var data []float64
	var y []int
	for i := 0; i < 20; i++ {
		offset := float64(i%5) * 0.1
		data = append(data, -2-offset, -1+offset)
		y = append(y, -1)
		data = append(data, 2+offset, 1-offset)
		y = append(y, 1)
	}
	return mat.NewDense(len(y), 2, data), y
}

func accuracy(pred, y []int) float64 {
	correct := 0
	for i := range y {
		if pred[i] == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y))
}

func TestFamiliesFitSeparableData(t *testing.T) {
	X, y := separable()

	cases := []struct {
		family estimator.Family
		params estimator.Params
	}{
		{estimator.Logistic, estimator.Params{{Name: "C", Value: 1.0}, {Name: "max_iter", Value: 200}}},
		{estimator.Ridge, estimator.Params{{Name: "alpha", Value: 1.0}}},
		{estimator.RandomForest, estimator.Params{{Name: "n_estimators", Value: 10}, {Name: "max_depth", Value: 3}}},
		{estimator.SVC, estimator.Params{{Name: "C", Value: 1.0}, {Name: "kernel", Value: "linear"}}},
		{estimator.KNeighbors, estimator.Params{{Name: "n_neighbors", Value: 3}, {Name: "weights", Value: "distance"}}},
	}

	for _, tc := range cases {
		t.Run(string(tc.family), func(t *testing.T) {
			p, err := estimator.NewPipeline(estimator.StandardScaled, tc.family, tc.params)
			require.NoError(t, err)
			require.NoError(t, p.Fit(X, y))

			pred, err := p.Predict(X)
			require.NoError(t, err)
			assert.Equal(t, 1.0, accuracy(pred, y))
		})
	}
}

func TestPredictionsAreDeterministic(t *testing.T) {
	X, y := separable()
	params := estimator.Params{{Name: "n_estimators", Value: 5}, {Name: "random_state", Value: 42}}

	var runs [][]int
	for i := 0; i < 2; i++ {
		p, err := estimator.NewPipeline(estimator.NoScaler, estimator.RandomForest, params)
		require.NoError(t, err)
		require.NoError(t, p.Fit(X, y))
		pred, err := p.Predict(X)
		require.NoError(t, err)
		runs = append(runs, pred)
	}
	assert.Equal(t, runs[0], runs[1])
}

func TestInvalidParamsFailConstruction(t *testing.T) {
	cases := []struct {
		family estimator.Family
		params estimator.Params
		err    error
	}{
		{estimator.Logistic, estimator.Params{{Name: "n_neighbors", Value: 3}}, estimator.ErrUnknownParam},
		{estimator.Logistic, estimator.Params{{Name: "C", Value: -1.0}}, estimator.ErrInvalidParam},
		{estimator.SVC, estimator.Params{{Name: "kernel", Value: "rbf"}}, estimator.ErrInvalidParam},
		{estimator.KNeighbors, estimator.Params{{Name: "n_neighbors", Value: "many"}}, estimator.ErrInvalidParam},
		{estimator.RandomForest, estimator.Params{{Name: "max_features", Value: "half"}}, estimator.ErrInvalidParam},
		{estimator.Family("Boosting"), nil, estimator.ErrUnknownFamily},
	}

	for _, tc := range cases {
		_, err := estimator.New(tc.family, tc.params)
		assert.ErrorIs(t, err, tc.err, "%s %v", tc.family, tc.params)
	}
}

func TestBinaryEstimatorsRejectSingleClass(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	m, err := estimator.New(estimator.Logistic, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, m.Fit(X, []int{1, 1, 1}), estimator.ErrTooFewClasses)
}

func TestKNeighborsNeedsEnoughSamples(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})
	m, err := estimator.New(estimator.KNeighbors, estimator.Params{{Name: "n_neighbors", Value: 5}})
	require.NoError(t, err)
	assert.Error(t, m.Fit(X, []int{0, 1}))
}

func TestParseFamily(t *testing.T) {
	f, err := estimator.ParseFamily("logistic_regression")
	require.NoError(t, err)
	assert.Equal(t, estimator.Logistic, f)

	f, err = estimator.ParseFamily("k_neighbors")
	require.NoError(t, err)
	assert.Equal(t, estimator.KNeighbors, f)

	_, err = estimator.ParseFamily("xgboost")
	assert.ErrorIs(t, err, estimator.ErrUnknownFamily)
}

func TestDescribe(t *testing.T) {
	params := estimator.Params{{Name: "C", Value: 1.0}, {Name: "kernel", Value: "linear"}, {Name: "max_iter", Value: 200}}
	assert.Equal(t, "SVC(C=1.0, kernel='linear', max_iter=200)", estimator.Describe(estimator.SVC, params))
	assert.Equal(t, "LogisticRegression()", estimator.Describe(estimator.Logistic, nil))
}

func TestBundleRoundTripIsExact(t *testing.T) {
	X, y := separable()
	params := estimator.Params{{Name: "n_estimators", Value: 3}, {Name: "max_features", Value: nil}}
	p, err := estimator.NewPipeline(estimator.StandardScaled, estimator.RandomForest, params)
	require.NoError(t, err)
	require.NoError(t, p.Fit(X, y))

	bundle := &estimator.Bundle{
		FormatVersion: estimator.BundleFormatVersion,
		FeatureNames:  []string{"a", "b"},
		Label:         "result",
		Classes:       []int{-1, 1},
		Pipeline:      p,
		BestTrial:     estimator.TrialSummary{Family: estimator.RandomForest, Params: params, MeanTestScore: 0.95},
	}

	var first bytes.Buffer
	require.NoError(t, estimator.EncodeBundle(&first, bundle))

	loaded, err := estimator.DecodeBundle(bytes.NewReader(first.Bytes()))
	require.NoError(t, err)

	var second bytes.Buffer
	require.NoError(t, estimator.EncodeBundle(&second, loaded))
	assert.Equal(t, first.Bytes(), second.Bytes())

	expected, err := p.Predict(X)
	require.NoError(t, err)
	actual, err := loaded.Pipeline.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func TestDecodeBundleRejectsGarbage(t *testing.T) {
	_, err := estimator.DecodeBundle(bytes.NewReader([]byte("not a model")))
	assert.Error(t, err)
}
