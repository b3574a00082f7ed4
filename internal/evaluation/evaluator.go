package evaluation

import (
	"fmt"
	"phishdetector/internal/dataset"
	"phishdetector/internal/estimator"
)

// Evaluate scores a fitted bundle against a labelled frame whose column
// names are already normalised. Prediction is deterministic, so repeated
// evaluations of the same bundle and frame give identical reports.
func Evaluate(bundle *estimator.Bundle, frame *dataset.Frame) (Report, error) {
	yTrue, err := frame.Labels(bundle.Label)
	if err != nil {
		return Report{}, err
	}
	X, err := frame.Features(bundle.FeatureNames)
	if err != nil {
		return Report{}, fmt.Errorf("error building feature matrix: %w", err)
	}
	yPred, err := bundle.Pipeline.Predict(X)
	if err != nil {
		return Report{}, fmt.Errorf("error predicting with %s: %w", bundle.Pipeline, err)
	}
	return ComputeReport(yTrue, yPred)
}
