package pipeline

import (
	"context"
	"errors"
	"phishdetector/internal/dataset"
	"phishdetector/internal/inference"
)

const (
	InferencePipeline = "inference"
	PredictionStage   = "model_prediction"
)

var ErrNoInput = errors.New("no input data provided for prediction")

type PredictionArtifact struct {
	Predictions []int `json:"predictions"`
}

// NewPredictionStage predicts every row of frame with an already loaded
// handle. The handle is shared and never reloaded by the stage.
func NewPredictionStage(handle *inference.Handle, frame *dataset.Frame) Stage {
	return NewStage(PredictionStage, func(ctx context.Context, _ Artifact) (Artifact, error) {
		if frame == nil {
			return nil, ErrNoInput
		}
		predictions, err := handle.Predict(frame)
		if err != nil {
			return nil, err
		}
		return PredictionArtifact{Predictions: predictions}, nil
	})
}

func NewInference(handle *inference.Handle, frame *dataset.Frame, opts Options) *Runner {
	return NewRunner(InferencePipeline, opts.Tracker, NewPredictionStage(handle, frame))
}
