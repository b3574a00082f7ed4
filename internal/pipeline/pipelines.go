package pipeline

import (
	"phishdetector/internal/config"
	"phishdetector/internal/selection"
	"phishdetector/internal/storage"
)

const (
	PreprocessingPipeline = "preprocessing"
	TrainingPipeline      = "training"
)

type Options struct {
	Tracker   Tracker
	Selection selection.Options
}

func NewPreprocessing(store storage.ObjectStore, layout config.Layout, opts Options) *Runner {
	return NewRunner(PreprocessingPipeline, opts.Tracker,
		NewIngestionStage(store, layout.Ingestion()),
		NewValidationStage(store, layout.Validation()),
	)
}

func NewTraining(store storage.ObjectStore, layout config.Layout, opts Options) *Runner {
	return NewRunner(TrainingPipeline, opts.Tracker,
		NewSelectionStage(store, layout.Validation().Train, layout.Training(), opts.Selection),
		NewEvaluationStage(store, layout.Evaluation()),
	)
}
