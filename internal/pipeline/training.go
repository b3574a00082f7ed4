package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"phishdetector/internal/config"
	"phishdetector/internal/evaluation"
	"phishdetector/internal/selection"
	"phishdetector/internal/storage"
)

const (
	SelectionStage  = "model_selection"
	EvaluationStage = "model_evaluation"
)

// NewSelectionStage grid searches the search space on the validated train
// set, then persists the best model and the per-family leaderboard.
func NewSelectionStage(store storage.ObjectStore, train string, cfg config.Training, opts selection.Options) Stage {
	return NewStage(SelectionStage, func(ctx context.Context, _ Artifact) (Artifact, error) {
		data, err := store.GetObject(ctx, cfg.SearchSpace)
		if err != nil {
			slog.Error("error loading search space", "location", store.Location(cfg.SearchSpace), "error", err)
			return nil, err
		}
		space, err := selection.ParseSearchSpace(data)
		if err != nil {
			return nil, fmt.Errorf("error parsing search space %s: %w", store.Location(cfg.SearchSpace), err)
		}

		frame, err := storage.LoadFrame(ctx, store, train)
		if err != nil {
			return nil, err
		}

		if opts.Folds == 0 {
			opts.Folds = cfg.Folds
		}
		outcome, err := selection.NewSelector(opts).Select(ctx, frame, cfg.Label, space)
		if err != nil {
			return nil, err
		}

		if err := storage.SaveBundle(ctx, store, cfg.Model, outcome.Bundle); err != nil {
			return nil, err
		}
		if err := storage.SaveYAML(ctx, store, cfg.Leaderboard, outcome.Leaderboard); err != nil {
			return nil, err
		}

		failed := 0
		for _, r := range outcome.Results {
			if !r.Succeeded() {
				failed++
			}
		}

		return SelectionArtifact{
			Model:       cfg.Model,
			Leaderboard: cfg.Leaderboard,
			Entries:     outcome.Leaderboard,
			Best:        outcome.Best.Summary(),
			Trials:      len(outcome.Results),
			Failed:      failed,
		}, nil
	})
}

// NewEvaluationStage scores the persisted model on the validated test set.
// The model is read back from storage rather than taken from the selection
// stage, so the report describes exactly what was shipped.
func NewEvaluationStage(store storage.ObjectStore, cfg config.Evaluation) Stage {
	return NewStage(EvaluationStage, func(ctx context.Context, in Artifact) (Artifact, error) {
		if _, err := expectArtifact[SelectionArtifact](EvaluationStage, in); err != nil {
			return nil, err
		}

		bundle, err := storage.LoadBundle(ctx, store, cfg.Model)
		if err != nil {
			return nil, err
		}
		frame, err := storage.LoadFrame(ctx, store, cfg.Test)
		if err != nil {
			return nil, err
		}

		report, err := evaluation.Evaluate(bundle, frame)
		if err != nil {
			return nil, fmt.Errorf("error evaluating %s on %s: %w", store.Location(cfg.Model), store.Location(cfg.Test), err)
		}
		slog.Info("evaluated model", "accuracy", report.Accuracy, "f1_score", report.F1Score, "samples", report.Samples)

		if err := storage.SaveYAML(ctx, store, cfg.Report, report); err != nil {
			return nil, err
		}
		return EvaluationArtifact{Report: cfg.Report, Metrics: report}, nil
	})
}
