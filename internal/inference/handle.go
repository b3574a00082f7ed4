package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"phishdetector/internal/config"
	"phishdetector/internal/dataset"
	"phishdetector/internal/estimator"
	"phishdetector/internal/schema"
	"phishdetector/internal/storage"
)

var ErrNoRows = errors.New("input has no rows to predict")

// Handle is the model and schema loaded for serving. It is built once at
// start-up and never mutated, so it is safe for concurrent use.
type Handle struct {
	bundle *estimator.Bundle
	schema *schema.Schema
	label  string
}

func NewHandle(bundle *estimator.Bundle, s *schema.Schema, label string) *Handle {
	return &Handle{bundle: bundle, schema: s, label: label}
}

// Load reads the persisted model and the schema named by the prediction
// configuration.
func Load(ctx context.Context, store storage.ObjectStore, cfg config.Prediction) (*Handle, error) {
	bundle, err := storage.LoadBundle(ctx, store, cfg.Model)
	if err != nil {
		slog.Error("error loading model", "location", store.Location(cfg.Model), "error", err)
		return nil, err
	}

	data, err := store.GetObject(ctx, cfg.Schema)
	if err != nil {
		slog.Error("error loading schema", "location", store.Location(cfg.Schema), "error", err)
		return nil, err
	}
	s, err := schema.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing schema %s: %w", store.Location(cfg.Schema), err)
	}

	slog.Info("loaded model for serving", "model", bundle.Pipeline.String(), "features", len(bundle.FeatureNames), "schema_columns", s.Len())
	return NewHandle(bundle, s, cfg.Label), nil
}

func (h *Handle) Schema() *schema.Schema {
	return h.schema
}

func (h *Handle) Model() estimator.TrialSummary {
	return h.bundle.BestTrial
}

// Predict returns one class per input row in row order. Column names are
// normalised first and the label column is ignored when present.
func (h *Handle) Predict(frame *dataset.Frame) ([]int, error) {
	if frame.Len() == 0 {
		return nil, ErrNoRows
	}

	frame, err := frame.NormalizeColumnNames()
	if err != nil {
		return nil, err
	}
	if frame.HasColumn(h.label) {
		slog.Warn("dropping label column from prediction input", "column", h.label)
		if frame, err = frame.Drop(h.label); err != nil {
			return nil, err
		}
	}

	X, err := frame.Features(h.bundle.FeatureNames)
	if err != nil {
		return nil, fmt.Errorf("error building feature matrix: %w", err)
	}
	return h.bundle.Pipeline.Predict(X)
}
