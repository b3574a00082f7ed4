package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"phishdetector/internal/config"
	"phishdetector/internal/dataset"
	"phishdetector/internal/schema"
	"phishdetector/internal/storage"
	"phishdetector/internal/validation"
)

const ValidationStage = "data_validation"

type reportWriter struct {
	store storage.ObjectStore
	key   string
}

func (w reportWriter) WriteReport(ctx context.Context, report *schema.ValidationReport) error {
	return storage.SaveYAML(ctx, w.store, w.key, report)
}

// NewValidationStage checks both ingested splits against the schema. Each
// split gets its own report, written only when that split passes. The
// validated splits are written only when both pass; otherwise the stage
// fails with a *ValidationError.
func NewValidationStage(store storage.ObjectStore, cfg config.Validation) Stage {
	return NewStage(ValidationStage, func(ctx context.Context, in Artifact) (Artifact, error) {
		ingested, err := expectArtifact[IngestionArtifact](ValidationStage, in)
		if err != nil {
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
		validator := validation.NewValidator(s)

		check := func(split, key, reportKey string) (*dataset.Frame, bool, *schema.ValidationReport, error) {
			frame, err := storage.LoadFrame(ctx, store, key)
			if err != nil {
				return nil, false, nil, err
			}
			frame, err = frame.NormalizeColumnNames()
			if err != nil {
				return nil, false, nil, fmt.Errorf("error normalising %s columns: %w", split, err)
			}
			valid, report, err := validator.Validate(ctx, frame, reportWriter{store: store, key: reportKey})
			if err != nil {
				return nil, false, nil, err
			}
			slog.Info("validated dataset", "split", split, "valid", valid, "columns_passed", report.Summary.ColumnsPassed, "columns_failed", report.Summary.ColumnsFailed)
			return frame, valid, report, nil
		}

		train, trainValid, trainReport, err := check("train", ingested.Train, cfg.TrainReport)
		if err != nil {
			return nil, err
		}
		test, testValid, testReport, err := check("test", ingested.Test, cfg.TestReport)
		if err != nil {
			return nil, err
		}

		if !trainValid || !testValid {
			return nil, &ValidationError{TrainReport: trainReport, TestReport: testReport}
		}

		if err := storage.SaveFrame(ctx, store, cfg.Train, train); err != nil {
			return nil, err
		}
		if err := storage.SaveFrame(ctx, store, cfg.Test, test); err != nil {
			return nil, err
		}

		return ValidationArtifact{
			Train:       cfg.Train,
			Test:        cfg.Test,
			TrainReport: cfg.TrainReport,
			TestReport:  cfg.TestReport,
		}, nil
	})
}
