package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"phishdetector/internal/config"
	"phishdetector/internal/dataset"
	"phishdetector/internal/storage"
)

const IngestionStage = "data_ingestion"

// NewIngestionStage splits the raw dataset into train and test sets,
// stratified on the label column when the raw data has one. Names are
// matched after normalisation since ingestion keeps the raw header.
func NewIngestionStage(store storage.ObjectStore, cfg config.Ingestion) Stage {
	return NewStage(IngestionStage, func(ctx context.Context, _ Artifact) (Artifact, error) {
		raw, err := storage.LoadFrame(ctx, store, cfg.RawData)
		if err != nil {
			slog.Error("error loading raw data", "location", store.Location(cfg.RawData), "error", err)
			return nil, err
		}

		stratify := ""
		for _, name := range raw.Columns() {
			if dataset.NormalizeName(name) == cfg.Label {
				stratify = name
				break
			}
		}
		if stratify == "" {
			slog.Warn("label column not found in raw data, splitting without stratification", "label", cfg.Label)
		}

		train, test, err := dataset.TrainTestSplit(raw, dataset.SplitOptions{
			TestSize:   cfg.TestSize,
			Seed:       cfg.Seed,
			StratifyBy: stratify,
		})
		if err != nil {
			return nil, fmt.Errorf("error splitting %s: %w", store.Location(cfg.RawData), err)
		}
		slog.Info("split raw data", "rows", raw.Len(), "train_rows", train.Len(), "test_rows", test.Len())

		if err := storage.SaveFrame(ctx, store, cfg.Train, train); err != nil {
			return nil, err
		}
		if err := storage.SaveFrame(ctx, store, cfg.Test, test); err != nil {
			return nil, err
		}

		return IngestionArtifact{
			Train:     cfg.Train,
			Test:      cfg.Test,
			TrainRows: train.Len(),
			TestRows:  test.Len(),
		}, nil
	})
}
