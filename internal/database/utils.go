package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrRunNotFound = errors.New("pipeline run not found")

func CreateRun(ctx context.Context, txn *gorm.DB, kind string) (PipelineRun, error) {
	run := PipelineRun{
		Id:           uuid.New(),
		Kind:         kind,
		Status:       JobQueued,
		CreationTime: time.Now().UTC(),
	}
	if err := txn.WithContext(ctx).Create(&run).Error; err != nil {
		slog.Error("error creating pipeline run", "kind", kind, "error", err)
		return PipelineRun{}, fmt.Errorf("error creating pipeline run: %w", err)
	}
	return run, nil
}

func GetRun(ctx context.Context, txn *gorm.DB, runId uuid.UUID) (PipelineRun, error) {
	var run PipelineRun
	err := txn.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Leaderboard", func(db *gorm.DB) *gorm.DB { return db.Order("rank ASC") }).
		Preload("Model").
		First(&run, "id = ?", runId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PipelineRun{}, ErrRunNotFound
		}
		return PipelineRun{}, fmt.Errorf("error loading pipeline run %v: %w", runId, err)
	}
	return run, nil
}

type RunFilter struct {
	Kind   string
	Status string
	Limit  int
}

// ListRuns returns runs newest first. Empty filter fields match everything.
func ListRuns(ctx context.Context, txn *gorm.DB, filter RunFilter) ([]PipelineRun, error) {
	query := txn.WithContext(ctx).Order("creation_time DESC")
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var runs []PipelineRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("error listing pipeline runs: %w", err)
	}
	return runs, nil
}

// UpdateRunStatus records a run transition. Terminal states also stamp the
// completion time; an empty errMsg leaves the error column untouched.
func UpdateRunStatus(ctx context.Context, txn *gorm.DB, runId uuid.UUID, status string, errMsg string) error {
	updates := map[string]any{"status": status}
	switch status {
	case JobRunning:
		updates["start_time"] = time.Now().UTC()
	case JobCompleted, JobFailed:
		updates["completion_time"] = time.Now().UTC()
	}
	if errMsg != "" {
		updates["error"] = errMsg
	}

	if err := txn.WithContext(ctx).Model(&PipelineRun{Id: runId}).Updates(updates).Error; err != nil {
		slog.Error("error updating pipeline run status", "run_id", runId, "status", status, "error", err)
		return err
	}
	return nil
}

// StartStage inserts the stage row as RUNNING, replacing any row left by an
// earlier attempt of the same run.
func StartStage(ctx context.Context, txn *gorm.DB, runId uuid.UUID, stage string, position int) error {
	row := StageRun{
		RunId:     runId,
		Stage:     stage,
		Position:  position,
		Status:    JobRunning,
		StartTime: time.Now().UTC(),
	}
	err := txn.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		slog.Error("error starting stage", "run_id", runId, "stage", stage, "error", err)
		return err
	}
	return nil
}

func UpdateStageStatus(ctx context.Context, txn *gorm.DB, runId uuid.UUID, stage string, status string, artifact any, errMsg string) error {
	updates := map[string]any{"status": status}
	if status == JobCompleted || status == JobFailed {
		updates["completion_time"] = time.Now().UTC()
	}
	if errMsg != "" {
		updates["error"] = sql.NullString{String: errMsg, Valid: true}
	}
	if artifact != nil {
		data, err := json.Marshal(artifact)
		if err != nil {
			return fmt.Errorf("error encoding artifact for stage %s: %w", stage, err)
		}
		updates["artifact"] = data
	}

	if err := txn.WithContext(ctx).Model(&StageRun{RunId: runId, Stage: stage}).Updates(updates).Error; err != nil {
		slog.Error("error updating stage status", "run_id", runId, "stage", stage, "status", status, "error", err)
		return err
	}
	return nil
}

// SaveLeaderboard replaces the leaderboard of a run. Ranks follow slice order
// starting at 1.
func SaveLeaderboard(ctx context.Context, db *gorm.DB, runId uuid.UUID, entries []LeaderboardEntry) error {
	return db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := txn.Where("run_id = ?", runId).Delete(&LeaderboardEntry{}).Error; err != nil {
			return fmt.Errorf("could not clear old leaderboard: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}
		rows := make([]LeaderboardEntry, len(entries))
		for i, e := range entries {
			e.RunId = runId
			e.Rank = i + 1
			rows[i] = e
		}
		if err := txn.Create(&rows).Error; err != nil {
			return fmt.Errorf("could not save leaderboard: %w", err)
		}
		return nil
	})
}

// SaveTrainedModel stores the model produced by a run, replacing any model
// an earlier attempt of the run stored.
func SaveTrainedModel(ctx context.Context, db *gorm.DB, model TrainedModel) (TrainedModel, error) {
	if model.Id == uuid.Nil {
		model.Id = uuid.New()
	}
	if model.CreationTime.IsZero() {
		model.CreationTime = time.Now().UTC()
	}

	err := db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := txn.Where("run_id = ?", model.RunId).Delete(&TrainedModel{}).Error; err != nil {
			return fmt.Errorf("could not clear old model: %w", err)
		}
		return txn.Create(&model).Error
	})
	if err != nil {
		slog.Error("error saving trained model", "run_id", model.RunId, "error", err)
		return TrainedModel{}, fmt.Errorf("failed to save trained model: %w", err)
	}
	return model, nil
}

// LatestModel returns the most recently stored model, if any.
func LatestModel(ctx context.Context, txn *gorm.DB) (*TrainedModel, error) {
	var model TrainedModel
	err := txn.WithContext(ctx).Order("creation_time DESC").First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading latest model: %w", err)
	}
	return &model, nil
}
