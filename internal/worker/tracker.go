package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"phishdetector/internal/database"
	"phishdetector/internal/estimator"
	"phishdetector/internal/pipeline"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// runTracker mirrors stage transitions into the run registry. A completed
// model selection also stores the run's leaderboard and model rows.
type runTracker struct {
	db    *gorm.DB
	runId uuid.UUID
}

func (t *runTracker) StageStarted(ctx context.Context, stage string, position int) {
	if err := database.StartStage(ctx, t.db, t.runId, stage, position); err != nil {
		slog.Error("error recording stage start", "run_id", t.runId, "stage", stage, "error", err)
	}
}

func (t *runTracker) StageFinished(ctx context.Context, stage string, artifact pipeline.Artifact, err error) {
	status, errMsg := database.JobCompleted, ""
	if err != nil {
		status, errMsg = database.JobFailed, err.Error()
	}
	if err := database.UpdateStageStatus(ctx, t.db, t.runId, stage, status, artifact, errMsg); err != nil {
		slog.Error("error recording stage completion", "run_id", t.runId, "stage", stage, "error", err)
	}

	if selected, ok := artifact.(pipeline.SelectionArtifact); ok && err == nil {
		t.saveSelection(ctx, selected)
	}
}

func (t *runTracker) saveSelection(ctx context.Context, selected pipeline.SelectionArtifact) {
	entries := make([]database.LeaderboardEntry, len(selected.Entries))
	for i, e := range selected.Entries {
		entries[i] = database.LeaderboardEntry{
			ClfName:       e.ClfName,
			MeanTestScore: e.MeanTestScore,
			StdTestScore:  e.StdTestScore,
			MeanFitTime:   e.MeanFitTime,
			ParamClf:      e.ParamClf,
		}
	}
	if err := database.SaveLeaderboard(ctx, t.db, t.runId, entries); err != nil {
		slog.Error("error saving leaderboard", "run_id", t.runId, "error", err)
	}

	params, err := json.Marshal(selected.Best.Params.Map())
	if err != nil {
		slog.Error("error encoding model params", "run_id", t.runId, "error", err)
		params = []byte("{}")
	}

	_, err = database.SaveTrainedModel(ctx, t.db, database.TrainedModel{
		RunId:         t.runId,
		Family:        string(selected.Best.Family),
		Description:   estimator.Describe(selected.Best.Family, selected.Best.Params),
		MeanTestScore: selected.Best.MeanTestScore,
		StdTestScore:  selected.Best.StdTestScore,
		Params:        datatypes.JSON(params),
		ArtifactKey:   selected.Model,
	})
	if err != nil {
		slog.Error("error saving trained model", "run_id", t.runId, "error", err)
	}
}
