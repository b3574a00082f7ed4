package api

import (
	"database/sql"
	"encoding/json"
	"phishdetector/internal/database"
	"phishdetector/internal/schema"
	"phishdetector/pkg/api"
	"time"
)

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func rawJSON(data []byte) json.RawMessage {
	if len(data) == 0 {
		return nil
	}
	return json.RawMessage(data)
}

func convertStage(s database.StageRun) api.Stage {
	return api.Stage{
		Name:           s.Stage,
		Position:       s.Position,
		Status:         s.Status,
		StartTime:      s.StartTime,
		CompletionTime: nullTime(s.CompletionTime),
		Artifact:       rawJSON(s.Artifact),
		Error:          s.Error.String,
	}
}

func convertModel(m database.TrainedModel) api.TrainedModel {
	return api.TrainedModel{
		Id:            m.Id,
		Family:        m.Family,
		Description:   m.Description,
		MeanTestScore: m.MeanTestScore,
		StdTestScore:  m.StdTestScore,
		Params:        rawJSON(m.Params),
		ArtifactKey:   m.ArtifactKey,
		CreationTime:  m.CreationTime,
	}
}

func convertRun(r database.PipelineRun) api.Run {
	run := api.Run{
		Id:             r.Id,
		Kind:           r.Kind,
		Status:         r.Status,
		CreationTime:   r.CreationTime,
		StartTime:      nullTime(r.StartTime),
		CompletionTime: nullTime(r.CompletionTime),
		Error:          r.Error.String,
	}
	for _, s := range r.Stages {
		run.Stages = append(run.Stages, convertStage(s))
	}
	if r.Model != nil {
		model := convertModel(*r.Model)
		run.Model = &model
	}
	return run
}

func convertRuns(rs []database.PipelineRun) []api.Run {
	runs := make([]api.Run, 0, len(rs))
	for _, r := range rs {
		runs = append(runs, convertRun(r))
	}
	return runs
}

func convertLeaderboard(entries []database.LeaderboardEntry) []api.LeaderboardEntry {
	out := make([]api.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, api.LeaderboardEntry{
			Rank:          e.Rank,
			ClfName:       e.ClfName,
			MeanTestScore: e.MeanTestScore,
			StdTestScore:  e.StdTestScore,
			MeanFitTime:   e.MeanFitTime,
			ParamClf:      e.ParamClf,
		})
	}
	return out
}

func convertSchema(s *schema.Schema) api.SchemaResponse {
	columns := make([]api.SchemaColumn, 0, s.Len())
	for _, c := range s.Columns() {
		allowed := c.AllowedLiterals
		if allowed == nil {
			allowed = []any{}
		}
		columns = append(columns, api.SchemaColumn{
			Name:                c.Name,
			DataType:            c.TypeTag,
			AllowedUniqueValues: allowed,
		})
	}
	return api.SchemaResponse{Columns: columns}
}
