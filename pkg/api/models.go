package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type SchemaColumn struct {
	Name                string `json:"name"`
	DataType            string `json:"data_type,omitempty"`
	AllowedUniqueValues []any  `json:"allowed_unique_values"`
}

type SchemaResponse struct {
	Columns []SchemaColumn `json:"columns"`
}

type PredictResponse struct {
	Predictions []int `json:"predictions"`
}

type SubmitRunRequest struct {
	Kind string `json:"kind"`
}

type SubmitRunResponse struct {
	RunId uuid.UUID `json:"run_id"`
}

type ListRunsParams struct {
	Kind   string `schema:"kind"`
	Status string `schema:"status"`
	Limit  int    `schema:"limit"`
}

type Stage struct {
	Name           string          `json:"name"`
	Position       int             `json:"position"`
	Status         string          `json:"status"`
	StartTime      time.Time       `json:"start_time"`
	CompletionTime *time.Time      `json:"completion_time,omitempty"`
	Artifact       json.RawMessage `json:"artifact,omitempty"`
	Error          string          `json:"error,omitempty"`
}

type TrainedModel struct {
	Id            uuid.UUID       `json:"id"`
	Family        string          `json:"family"`
	Description   string          `json:"description"`
	MeanTestScore float64         `json:"mean_test_score"`
	StdTestScore  float64         `json:"std_test_score"`
	Params        json.RawMessage `json:"params,omitempty"`
	ArtifactKey   string          `json:"artifact_key"`
	CreationTime  time.Time       `json:"creation_time"`
}

type Run struct {
	Id             uuid.UUID     `json:"id"`
	Kind           string        `json:"kind"`
	Status         string        `json:"status"`
	CreationTime   time.Time     `json:"creation_time"`
	StartTime      *time.Time    `json:"start_time,omitempty"`
	CompletionTime *time.Time    `json:"completion_time,omitempty"`
	Error          string        `json:"error,omitempty"`
	Stages         []Stage       `json:"stages,omitempty"`
	Model          *TrainedModel `json:"model,omitempty"`
}

type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	ClfName       string  `json:"clf_name"`
	MeanTestScore float64 `json:"mean_test_score"`
	StdTestScore  float64 `json:"std_test_score"`
	MeanFitTime   float64 `json:"mean_fit_time"`
	ParamClf      string  `json:"param_clf"`
}
