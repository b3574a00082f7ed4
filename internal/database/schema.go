package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	JobQueued    string = "QUEUED"
	JobRunning   string = "RUNNING"
	JobCompleted string = "COMPLETED"
	JobFailed    string = "FAILED"
)

const (
	RunPreprocessing string = "preprocessing"
	RunTraining      string = "training"
)

type PipelineRun struct {
	Id     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind   string    `gorm:"size:20;not null"`
	Status string    `gorm:"size:20;not null"`

	CreationTime   time.Time
	StartTime      sql.NullTime
	CompletionTime sql.NullTime
	Error          sql.NullString

	Stages      []StageRun         `gorm:"foreignKey:RunId;constraint:OnDelete:CASCADE"`
	Leaderboard []LeaderboardEntry `gorm:"foreignKey:RunId;constraint:OnDelete:CASCADE"`
	Model       *TrainedModel      `gorm:"foreignKey:RunId;constraint:OnDelete:CASCADE"`
}

type StageRun struct {
	RunId    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Stage    string    `gorm:"primaryKey;size:40"`
	Position int

	Status         string `gorm:"size:20;not null"`
	StartTime      time.Time
	CompletionTime sql.NullTime
	Artifact       datatypes.JSON `gorm:"type:jsonb"`
	Error          sql.NullString
}

type TrainedModel struct {
	Id    uuid.UUID `gorm:"type:uuid;primaryKey"`
	RunId uuid.UUID `gorm:"type:uuid;uniqueIndex"`

	Family        string `gorm:"size:40;not null"`
	Description   string
	MeanTestScore float64
	StdTestScore  float64
	Params        datatypes.JSON `gorm:"type:jsonb"`
	ArtifactKey   string
	CreationTime  time.Time
}

type LeaderboardEntry struct {
	RunId uuid.UUID `gorm:"type:uuid;primaryKey"`
	Rank  int       `gorm:"primaryKey"`

	ClfName       string `gorm:"size:40;not null"`
	MeanTestScore float64
	StdTestScore  float64
	MeanFitTime   float64
	ParamClf      string
}
