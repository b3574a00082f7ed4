package migration_0

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Tables as first released. Later migrations change these through the
// migrator rather than editing the structs here.

type PipelineRun struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind           string    `gorm:"size:20;not null"`
	Status         string    `gorm:"size:20;not null"`
	CreationTime   time.Time
	StartTime      sql.NullTime
	CompletionTime sql.NullTime
	Error          sql.NullString
}

type StageRun struct {
	RunId          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Stage          string    `gorm:"primaryKey;size:40"`
	Position       int
	Status         string `gorm:"size:20;not null"`
	StartTime      time.Time
	CompletionTime sql.NullTime
	Artifact       datatypes.JSON `gorm:"type:jsonb"`
	Error          sql.NullString
}

type TrainedModel struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	RunId         uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Family        string    `gorm:"size:40;not null"`
	Description   string
	MeanTestScore float64
	StdTestScore  float64
	Params        datatypes.JSON `gorm:"type:jsonb"`
	ArtifactKey   string
	CreationTime  time.Time
}

type LeaderboardEntry struct {
	RunId         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Rank          int       `gorm:"primaryKey"`
	ClfName       string    `gorm:"size:40;not null"`
	MeanTestScore float64
	StdTestScore  float64
	MeanFitTime   float64
	ParamClf      string
}

func Migration(db *gorm.DB) error {
	return db.AutoMigrate(&PipelineRun{}, &StageRun{}, &TrainedModel{}, &LeaderboardEntry{})
}

func Rollback(db *gorm.DB) error {
	return db.Migrator().DropTable(&LeaderboardEntry{}, &TrainedModel{}, &StageRun{}, &PipelineRun{})
}
