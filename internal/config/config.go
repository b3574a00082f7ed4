package config

import (
	"path"
)

const (
	DefaultRawData     = "data/phishingData.csv"
	DefaultSchema      = "data/schema.yaml"
	DefaultSearchSpace = "data/search_space.yaml"
	DefaultArtifacts   = "artifacts"
	DefaultLabel       = "result"
	DefaultTestSize    = 0.2
	DefaultSeed        = 42
	DefaultFolds       = 5
)

// Layout is the artifact layout shared by every stage. All locations are
// object store keys relative to the store root. Stage configurations are
// derived from it and never modify it.
type Layout struct {
	RawData     string
	Schema      string
	SearchSpace string
	Artifacts   string
	Label       string
	TestSize    float64
	Seed        int64
	Folds       int
}

func DefaultLayout() Layout {
	return Layout{
		RawData:     DefaultRawData,
		Schema:      DefaultSchema,
		SearchSpace: DefaultSearchSpace,
		Artifacts:   DefaultArtifacts,
		Label:       DefaultLabel,
		TestSize:    DefaultTestSize,
		Seed:        DefaultSeed,
		Folds:       DefaultFolds,
	}
}

func (l Layout) FeatureStore() string {
	return path.Join(l.Artifacts, "feature_store")
}

func (l Layout) ModelsDir() string {
	return path.Join(l.Artifacts, "models")
}

func (l Layout) ReportsDir() string {
	return path.Join(l.Artifacts, "reports")
}

type Ingestion struct {
	RawData  string
	Train    string
	Test     string
	// Report is reserved for an ingestion report. Nothing writes it.
	Report   string
	Label    string
	TestSize float64
	Seed     int64
}

func (l Layout) Ingestion() Ingestion {
	dir := path.Join(l.FeatureStore(), "ingested")
	return Ingestion{
		RawData:  l.RawData,
		Train:    path.Join(dir, "train.csv"),
		Test:     path.Join(dir, "test.csv"),
		Report:   path.Join(l.ReportsDir(), "ingestion_report.yaml"),
		Label:    l.Label,
		TestSize: l.TestSize,
		Seed:     l.Seed,
	}
}

type Validation struct {
	Schema      string
	Train       string
	Test        string
	TrainReport string
	TestReport  string
}

func (l Layout) Validation() Validation {
	dir := path.Join(l.FeatureStore(), "validated")
	return Validation{
		Schema:      l.Schema,
		Train:       path.Join(dir, "train.csv"),
		Test:        path.Join(dir, "test.csv"),
		TrainReport: path.Join(l.ReportsDir(), "validation", "train_report.yaml"),
		TestReport:  path.Join(l.ReportsDir(), "validation", "test_report.yaml"),
	}
}

type Training struct {
	SearchSpace string
	Model       string
	Leaderboard string
	Label       string
	Folds       int
}

func (l Layout) Training() Training {
	return Training{
		SearchSpace: l.SearchSpace,
		Model:       path.Join(l.ModelsDir(), "model.gob"),
		Leaderboard: path.Join(l.ReportsDir(), "training_report.yaml"),
		Label:       l.Label,
		Folds:       l.Folds,
	}
}

type Evaluation struct {
	Model  string
	Test   string
	Report string
	Label  string
}

func (l Layout) Evaluation() Evaluation {
	return Evaluation{
		Model:  l.Training().Model,
		Test:   l.Validation().Test,
		Report: path.Join(l.ReportsDir(), "evaluation_report.yaml"),
		Label:  l.Label,
	}
}

type Prediction struct {
	Model  string
	Schema string
	Label  string
}

func (l Layout) Prediction() Prediction {
	return Prediction{
		Model:  l.Training().Model,
		Schema: l.Schema,
		Label:  l.Label,
	}
}
