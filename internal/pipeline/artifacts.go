package pipeline

import (
	"errors"
	"fmt"
	"phishdetector/internal/estimator"
	"phishdetector/internal/evaluation"
	"phishdetector/internal/schema"
	"phishdetector/internal/selection"
)

var (
	ErrValidationFailed   = errors.New("data validation failed")
	ErrUnexpectedArtifact = errors.New("unexpected input artifact")
)

type IngestionArtifact struct {
	Train     string `json:"train"`
	Test      string `json:"test"`
	TrainRows int    `json:"train_rows"`
	TestRows  int    `json:"test_rows"`
}

type ValidationArtifact struct {
	Train       string `json:"train"`
	Test        string `json:"test"`
	TrainReport string `json:"train_report"`
	TestReport  string `json:"test_report"`
}

type SelectionArtifact struct {
	Model       string                 `json:"model"`
	Leaderboard string                 `json:"leaderboard"`
	Entries     selection.Leaderboard  `json:"entries"`
	Best        estimator.TrialSummary `json:"best"`
	Trials      int                    `json:"trials"`
	Failed      int                    `json:"failed"`
}

type EvaluationArtifact struct {
	Report  string            `json:"report"`
	Metrics evaluation.Report `json:"metrics"`
}

// ValidationError carries the in-memory reports of a rejected validation.
// Failed reports are not persisted, so this is the only place their detail
// survives.
type ValidationError struct {
	TrainReport *schema.ValidationReport
	TestReport  *schema.ValidationReport
}

func (e *ValidationError) Error() string {
	var failed []string
	for _, r := range []struct {
		split  string
		report *schema.ValidationReport
	}{{"train", e.TrainReport}, {"test", e.TestReport}} {
		if r.report != nil && r.report.Status != schema.StatusPassed {
			failed = append(failed, fmt.Sprintf("%s: %v", r.split, r.report.Errors))
		}
	}
	return fmt.Sprintf("%v: %v", ErrValidationFailed, failed)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func expectArtifact[T any](stage string, in Artifact) (T, error) {
	artifact, ok := in.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: stage %s received %T, expected %T", ErrUnexpectedArtifact, stage, in, zero)
	}
	return artifact, nil
}
