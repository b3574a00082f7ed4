package schema

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v2"
)

const ReportSchemaVersion = "1.0"

type Status string

const (
	StatusPending Status = "Pending"
	StatusPassed  Status = "Passed"
	StatusFailed  Status = "Failed"
)

type Summary struct {
	TotalColumnsChecked int `yaml:"total_columns_checked" json:"total_columns_checked"`
	ColumnsPassed       int `yaml:"columns_passed" json:"columns_passed"`
	ColumnsFailed       int `yaml:"columns_failed" json:"columns_failed"`
}

type ColumnDetail struct {
	Column  string `yaml:"-" json:"column"`
	Status  Status `yaml:"status" json:"status"`
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
}

// ValidationReport records the outcome of validating one dataset. A report
// belongs to a single validation run and is not reused.
type ValidationReport struct {
	SchemaVersion string
	Date          time.Time
	Status        Status
	Summary       Summary
	// Details holds one entry per checked column in check order.
	Details []ColumnDetail
	Errors  []string
}

func NewValidationReport(now time.Time) *ValidationReport {
	return &ValidationReport{
		SchemaVersion: ReportSchemaVersion,
		Date:          now.UTC(),
		Status:        StatusPending,
		Errors:        []string{},
	}
}

func (r *ValidationReport) Pass(column string) {
	r.Summary.TotalColumnsChecked++
	r.Summary.ColumnsPassed++
	r.Details = append(r.Details, ColumnDetail{Column: column, Status: StatusPassed})
}

func (r *ValidationReport) Fail(column, message string) {
	r.Summary.TotalColumnsChecked++
	r.Summary.ColumnsFailed++
	r.Details = append(r.Details, ColumnDetail{Column: column, Status: StatusFailed, Message: message})
	r.Errors = append(r.Errors, message)
	r.Status = StatusFailed
}

func (r *ValidationReport) Detail(column string) (ColumnDetail, bool) {
	for _, d := range r.Details {
		if d.Column == column {
			return d, true
		}
	}
	return ColumnDetail{}, false
}

type reportDocument struct {
	SchemaVersion    string        `yaml:"schema_version"`
	ValidationDate   string        `yaml:"validation_date"`
	ValidationStatus Status        `yaml:"validation_status"`
	Summary          Summary       `yaml:"summary"`
	Details          yaml.MapSlice `yaml:"details"`
	Errors           []string      `yaml:"errors"`
}

func (r *ValidationReport) MarshalYAML() (interface{}, error) {
	details := make(yaml.MapSlice, 0, len(r.Details))
	for _, d := range r.Details {
		details = append(details, yaml.MapItem{Key: d.Column, Value: d})
	}
	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return reportDocument{
		SchemaVersion:    r.SchemaVersion,
		ValidationDate:   r.Date.Format(time.RFC3339),
		ValidationStatus: r.Status,
		Summary:          r.Summary,
		Details:          details,
		Errors:           errs,
	}, nil
}

func (r *ValidationReport) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var doc reportDocument
	if err := unmarshal(&doc); err != nil {
		return err
	}

	date, err := time.Parse(time.RFC3339, doc.ValidationDate)
	if err != nil {
		return fmt.Errorf("invalid validation_date '%s': %w", doc.ValidationDate, err)
	}

	details := make([]ColumnDetail, 0, len(doc.Details))
	for _, item := range doc.Details {
		body, err := yaml.Marshal(item.Value)
		if err != nil {
			return err
		}
		var d ColumnDetail
		if err := yaml.Unmarshal(body, &d); err != nil {
			return fmt.Errorf("invalid detail for column %v: %w", item.Key, err)
		}
		d.Column = fmt.Sprint(item.Key)
		details = append(details, d)
	}

	*r = ValidationReport{
		SchemaVersion: doc.SchemaVersion,
		Date:          date,
		Status:        doc.ValidationStatus,
		Summary:       doc.Summary,
		Details:       details,
		Errors:        doc.Errors,
	}
	return nil
}
