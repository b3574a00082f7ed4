package validation

import (
	"context"
	"fmt"
	"log/slog"
	"phishdetector/internal/dataset"
	"phishdetector/internal/schema"
	"strings"
	"time"
)

// ReportWriter persists a validation report. It is only called for datasets
// that pass every check.
type ReportWriter interface {
	WriteReport(ctx context.Context, report *schema.ValidationReport) error
}

type Validator struct {
	schema *schema.Schema
	now    func() time.Time
}

func NewValidator(s *schema.Schema) *Validator {
	return &Validator{schema: s, now: time.Now}
}

// Validate checks the columns of frame against the schema in schema order.
// The first failing check ends validation, so columns after it are never
// examined and do not appear in the report. The returned error is reserved
// for configuration and I/O failures; an invalid dataset is reported through
// the boolean and the report.
func (v *Validator) Validate(ctx context.Context, frame *dataset.Frame, writer ReportWriter) (bool, *schema.ValidationReport, error) {
	if v.schema == nil || v.schema.Len() == 0 {
		return false, nil, fmt.Errorf("%w: no expected columns found", schema.ErrMalformedSchema)
	}

	report := schema.NewValidationReport(v.now())

	for _, expected := range v.schema.Columns() {
		if msg, ok := checkColumn(frame, expected); !ok {
			slog.Error("schema validation failed", "column", expected.Name, "error", msg)
			report.Fail(expected.Name, msg)
			return false, report, nil
		}
		report.Pass(expected.Name)
	}

	report.Status = schema.StatusPassed

	if writer != nil {
		if err := writer.WriteReport(ctx, report); err != nil {
			slog.Error("error saving validation report", "error", err)
			return true, report, fmt.Errorf("error saving validation report: %w", err)
		}
	}

	return true, report, nil
}

func checkColumn(frame *dataset.Frame, expected schema.Column) (string, bool) {
	col, err := frame.Column(expected.Name)
	if err != nil {
		return fmt.Sprintf("Missing expected column: %s", expected.Name), false
	}

	if expected.DataType != "" && col.DType != expected.DataType {
		return fmt.Sprintf("Column '%s' has type %s, expected %s", expected.Name, col.DType, expected.TypeTag), false
	}

	if expected.Unconstrained() {
		return "", true
	}

	allowed := make(map[string]struct{}, len(expected.Allowed))
	for _, a := range expected.Allowed {
		allowed[a.Key()] = struct{}{}
	}

	observed := col.Unique()
	for _, o := range observed {
		if _, ok := allowed[o.Key()]; !ok {
			return fmt.Sprintf("Column '%s' has unexpected values: %s, expected: %s",
				expected.Name, formatValues(observed), formatValues(expected.Allowed)), false
		}
	}

	return "", true
}

func formatValues(values []dataset.Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
