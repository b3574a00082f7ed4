package validation_test

import (
	"context"
	"errors"
	"phishdetector/internal/dataset"
	"phishdetector/internal/schema"
	"phishdetector/internal/validation"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	reports []*schema.ValidationReport
	err     error
}

func (w *recordingWriter) WriteReport(ctx context.Context, report *schema.ValidationReport) error {
	if w.err != nil {
		return w.err
	}
	w.reports = append(w.reports, report)
	return nil
}

const ageCountrySchema = `
columns:
  age:
    data_type: int
  country:
    data_type: enum
    allowed_unique_values: [US, UK]
`

func loadSchema(t *testing.T, doc string) *schema.Schema {
	t.Helper()
	s, err := schema.Parse([]byte(doc))
	require.NoError(t, err)
	return s
}

func loadFrame(t *testing.T, data string) *dataset.Frame {
	t.Helper()
	f, err := dataset.ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	return f
}

func TestMissingColumnIsNotPersisted(t *testing.T) {
	v := validation.NewValidator(loadSchema(t, ageCountrySchema))
	writer := &recordingWriter{}

	valid, report, err := v.Validate(context.Background(), loadFrame(t, "age\n31\n42\n"), writer)
	require.NoError(t, err)

	assert.False(t, valid)
	assert.Equal(t, []string{"Missing expected column: country"}, report.Errors)
	assert.Equal(t, schema.StatusFailed, report.Status)
	assert.Empty(t, writer.reports)

	detail, ok := report.Detail("age")
	require.True(t, ok)
	assert.Equal(t, schema.StatusPassed, detail.Status)
}

func TestAllColumnsPassAndReportIsPersisted(t *testing.T) {
	v := validation.NewValidator(loadSchema(t, ageCountrySchema))
	writer := &recordingWriter{}

	valid, report, err := v.Validate(context.Background(), loadFrame(t, "age,country\n31,US\n42,UK\n"), writer)
	require.NoError(t, err)

	assert.True(t, valid)
	assert.Equal(t, schema.StatusPassed, report.Status)
	assert.Equal(t, 2, report.Summary.ColumnsPassed)
	assert.Equal(t, 0, report.Summary.ColumnsFailed)
	assert.Empty(t, report.Errors)
	require.Len(t, writer.reports, 1)
	assert.Same(t, report, writer.reports[0])
}

func TestFirstFailureStopsValidation(t *testing.T) {
	doc := `
columns:
  a:
    data_type: int64
  b:
    data_type: int64
    allowed_unique_values: [-1, 1]
  c:
    data_type: int64
`
	v := validation.NewValidator(loadSchema(t, doc))

	// b has a disallowed value and c is missing; only b is reported.
	valid, report, err := v.Validate(context.Background(), loadFrame(t, "a,b\n1,1\n2,0\n"), &recordingWriter{})
	require.NoError(t, err)
	assert.False(t, valid)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, "Column 'b' has unexpected values: {1, 0}, expected: {-1, 1}", report.Errors[0])
	assert.Equal(t, schema.Summary{TotalColumnsChecked: 2, ColumnsPassed: 1, ColumnsFailed: 1}, report.Summary)

	_, ok := report.Detail("c")
	assert.False(t, ok)
}

func TestTypeMismatch(t *testing.T) {
	v := validation.NewValidator(loadSchema(t, "columns:\n  score:\n    data_type: int64\n"))

	valid, report, err := v.Validate(context.Background(), loadFrame(t, "score\n0.5\n1\n"), nil)
	require.NoError(t, err)
	assert.False(t, valid)
	assert.Equal(t, []string{"Column 'score' has type float64, expected int64"}, report.Errors)
}

func TestNumericValuesCompareByValue(t *testing.T) {
	v := validation.NewValidator(loadSchema(t, "columns:\n  x:\n    allowed_unique_values: [1, -1]\n"))

	valid, _, err := v.Validate(context.Background(), loadFrame(t, "x\n1.0\n-1.0\n"), nil)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestValidationIsDeterministic(t *testing.T) {
	v := validation.NewValidator(loadSchema(t, ageCountrySchema))
	frame := loadFrame(t, "age,country\n31,US\n42,FR\n")

	valid1, r1, err := v.Validate(context.Background(), frame, nil)
	require.NoError(t, err)
	valid2, r2, err := v.Validate(context.Background(), frame, nil)
	require.NoError(t, err)

	assert.Equal(t, valid1, valid2)
	assert.Equal(t, r1.Details, r2.Details)
	assert.Equal(t, r1.Errors, r2.Errors)
	assert.NotSame(t, r1, r2)
}

func TestWriterFailureIsReturned(t *testing.T) {
	v := validation.NewValidator(loadSchema(t, ageCountrySchema))
	writeErr := errors.New("disk full")

	_, _, err := v.Validate(context.Background(), loadFrame(t, "age,country\n31,US\n"), &recordingWriter{err: writeErr})
	assert.ErrorIs(t, err, writeErr)
}

func TestNilSchemaIsConfigurationError(t *testing.T) {
	v := validation.NewValidator(nil)
	_, _, err := v.Validate(context.Background(), loadFrame(t, "a\n1\n"), nil)
	assert.ErrorIs(t, err, schema.ErrMalformedSchema)
}
