package schema_test

import (
	"phishdetector/internal/dataset"
	"phishdetector/internal/schema"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

const schemaDoc = `
columns:
  having_ip_address:
    data_type: int64
    allowed_unique_values: [-1, 1]
  url_length:
    data_type: int64
    allowed_unique_values: [-1, 0, 1]
  country:
    data_type: str
    allowed_unique_values: [US, UK]
  free_text:
    data_type: object
  anything: {}
`

func TestParseKeepsDocumentOrder(t *testing.T) {
	s, err := schema.Parse([]byte(schemaDoc))
	require.NoError(t, err)

	assert.Equal(t, []string{"having_ip_address", "url_length", "country", "free_text", "anything"}, s.Names())

	cols := s.Columns()
	assert.Equal(t, dataset.Int64, cols[0].DataType)
	assert.Equal(t, dataset.Object, cols[2].DataType)
	assert.Len(t, cols[1].Allowed, 3)
	assert.Equal(t, "num:-1", cols[0].Allowed[0].Key())
	assert.Equal(t, "str:US", cols[2].Allowed[0].Key())

	assert.True(t, cols[3].Unconstrained())
	assert.Equal(t, dataset.DType(""), cols[4].DataType)
}

func TestParseMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":         ``,
		"no columns":    `other: 1`,
		"empty columns": `columns: {}`,
		"not yaml":      `columns: [unterminated`,
		"bad type":      "columns:\n  a:\n    data_type: complex128\n",
		"scalar spec":   "columns:\n  a: 5\n",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := schema.Parse([]byte(doc))
			assert.ErrorIs(t, err, schema.ErrMalformedSchema)
		})
	}
}

func TestReportYAML(t *testing.T) {
	report := schema.NewValidationReport(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	report.Pass("age")
	report.Fail("country", "Missing expected column: country")

	body, err := yaml.Marshal(report)
	require.NoError(t, err)

	var generic yaml.MapSlice
	require.NoError(t, yaml.Unmarshal(body, &generic))
	var keys []string
	for _, item := range generic {
		keys = append(keys, item.Key.(string))
	}
	assert.Equal(t, []string{"schema_version", "validation_date", "validation_status", "summary", "details", "errors"}, keys)

	var back schema.ValidationReport
	require.NoError(t, yaml.Unmarshal(body, &back))
	assert.Equal(t, schema.StatusFailed, back.Status)
	assert.Equal(t, schema.Summary{TotalColumnsChecked: 2, ColumnsPassed: 1, ColumnsFailed: 1}, back.Summary)
	assert.Equal(t, []string{"Missing expected column: country"}, back.Errors)

	detail, ok := back.Detail("country")
	require.True(t, ok)
	assert.Equal(t, schema.StatusFailed, detail.Status)
	assert.True(t, back.Date.Equal(report.Date))
}
