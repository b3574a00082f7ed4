package schema

import (
	"errors"
	"fmt"
	"phishdetector/internal/dataset"

	"gopkg.in/yaml.v2"
)

var ErrMalformedSchema = errors.New("malformed schema")

type Column struct {
	Name string
	// DataType is empty when the schema declares no type for the column.
	DataType dataset.DType
	TypeTag  string
	Allowed  []dataset.Value
	// AllowedLiterals are the allowed values exactly as written in the document.
	AllowedLiterals []any
}

// Unconstrained reports whether any value is accepted for the column.
func (c Column) Unconstrained() bool {
	return len(c.Allowed) == 0
}

// Schema is the ordered set of columns a dataset must provide. It is never
// modified after Parse returns.
type Schema struct {
	columns []Column
}

type columnSpec struct {
	DataType            string `yaml:"data_type"`
	AllowedUniqueValues []any  `yaml:"allowed_unique_values"`
}

type document struct {
	Columns yaml.MapSlice `yaml:"columns"`
}

// Parse decodes a schema document. Columns are kept in document order.
func Parse(data []byte) (*Schema, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSchema, err)
	}
	if len(doc.Columns) == 0 {
		return nil, fmt.Errorf("%w: no expected columns found", ErrMalformedSchema)
	}

	seen := make(map[string]bool, len(doc.Columns))
	columns := make([]Column, 0, len(doc.Columns))
	for _, item := range doc.Columns {
		name, ok := item.Key.(string)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: column name %v is not a string", ErrMalformedSchema, item.Key)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: column '%s' declared twice", ErrMalformedSchema, name)
		}
		seen[name] = true

		col, err := parseColumn(name, item.Value)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}

	return &Schema{columns: columns}, nil
}

func parseColumn(name string, raw any) (Column, error) {
	col := Column{Name: name}
	if raw == nil {
		return col, nil
	}

	// Round trip through yaml so nested mappings decode into the typed spec
	// regardless of how the generic decoder represented them.
	body, err := yaml.Marshal(raw)
	if err != nil {
		return col, fmt.Errorf("%w: column '%s': %v", ErrMalformedSchema, name, err)
	}
	var spec columnSpec
	if err := yaml.Unmarshal(body, &spec); err != nil {
		return col, fmt.Errorf("%w: column '%s': %v", ErrMalformedSchema, name, err)
	}

	if spec.DataType != "" {
		dtype, err := dataset.ParseDType(spec.DataType)
		if err != nil {
			return col, fmt.Errorf("%w: column '%s': %v", ErrMalformedSchema, name, err)
		}
		col.DataType = dtype
		col.TypeTag = spec.DataType
	}

	for _, lit := range spec.AllowedUniqueValues {
		v, err := dataset.LiteralValue(lit)
		if err != nil {
			return col, fmt.Errorf("%w: column '%s': %v", ErrMalformedSchema, name, err)
		}
		col.Allowed = append(col.Allowed, v)
	}
	col.AllowedLiterals = spec.AllowedUniqueValues

	return col, nil
}

func (s *Schema) Columns() []Column {
	return append([]Column(nil), s.columns...)
}

func (s *Schema) Names() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

func (s *Schema) Len() int {
	return len(s.columns)
}
