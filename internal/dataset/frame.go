package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptyDataset  = errors.New("dataset is empty")
	ErrMissingColumn = errors.New("column not found")
)

type DType string

const (
	Int64   DType = "int64"
	Float64 DType = "float64"
	Bool    DType = "bool"
	Object  DType = "object"
)

// ParseDType maps the type tags accepted in schema files onto the dtypes
// produced by the CSV reader.
func ParseDType(tag string) (DType, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "int", "int64", "integer":
		return Int64, nil
	case "float", "float64", "double", "number":
		return Float64, nil
	case "bool", "boolean":
		return Bool, nil
	case "str", "string", "object", "category", "enum":
		return Object, nil
	default:
		return "", fmt.Errorf("unknown data type '%s'", tag)
	}
}

type Column struct {
	Name  string
	DType DType
	Cells []string
}

// Unique returns the canonical keys of the column's distinct values in the
// order they are first seen.
func (c *Column) Unique() []Value {
	seen := make(map[string]struct{}, 8)
	var out []Value
	for _, cell := range c.Cells {
		v := CellValue(cell, c.DType)
		if _, ok := seen[v.Key()]; ok {
			continue
		}
		seen[v.Key()] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Frame is an immutable, column-oriented table read from delimited text.
// Operations that change the shape return a new frame.
type Frame struct {
	columns []Column
	index   map[string]int
	rows    int
}

func NewFrame(header []string, records [][]string) (*Frame, error) {
	columns := make([]Column, len(header))
	for j, name := range header {
		cells := make([]string, len(records))
		for i, rec := range records {
			if len(rec) != len(header) {
				return nil, fmt.Errorf("row %d has %d fields, expected %d", i+1, len(rec), len(header))
			}
			cells[i] = rec[j]
		}
		columns[j] = Column{Name: name, DType: inferDType(cells), Cells: cells}
	}
	return newFrame(columns, len(records))
}

func newFrame(columns []Column, rows int) (*Frame, error) {
	index := make(map[string]int, len(columns))
	for j, c := range columns {
		if _, ok := index[c.Name]; ok {
			return nil, fmt.Errorf("duplicate column name '%s'", c.Name)
		}
		index[c.Name] = j
	}
	return &Frame{columns: columns, index: index, rows: rows}, nil
}

func (f *Frame) Len() int {
	return f.rows
}

func (f *Frame) Columns() []string {
	names := make([]string, len(f.columns))
	for j, c := range f.columns {
		names[j] = c.Name
	}
	return names
}

func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

func (f *Frame) Column(name string) (*Column, error) {
	j, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrMissingColumn, name)
	}
	return &f.columns[j], nil
}

func (f *Frame) Row(i int) []string {
	row := make([]string, len(f.columns))
	for j, c := range f.columns {
		row[j] = c.Cells[i]
	}
	return row
}

// NormalizeColumnNames lowercases every column name and replaces spaces with
// underscores.
func (f *Frame) NormalizeColumnNames() (*Frame, error) {
	columns := make([]Column, len(f.columns))
	for j, c := range f.columns {
		c.Name = NormalizeName(c.Name)
		columns[j] = c
	}
	return newFrame(columns, f.rows)
}

func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

func (f *Frame) Drop(name string) (*Frame, error) {
	if !f.HasColumn(name) {
		return nil, fmt.Errorf("%w: '%s'", ErrMissingColumn, name)
	}
	columns := make([]Column, 0, len(f.columns)-1)
	for _, c := range f.columns {
		if c.Name != name {
			columns = append(columns, c)
		}
	}
	return newFrame(columns, f.rows)
}

// Take returns the rows at the given indices, in the given order. Column
// dtypes are re-inferred from the selected cells.
func (f *Frame) Take(indices []int) *Frame {
	columns := make([]Column, len(f.columns))
	for j, c := range f.columns {
		cells := make([]string, len(indices))
		for i, idx := range indices {
			cells[i] = c.Cells[idx]
		}
		columns[j] = Column{Name: c.Name, DType: inferDType(cells), Cells: cells}
	}
	frame, _ := newFrame(columns, len(indices))
	return frame
}

// Features builds a dense matrix from the named numeric columns, in order.
func (f *Frame) Features(names []string) (*mat.Dense, error) {
	if f.rows == 0 {
		return nil, ErrEmptyDataset
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no feature columns selected")
	}

	data := make([]float64, f.rows*len(names))
	for j, name := range names {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		for i, cell := range col.Cells {
			v, err := numericCell(cell, col.DType)
			if err != nil {
				return nil, fmt.Errorf("column '%s' row %d: %w", name, i+1, err)
			}
			data[i*len(names)+j] = v
		}
	}
	return mat.NewDense(f.rows, len(names), data), nil
}

// Labels parses the named column as integer class labels.
func (f *Frame) Labels(name string) ([]int, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(col.Cells))
	for i, cell := range col.Cells {
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil || v != math.Trunc(v) {
			return nil, fmt.Errorf("label column '%s' row %d: '%s' is not an integer class label", name, i+1, cell)
		}
		labels[i] = int(v)
	}
	return labels, nil
}

func numericCell(cell string, dtype DType) (float64, error) {
	switch dtype {
	case Int64, Float64:
		if strings.TrimSpace(cell) == "" {
			return 0, fmt.Errorf("missing value")
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(v) {
			return 0, fmt.Errorf("missing value")
		}
		return v, nil
	case Bool:
		if strings.EqualFold(strings.TrimSpace(cell), "true") {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("value '%s' is not numeric", cell)
	}
}

func inferDType(cells []string) DType {
	if len(cells) == 0 {
		return Object
	}

	isInt, isFloat, isBool := true, true, true
	hasEmpty := false
	for _, cell := range cells {
		s := strings.TrimSpace(cell)
		if s == "" {
			hasEmpty = true
			isBool = false
			continue
		}
		if isInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				isFloat = false
			}
		}
		if isBool && !isBoolLiteral(s) {
			isBool = false
		}
		if !isInt && !isFloat && !isBool {
			return Object
		}
	}

	switch {
	case isInt && !hasEmpty:
		return Int64
	case isInt || isFloat:
		return Float64
	case isBool:
		return Bool
	default:
		return Object
	}
}

func isBoolLiteral(s string) bool {
	switch s {
	case "True", "False", "true", "false", "TRUE", "FALSE":
		return true
	}
	return false
}
