package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type ValueKind string

const (
	NumberValue ValueKind = "num"
	BoolValue   ValueKind = "bool"
	StringValue ValueKind = "str"
)

// Value is a cell or schema literal reduced to a comparable canonical form.
// Numbers compare by value, so 1 and 1.0 are the same value.
type Value struct {
	Kind ValueKind
	Text string
}

func (v Value) Key() string {
	return string(v.Kind) + ":" + v.Text
}

func (v Value) String() string {
	if v.Kind == StringValue {
		return strconv.Quote(v.Text)
	}
	return v.Text
}

func CellValue(cell string, dtype DType) Value {
	s := strings.TrimSpace(cell)
	switch dtype {
	case Int64, Float64:
		if s == "" {
			return Value{Kind: NumberValue, Text: "NaN"}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{Kind: StringValue, Text: cell}
		}
		return numberValue(f)
	case Bool:
		return Value{Kind: BoolValue, Text: strings.ToLower(s)}
	default:
		return Value{Kind: StringValue, Text: cell}
	}
}

// LiteralValue canonicalises a literal decoded from a YAML document.
func LiteralValue(lit any) (Value, error) {
	switch v := lit.(type) {
	case nil:
		return Value{Kind: NumberValue, Text: "NaN"}, nil
	case int:
		return numberValue(float64(v)), nil
	case int64:
		return numberValue(float64(v)), nil
	case uint64:
		return numberValue(float64(v)), nil
	case float64:
		return numberValue(v), nil
	case bool:
		return Value{Kind: BoolValue, Text: strconv.FormatBool(v)}, nil
	case string:
		return Value{Kind: StringValue, Text: v}, nil
	default:
		return Value{}, fmt.Errorf("unsupported literal %v of type %T", lit, lit)
	}
}

func numberValue(f float64) Value {
	if math.IsNaN(f) {
		return Value{Kind: NumberValue, Text: "NaN"}
	}
	return Value{Kind: NumberValue, Text: strconv.FormatFloat(f, 'g', -1, 64)}
}
