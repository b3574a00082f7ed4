package estimator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

type Param struct {
	Name  string
	Value any
}

// Params is an ordered list of hyperparameter assignments.
type Params []Param

func (p Params) Get(name string) (any, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}
	return nil, false
}

func (p Params) String() string {
	parts := make([]string, len(p))
	for i, param := range p {
		parts[i] = param.Name + "=" + FormatValue(param.Value)
	}
	return strings.Join(parts, ", ")
}

// Map returns the parameters keyed by name, for JSON columns and API output.
func (p Params) Map() map[string]any {
	m := make(map[string]any, len(p))
	for _, param := range p {
		m[param.Name] = param.Value
	}
	return m
}

// Describe formats an estimator the way it appears in the leaderboard,
// e.g. LogisticRegression(C=1.0, max_iter=200).
func Describe(family Family, params Params) string {
	return family.TypeName() + "(" + params.String() + ")"
}

func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		return "'" + x + "'"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case float32:
		return formatFloat(float64(x))
	case float64:
		return formatFloat(x)
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !math.IsInf(f, 0) && !math.IsNaN(f) && !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

// paramReader hands out typed parameter values and remembers which names
// were consumed so unrecognised names can be reported.
type paramReader struct {
	family Family
	params Params
	used   map[string]bool
	err    error
}

func newParamReader(family Family, params Params) *paramReader {
	return &paramReader{family: family, params: params, used: make(map[string]bool, len(params))}
}

func (r *paramReader) lookup(name string) (any, bool) {
	r.used[name] = true
	v, ok := r.params.Get(name)
	if ok && v == nil {
		return nil, false
	}
	return v, ok
}

func (r *paramReader) fail(name string, value any, reason string) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s %s=%v: %s", ErrInvalidParam, r.family.TypeName(), name, value, reason)
	}
}

func (r *paramReader) float(name string, def float64) float64 {
	v, ok := r.lookup(name)
	if !ok {
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		r.fail(name, v, "expected a number")
		return def
	}
	return f
}

func (r *paramReader) positiveFloat(name string, def float64) float64 {
	f := r.float(name, def)
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		r.fail(name, f, "must be a positive number")
	}
	return f
}

func (r *paramReader) int(name string, def int) int {
	v, ok := r.lookup(name)
	if !ok {
		return def
	}
	if f, isFloat := v.(float64); isFloat && f != math.Trunc(f) {
		r.fail(name, v, "expected an integer")
		return def
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		r.fail(name, v, "expected an integer")
		return def
	}
	return i
}

func (r *paramReader) minInt(name string, def, min int) int {
	i := r.int(name, def)
	if i < min {
		r.fail(name, i, fmt.Sprintf("must be at least %d", min))
	}
	return i
}

func (r *paramReader) bool(name string, def bool) bool {
	v, ok := r.lookup(name)
	if !ok {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		r.fail(name, v, "expected a boolean")
		return def
	}
	return b
}

func (r *paramReader) choice(name, def string, allowed ...string) string {
	v, ok := r.lookup(name)
	if !ok {
		return def
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		r.fail(name, v, "expected a string")
		return def
	}
	for _, a := range allowed {
		if s == a {
			return s
		}
	}
	r.fail(name, v, "must be one of "+strings.Join(allowed, ", "))
	return def
}

// raw returns the value untouched for parameters that accept several types.
func (r *paramReader) raw(name string) (any, bool) {
	return r.lookup(name)
}

func (r *paramReader) finish() error {
	if r.err != nil {
		return r.err
	}
	for _, p := range r.params {
		if !r.used[p.Name] {
			return fmt.Errorf("%w: %s has no parameter '%s'", ErrUnknownParam, r.family.TypeName(), p.Name)
		}
	}
	return nil
}
