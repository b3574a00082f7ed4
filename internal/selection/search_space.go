package selection

import (
	"errors"
	"fmt"
	"phishdetector/internal/estimator"
	"sort"

	"gopkg.in/yaml.v2"
)

var ErrEmptySearchSpace = errors.New("search space has no trial groups")

type Axis struct {
	Name   string
	Values []any
}

// Group is one estimator family with its hyperparameter grid. Axes are
// sorted by name.
type Group struct {
	Scaler estimator.ScalerKind
	Family estimator.Family
	Axes   []Axis
}

// Combinations expands the grid in axis order with the last axis varying
// fastest. A group without axes yields a single default combination.
func (g Group) Combinations() []estimator.Params {
	combos := []estimator.Params{{}}
	for _, axis := range g.Axes {
		next := make([]estimator.Params, 0, len(combos)*len(axis.Values))
		for _, prefix := range combos {
			for _, v := range axis.Values {
				p := make(estimator.Params, len(prefix), len(prefix)+1)
				copy(p, prefix)
				next = append(next, append(p, estimator.Param{Name: axis.Name, Value: v}))
			}
		}
		combos = next
	}
	return combos
}

type SearchSpace []Group

type groupSpec struct {
	Scaler    string        `yaml:"scaler"`
	Estimator string        `yaml:"estimator"`
	Params    yaml.MapSlice `yaml:"params"`
}

func ParseSearchSpace(data []byte) (SearchSpace, error) {
	var specs []groupSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("invalid search space: %w", err)
	}
	if len(specs) == 0 {
		return nil, ErrEmptySearchSpace
	}

	space := make(SearchSpace, 0, len(specs))
	for i, spec := range specs {
		family, err := estimator.ParseFamily(spec.Estimator)
		if err != nil {
			return nil, fmt.Errorf("search space group %d: %w", i, err)
		}
		scaler, err := estimator.ParseScaler(spec.Scaler)
		if err != nil {
			return nil, fmt.Errorf("search space group %d: %w", i, err)
		}

		group := Group{Scaler: scaler, Family: family}
		for _, item := range spec.Params {
			name, ok := item.Key.(string)
			if !ok {
				return nil, fmt.Errorf("search space group %d: parameter name %v is not a string", i, item.Key)
			}
			values, ok := item.Value.([]interface{})
			if !ok {
				values = []any{item.Value}
			}
			if len(values) == 0 {
				return nil, fmt.Errorf("search space group %d: parameter '%s' has no candidate values", i, name)
			}
			group.Axes = append(group.Axes, Axis{Name: name, Values: values})
		}
		sort.SliceStable(group.Axes, func(a, b int) bool { return group.Axes[a].Name < group.Axes[b].Name })

		space = append(space, group)
	}

	return space, nil
}

// Trial is one hyperparameter combination of one group, numbered in
// evaluation order.
type Trial struct {
	Index  int
	Group  int
	Scaler estimator.ScalerKind
	Family estimator.Family
	Params estimator.Params
}

func (t Trial) String() string {
	return estimator.Describe(t.Family, t.Params)
}

// Trials enumerates every combination of every group in evaluation order.
func (s SearchSpace) Trials() []Trial {
	var trials []Trial
	for g, group := range s {
		for _, params := range group.Combinations() {
			trials = append(trials, Trial{
				Index:  len(trials),
				Group:  g,
				Scaler: group.Scaler,
				Family: group.Family,
				Params: params,
			})
		}
	}
	return trials
}

// Families lists the distinct families in first-seen order.
func (s SearchSpace) Families() []estimator.Family {
	seen := make(map[estimator.Family]bool)
	var out []estimator.Family
	for _, g := range s {
		if !seen[g.Family] {
			seen[g.Family] = true
			out = append(out, g.Family)
		}
	}
	return out
}
