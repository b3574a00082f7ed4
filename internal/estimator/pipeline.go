package estimator

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

type ScalerKind string

const (
	NoScaler       ScalerKind = "none"
	StandardScaled ScalerKind = "standard"
)

func ParseScaler(name string) (ScalerKind, error) {
	switch name {
	case "", string(NoScaler):
		return NoScaler, nil
	case string(StandardScaled), "standard_scaler", "StandardScaler":
		return StandardScaled, nil
	default:
		return "", fmt.Errorf("unknown scaler '%s'", name)
	}
}

// Pipeline is an optional scaler followed by a classifier. Each trial
// builds its own pipeline, so pipelines are never shared between goroutines
// while fitting.
type Pipeline struct {
	Family Family
	Params Params
	Scaler *StandardScaler
	Model  Classifier
}

func NewPipeline(scaler ScalerKind, family Family, params Params) (*Pipeline, error) {
	model, err := New(family, params)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{Family: family, Params: params, Model: model}
	if scaler == StandardScaled {
		p.Scaler = &StandardScaler{}
	}
	return p, nil
}

func (p *Pipeline) Fit(X mat.Matrix, y []int) error {
	features := X
	if p.Scaler != nil {
		scaled, err := p.Scaler.FitTransform(X)
		if err != nil {
			return err
		}
		features = scaled
	}
	if err := p.Model.Fit(features, y); err != nil {
		return fmt.Errorf("error fitting %s: %w", p, err)
	}
	return nil
}

func (p *Pipeline) Predict(X mat.Matrix) ([]int, error) {
	features := X
	if p.Scaler != nil {
		scaled, err := p.Scaler.Transform(X)
		if err != nil {
			return nil, err
		}
		features = scaled
	}
	return p.Model.Predict(features)
}

// String formats the classifier step, e.g. SVC(C=1.0, kernel='linear').
func (p *Pipeline) String() string {
	return Describe(p.Family, p.Params)
}
