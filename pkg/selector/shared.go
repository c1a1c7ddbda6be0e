package selector

import (
	"fmt"

	"github.com/arthurdrk/skada/pkg/step"
	"github.com/arthurdrk/skada/pkg/tensor"
)

// Shared fits one instance of the wrapped step on all domains concatenated.
// It is the default granularity: the step is expected to generalize across
// domains, so domain identifiers play no role in fitting.
type Shared struct {
	base any
	kind step.Kind
}

// NewShared wraps a step in shared granularity. The step is classified into
// its closed variant here, once, and rejected if it exposes no recognized
// capability.
func NewShared(base any) (Selector, error) {
	kind, err := step.KindOf(base)
	if err != nil {
		return nil, err
	}
	return &Shared{base: base, kind: kind}, nil
}

// Base returns the wrapped step.
func (s *Shared) Base() any { return s.base }

// Kind returns the wrapped step's closed variant.
func (s *Shared) Kind() step.Kind { return s.kind }

// Prefix returns "" — shared is the default granularity and leaves derived
// names unprefixed.
func (s *Shared) Prefix() string { return "" }

// Fit trains the single instance on the full data.
func (s *Shared) Fit(X *tensor.Matrix, y []float64, ctx *step.Context) error {
	return fitOne(s.base, X, y, ctx)
}

// FitTransform trains and transforms in one pass on the full data.
func (s *Shared) FitTransform(X *tensor.Matrix, y []float64, ctx *step.Context) (*tensor.Matrix, []float64, step.Params, error) {
	switch t := s.base.(type) {
	case step.Adapter:
		return t.FitTransform(X, y, ctx.SampleDomain)
	case step.FitTransformer:
		out, err := t.FitTransform(X, y)
		return out, y, nil, err
	case step.Transformer:
		if err := fitOne(s.base, X, y, ctx); err != nil {
			return nil, nil, nil, err
		}
		out, err := t.Transform(X)
		return out, y, nil, err
	default:
		return nil, nil, nil, fmt.Errorf("%w: %T", ErrNotTransformer, s.base)
	}
}

// Transform applies the fitted instance to all samples.
func (s *Shared) Transform(X *tensor.Matrix, ctx *step.Context) (*tensor.Matrix, error) {
	switch t := s.base.(type) {
	case step.Adapter:
		return t.Transform(X, ctx.SampleDomain)
	case step.Transformer:
		return t.Transform(X)
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotTransformer, s.base)
	}
}

// Predict applies the fitted estimator to all samples.
func (s *Shared) Predict(X *tensor.Matrix, _ *step.Context) ([]float64, error) {
	p, ok := s.base.(step.Predictor)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotPredictor, s.base)
	}
	return p.Predict(X)
}

// Score delegates to the estimator's own scoring function.
func (s *Shared) Score(X *tensor.Matrix, y []float64, _ *step.Context) (float64, error) {
	sc, ok := s.base.(step.Scorer)
	if !ok {
		return 0, fmt.Errorf("%w: %T", ErrScoreUnsupported, s.base)
	}
	return sc.Score(X, y)
}
