// Package selector decides fitting granularity for a single pipeline step:
// one instance fitted on all domains together (Shared), or one independent
// instance per domain identifier (PerDomain).
//
// A selector wraps exactly one underlying step and exposes the unified
// surface the routing executor drives. The executor owns masking and label
// filtering; selectors own only the shared-versus-per-domain dispatch.
package selector

import (
	"errors"
	"fmt"

	"github.com/arthurdrk/skada/pkg/step"
	"github.com/arthurdrk/skada/pkg/tensor"
)

var (
	// ErrUnknownSelector reports a selector tag that names no known selector.
	ErrUnknownSelector = errors.New("unknown selector tag")

	// ErrInvalidSpec reports a selector specification of an uninterpretable
	// type.
	ErrInvalidSpec = errors.New("uninterpretable selector specification")

	// ErrNotSelector reports a selector factory whose result is not a
	// selector.
	ErrNotSelector = errors.New("selector factory returned a non-selector")

	// ErrNotCloneable reports a per-domain wrapped step that cannot mint
	// fresh instances.
	ErrNotCloneable = errors.New("per-domain step does not implement step.Cloner")

	// ErrNotTransformer reports a Transform call on a step without transform
	// capability.
	ErrNotTransformer = errors.New("step does not transform")

	// ErrNotPredictor reports a Predict or Score call on a non-predictive
	// step.
	ErrNotPredictor = errors.New("step does not predict")

	// ErrScoreUnsupported reports a Score call on an estimator without its
	// own scoring function.
	ErrScoreUnsupported = errors.New("estimator exposes no scoring function")

	// ErrUnknownDomain reports per-domain dispatch of a sample whose domain
	// identifier was never seen during fit.
	ErrUnknownDomain = errors.New("domain identifier was not seen during fit")
)

// UnknownDomainError carries the offending identifier of a failed per-domain
// dispatch. It matches ErrUnknownDomain under errors.Is.
type UnknownDomainError struct {
	Domain int
}

// Error implements the error interface.
func (e *UnknownDomainError) Error() string {
	return fmt.Sprintf("domain identifier %d was not seen during fit", e.Domain)
}

// Is matches the ErrUnknownDomain sentinel.
func (e *UnknownDomainError) Is(target error) bool { return target == ErrUnknownDomain }

// Selector is the wrapped-step surface the routing executor drives. All
// methods receive the metadata side channel; implementations decide how much
// of it the underlying step sees.
type Selector interface {
	// Fit trains the underlying instance(s) on the given samples.
	Fit(X *tensor.Matrix, y []float64, ctx *step.Context) error

	// FitTransform trains and transforms in one pass. For adapters the
	// returned labels and params carry the adaptation output; for plain
	// transforms the labels pass through and params are nil.
	FitTransform(X *tensor.Matrix, y []float64, ctx *step.Context) (*tensor.Matrix, []float64, step.Params, error)

	// Transform applies the fitted transform.
	Transform(X *tensor.Matrix, ctx *step.Context) (*tensor.Matrix, error)

	// Predict applies the fitted estimator.
	Predict(X *tensor.Matrix, ctx *step.Context) ([]float64, error)

	// Score delegates to the fitted estimator's own scoring function.
	Score(X *tensor.Matrix, y []float64, ctx *step.Context) (float64, error)

	// Base returns the wrapped prototype step.
	Base() any

	// Kind returns the closed variant of the wrapped step.
	Kind() step.Kind

	// Prefix returns the selector's name prefix for derived step names, or
	// "" when the selector is the default granularity.
	Prefix() string
}

// fitOne trains a single step instance, routing declared extra parameters to
// steps that consume them. Adapters are fitted through their domain-aware
// path with outputs discarded.
func fitOne(instance any, X *tensor.Matrix, y []float64, ctx *step.Context) error {
	switch s := instance.(type) {
	case step.Adapter:
		_, _, _, err := s.FitTransform(X, y, ctx.SampleDomain)
		return err
	case step.ParamConsumer:
		return s.FitWithParams(X, y, ctx.Params.Select(s.AcceptedParams()))
	case step.Fitter:
		return s.Fit(X, y)
	default:
		return fmt.Errorf("%w: %T", step.ErrUnknownCapability, instance)
	}
}
