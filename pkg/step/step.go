// Package step defines the contracts a pipeline step can satisfy and the
// side-channel context threaded between steps.
//
// Steps come in three closed variants, classified once at assembly time:
//
//   - Transformer: a plain feature transform, unaware of domains.
//   - Estimator: a predictive terminal step (Predict, optionally Score).
//   - Adapter: a domain-aware transform consuming (X, y, sample_domain) and
//     emitting per-sample extra parameters for downstream steps.
//
// Plain steps never see domain tags or masked labels; the routing executor
// filters both away before calling them. Adapters receive the full picture.
package step

import (
	"errors"
	"fmt"

	"github.com/arthurdrk/skada/pkg/tensor"
)

var (
	// ErrUnknownCapability reports a step that satisfies none of the closed
	// variants and therefore cannot participate in a pipeline.
	ErrUnknownCapability = errors.New("step exposes no recognized capability")

	// ErrNotFitted reports use of a step before it was fitted.
	ErrNotFitted = errors.New("step is not fitted")
)

// Fitter is the minimal training capability every step carries.
type Fitter interface {
	Fit(X *tensor.Matrix, y []float64) error
}

// Transformer is a plain, domain-unaware feature transform.
type Transformer interface {
	Transform(X *tensor.Matrix) (*tensor.Matrix, error)
}

// FitTransformer is an optional fast path combining Fit and Transform in one
// call. Plain transforms may implement it; the executor prefers it when
// present.
type FitTransformer interface {
	FitTransform(X *tensor.Matrix, y []float64) (*tensor.Matrix, error)
}

// Predictor is the terminal estimator capability.
type Predictor interface {
	Predict(X *tensor.Matrix) ([]float64, error)
}

// Scorer exposes an estimator's own scoring function.
type Scorer interface {
	Score(X *tensor.Matrix, y []float64) (float64, error)
}

// Adapter is the domain-aware transform capability. FitTransform receives
// the current labels, which may already carry masked entries, and may itself
// mask further entries. The returned Params hold per-sample metadata
// forwarded to downstream steps that declare interest. Adapters must
// preserve sample count and order.
//
// Transform is the inference-time path: it applies the fitted adaptation to
// new samples without labels.
type Adapter interface {
	FitTransform(X *tensor.Matrix, y []float64, sampleDomain []int) (*tensor.Matrix, []float64, Params, error)
	Transform(X *tensor.Matrix, sampleDomain []int) (*tensor.Matrix, error)
}

// Cloner yields a fresh unfitted copy carrying the same hyperparameters.
// Per-domain selectors require it to mint one instance per domain.
type Cloner interface {
	Clone() any
}

// ParamConsumer is implemented by steps that accept extra per-sample
// parameters produced by upstream adapters. Interest is declared explicitly
// by name; the executor hands over only declared parameters, row-filtered
// alongside X and y.
type ParamConsumer interface {
	AcceptedParams() []string
	FitWithParams(X *tensor.Matrix, y []float64, params Params) error
}

// ParamGetter exposes a step's hyperparameters for nested pipeline access.
type ParamGetter interface {
	GetParams() map[string]any
}

// ParamSetter mutates a step's hyperparameters. Implementations reject
// unknown names with an error and apply nothing on failure.
type ParamSetter interface {
	SetParams(params map[string]any) error
}

// Kind is the closed step variant, decided once at assembly time.
type Kind int

const (
	// KindTransformer marks a plain feature transform.
	KindTransformer Kind = iota
	// KindAdapter marks a domain-aware transform.
	KindAdapter
	// KindEstimator marks a predictive terminal step.
	KindEstimator
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindTransformer:
		return "transformer"
	case KindAdapter:
		return "adapter"
	case KindEstimator:
		return "estimator"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// KindOf classifies a step into its closed variant. Adapter capability wins
// over everything else; predictive capability wins over plain transform.
// Steps exposing none of the three are rejected.
func KindOf(s any) (Kind, error) {
	switch s.(type) {
	case Adapter:
		return KindAdapter, nil
	case Predictor:
		return KindEstimator, nil
	case Transformer:
		return KindTransformer, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnknownCapability, s)
	}
}
