// Package preprocess provides plain feature transforms satisfying the step
// contracts. These steps are domain-unaware: wrapped in a per-domain
// selector they standardize each domain against its own statistics, wrapped
// in a shared selector they use pooled statistics.
package preprocess

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/arthurdrk/skada/pkg/step"
	"github.com/arthurdrk/skada/pkg/tensor"
)

// StandardScaler standardizes each feature to zero mean and unit variance
// using population statistics. Constant features keep a unit scale so they
// pass through centered instead of dividing by zero.
type StandardScaler struct {
	// WithMean and WithStd switch centering and scaling independently.
	WithMean bool
	WithStd  bool

	mean  []float64
	scale []float64
}

// NewStandardScaler returns a scaler that both centers and scales.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{WithMean: true, WithStd: true}
}

// Fit learns per-feature mean and scale. Labels are ignored.
func (s *StandardScaler) Fit(X *tensor.Matrix, _ []float64) error {
	if X.Rank() != 2 {
		return fmt.Errorf("standard scaler requires rank-2 input, got rank %d", X.Rank())
	}
	rows, cols := X.Rows(), X.Cols()
	s.mean = make([]float64, cols)
	s.scale = make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			col[i] = X.At(i, j)
		}
		s.mean[j] = stat.Mean(col, nil)
		s.scale[j] = stat.PopStdDev(col, nil)
		if s.scale[j] == 0 {
			s.scale[j] = 1
		}
	}
	return nil
}

// Transform standardizes every sample with the fitted statistics.
func (s *StandardScaler) Transform(X *tensor.Matrix) (*tensor.Matrix, error) {
	if s.mean == nil {
		return nil, step.ErrNotFitted
	}
	if X.Rank() != 2 || X.Cols() != len(s.mean) {
		return nil, fmt.Errorf("standard scaler fitted on %d features, got shape %v", len(s.mean), X.Shape())
	}
	out := X.Clone()
	for i := 0; i < out.Rows(); i++ {
		for j := 0; j < out.Cols(); j++ {
			v := out.At(i, j)
			if s.WithMean {
				v -= s.mean[j]
			}
			if s.WithStd {
				v /= s.scale[j]
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// Clone returns a fresh unfitted scaler with the same switches.
func (s *StandardScaler) Clone() any {
	return &StandardScaler{WithMean: s.WithMean, WithStd: s.WithStd}
}

// GetParams exposes the hyperparameters.
func (s *StandardScaler) GetParams() map[string]any {
	return map[string]any{"with_mean": s.WithMean, "with_std": s.WithStd}
}

// SetParams updates hyperparameters, rejecting unknown names.
func (s *StandardScaler) SetParams(params map[string]any) error {
	for name, value := range params {
		flag, ok := value.(bool)
		if !ok {
			return fmt.Errorf("parameter %q wants a bool, got %T", name, value)
		}
		switch name {
		case "with_mean":
			s.WithMean = flag
		case "with_std":
			s.WithStd = flag
		default:
			return fmt.Errorf("standard scaler has no parameter %q", name)
		}
	}
	return nil
}
