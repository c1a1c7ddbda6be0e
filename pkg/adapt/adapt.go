// Package adapt provides reference adapters: domain-aware steps that
// consume (X, y, sample_domain) and may rewrite features, labels, or the
// extra-parameter side channel. They demonstrate the adapter contract with
// routing-observable behavior only; published adaptation algorithms live
// outside this module.
package adapt

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/arthurdrk/skada/pkg/domains"
	"github.com/arthurdrk/skada/pkg/step"
	"github.com/arthurdrk/skada/pkg/tensor"
)

// MeanAlign recenters target-domain samples onto the source-domain mean.
// Source samples pass through unchanged; target samples are shifted by the
// difference of the per-feature source and target means. With either side
// empty the shift is zero and the adapter is an identity.
type MeanAlign struct {
	shift []float64
}

// NewMeanAlign returns an unfitted mean alignment.
func NewMeanAlign() *MeanAlign { return &MeanAlign{} }

// FitTransform learns the shift from the tagged samples and returns the
// aligned features. Labels pass through untouched, masked or not.
func (a *MeanAlign) FitTransform(X *tensor.Matrix, y []float64, sampleDomain []int) (*tensor.Matrix, []float64, step.Params, error) {
	if err := domains.Check(sampleDomain, X.Rows()); err != nil {
		return nil, nil, nil, err
	}
	size := X.RowSize()
	sourceMean := make([]float64, size)
	targetMean := make([]float64, size)
	nSource, nTarget := 0, 0
	for i := 0; i < X.Rows(); i++ {
		if domains.IsSource(sampleDomain[i]) {
			floats.Add(sourceMean, X.Row(i))
			nSource++
		} else {
			floats.Add(targetMean, X.Row(i))
			nTarget++
		}
	}
	a.shift = make([]float64, size)
	if nSource > 0 && nTarget > 0 {
		floats.Scale(1/float64(nSource), sourceMean)
		floats.Scale(1/float64(nTarget), targetMean)
		floats.SubTo(a.shift, sourceMean, targetMean)
	}
	out, err := a.Transform(X, sampleDomain)
	if err != nil {
		return nil, nil, nil, err
	}
	return out, y, nil, nil
}

// Transform shifts target-tagged samples by the fitted alignment.
func (a *MeanAlign) Transform(X *tensor.Matrix, sampleDomain []int) (*tensor.Matrix, error) {
	if a.shift == nil {
		return nil, step.ErrNotFitted
	}
	if X.RowSize() != len(a.shift) {
		return nil, fmt.Errorf("mean align fitted on %d features, got %d", len(a.shift), X.RowSize())
	}
	if err := domains.Check(sampleDomain, X.Rows()); err != nil {
		return nil, err
	}
	out := X.Clone()
	for i := 0; i < out.Rows(); i++ {
		if domains.IsTarget(sampleDomain[i]) {
			floats.Add(out.Row(i), a.shift)
		}
	}
	return out, nil
}

// Clone returns a fresh unfitted alignment.
func (a *MeanAlign) Clone() any { return &MeanAlign{} }

// BalancedWeighter emits a "sample_weight" extra parameter giving both
// sides of the data equal total mass: each sample weighs n/(2*n_side).
// Features and labels pass through unchanged. With a single side present
// every weight is 1.
type BalancedWeighter struct{}

// NewBalancedWeighter returns the weighting adapter.
func NewBalancedWeighter() *BalancedWeighter { return &BalancedWeighter{} }

// FitTransform computes the per-sample weights for the tagged samples.
func (a *BalancedWeighter) FitTransform(X *tensor.Matrix, y []float64, sampleDomain []int) (*tensor.Matrix, []float64, step.Params, error) {
	if err := domains.Check(sampleDomain, X.Rows()); err != nil {
		return nil, nil, nil, err
	}
	n := X.Rows()
	nSource := 0
	for _, tag := range sampleDomain {
		if domains.IsSource(tag) {
			nSource++
		}
	}
	nTarget := n - nSource
	weights := make([]float64, n)
	for i, tag := range sampleDomain {
		switch {
		case nSource == 0 || nTarget == 0:
			weights[i] = 1
		case domains.IsSource(tag):
			weights[i] = float64(n) / float64(2*nSource)
		default:
			weights[i] = float64(n) / float64(2*nTarget)
		}
	}
	return X, y, step.Params{"sample_weight": weights}, nil
}

// Transform is the identity: weighting has no inference-time effect.
func (a *BalancedWeighter) Transform(X *tensor.Matrix, _ []int) (*tensor.Matrix, error) {
	return X, nil
}

// Clone returns a fresh weighting adapter.
func (a *BalancedWeighter) Clone() any { return &BalancedWeighter{} }

// LabelHider masks the labels of every target-tagged sample, simulating
// the usual unsupervised-target setting for chains fitted on fully labeled
// data. Already-masked entries stay masked.
type LabelHider struct{}

// NewLabelHider returns the masking adapter.
func NewLabelHider() *LabelHider { return &LabelHider{} }

// FitTransform returns the labels with target entries masked.
func (a *LabelHider) FitTransform(X *tensor.Matrix, y []float64, sampleDomain []int) (*tensor.Matrix, []float64, step.Params, error) {
	if err := domains.Check(sampleDomain, X.Rows()); err != nil {
		return nil, nil, nil, err
	}
	if y == nil {
		return X, nil, nil, nil
	}
	masked := make([]float64, len(y))
	copy(masked, y)
	for i, tag := range sampleDomain {
		if domains.IsTarget(tag) {
			masked[i] = domains.Masked()
		}
	}
	return X, masked, nil, nil
}

// Transform is the identity: masking is a training-time concept.
func (a *LabelHider) Transform(X *tensor.Matrix, _ []int) (*tensor.Matrix, error) {
	return X, nil
}

// Clone returns a fresh masking adapter.
func (a *LabelHider) Clone() any { return &LabelHider{} }
