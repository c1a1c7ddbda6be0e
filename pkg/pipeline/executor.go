package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/arthurdrk/skada/pkg/domains"
	"github.com/arthurdrk/skada/pkg/selector"
	"github.com/arthurdrk/skada/pkg/step"
	"github.com/arthurdrk/skada/pkg/tensor"
)

// Fit trains the chain in order. Adapter steps receive the full data with
// domain tags and may rewrite labels and emit extra parameters; plain steps
// are fitted on the label-filtered rows only, so masked labels never reach
// them. A nil sampleDomain assumes a single default source domain. Optional
// extra parameter maps seed the side channel.
func (p *Pipeline) Fit(X *tensor.Matrix, y []float64, sampleDomain []int, extra ...step.Params) error {
	ctx, y, err := p.trainingContext(X, y, sampleDomain, extra)
	if err != nil {
		return err
	}
	_, err = p.fitChain(X, y, ctx, false)
	return err
}

// FitTransform trains the chain and returns the transformed samples. The
// terminal step must be transform-capable.
func (p *Pipeline) FitTransform(X *tensor.Matrix, y []float64, sampleDomain []int, extra ...step.Params) (*tensor.Matrix, error) {
	ctx, y, err := p.trainingContext(X, y, sampleDomain, extra)
	if err != nil {
		return nil, err
	}
	return p.fitChain(X, y, ctx, true)
}

// Transform applies every fitted step's transform to all samples. Unlike
// Predict, source-tagged samples are allowed: transforming source data
// through a fitted chain is a training-side operation.
func (p *Pipeline) Transform(X *tensor.Matrix, sampleDomain []int, extra ...step.Params) (*tensor.Matrix, error) {
	sd, err := domains.Infer(sampleDomain, X.Rows())
	if err != nil {
		return nil, err
	}
	ctx := &step.Context{SampleDomain: sd, Params: mergeExtras(extra)}
	for _, ns := range p.steps {
		if X, err = ns.Selector.Transform(X, ctx); err != nil {
			return nil, fmt.Errorf("step %q: %w", ns.Name, err)
		}
	}
	return X, nil
}

// Predict routes samples through every non-terminal transform and returns
// the terminal estimator's predictions in input row order. A nil
// sampleDomain is inferred as a single default target domain; explicit tags
// must be all-target.
func (p *Pipeline) Predict(X *tensor.Matrix, sampleDomain []int, extra ...step.Params) ([]float64, error) {
	X, ctx, err := p.inferenceChain(X, sampleDomain, extra)
	if err != nil {
		return nil, err
	}
	last := p.steps[len(p.steps)-1]
	out, err := last.Selector.Predict(X, ctx)
	if err != nil {
		return nil, fmt.Errorf("step %q: %w", last.Name, err)
	}
	return out, nil
}

// Score routes samples like Predict and delegates to the terminal
// estimator's own scoring function against the true labels.
func (p *Pipeline) Score(X *tensor.Matrix, y []float64, sampleDomain []int, extra ...step.Params) (float64, error) {
	if y == nil {
		return 0, ErrMissingLabels
	}
	if len(y) != X.Rows() {
		return 0, fmt.Errorf("%w: %d labels for %d samples", ErrLabelLength, len(y), X.Rows())
	}
	X, ctx, err := p.inferenceChain(X, sampleDomain, extra)
	if err != nil {
		return 0, err
	}
	last := p.steps[len(p.steps)-1]
	score, err := last.Selector.Score(X, y, ctx)
	if err != nil {
		return 0, fmt.Errorf("step %q: %w", last.Name, err)
	}
	return score, nil
}

// trainingContext validates training inputs and builds the initial side
// channel.
func (p *Pipeline) trainingContext(X *tensor.Matrix, y []float64, sampleDomain []int, extra []step.Params) (*step.Context, []float64, error) {
	if y != nil && len(y) != X.Rows() {
		return nil, nil, fmt.Errorf("%w: %d labels for %d samples", ErrLabelLength, len(y), X.Rows())
	}
	sd, err := domains.InferTraining(sampleDomain, X.Rows())
	if err != nil {
		return nil, nil, err
	}
	return &step.Context{SampleDomain: sd, Params: mergeExtras(extra)}, y, nil
}

// fitChain drives the training pass. Adapters consume the full data and
// update the side channel; plain transforms are fitted on label-filtered
// rows and then transform the full data so downstream steps keep every
// sample; a terminal estimator is fitted on filtered rows only.
func (p *Pipeline) fitChain(X *tensor.Matrix, y []float64, ctx *step.Context, transformLast bool) (*tensor.Matrix, error) {
	for i, ns := range p.steps {
		last := i == len(p.steps)-1
		sel := ns.Selector

		p.logger.Debug("fitting step",
			zap.String("step", ns.Name),
			zap.Stringer("kind", sel.Kind()),
			zap.Int("samples", X.Rows()))

		switch sel.Kind() {
		case step.KindAdapter:
			outX, outY, params, err := sel.FitTransform(X, y, ctx)
			if err != nil {
				return nil, fmt.Errorf("step %q: %w", ns.Name, err)
			}
			X, y = outX, outY
			if len(params) > 0 {
				ctx = ctx.WithParams(params)
			}

		case step.KindEstimator:
			if transformLast {
				return nil, fmt.Errorf("step %q: %w", ns.Name, ErrNotTransformable)
			}
			idx := domains.UnmaskedIndices(y, X.Rows())
			if err := sel.Fit(X.Take(idx), domains.TakeLabels(y, idx), ctx.Take(idx)); err != nil {
				return nil, fmt.Errorf("step %q: %w", ns.Name, err)
			}

		default: // plain transform
			var err error
			X, err = p.fitTransformStep(sel, X, y, ctx, !last || transformLast)
			if err != nil {
				return nil, fmt.Errorf("step %q: %w", ns.Name, err)
			}
		}
	}
	return X, nil
}

// fitTransformStep fits one plain transform on label-filtered rows and, when
// the chain continues, transforms the full data. When no labels are masked
// the single-pass fit-transform path is used.
func (p *Pipeline) fitTransformStep(sel selector.Selector, X *tensor.Matrix, y []float64, ctx *step.Context, transform bool) (*tensor.Matrix, error) {
	idx := domains.UnmaskedIndices(y, X.Rows())
	if len(idx) == X.Rows() && transform {
		outX, _, _, err := sel.FitTransform(X, y, ctx)
		return outX, err
	}
	if err := sel.Fit(X.Take(idx), domains.TakeLabels(y, idx), ctx.Take(idx)); err != nil {
		return nil, err
	}
	if !transform {
		return X, nil
	}
	return sel.Transform(X, ctx)
}

// inferenceChain validates inference inputs and applies every non-terminal
// transform.
func (p *Pipeline) inferenceChain(X *tensor.Matrix, sampleDomain []int, extra []step.Params) (*tensor.Matrix, *step.Context, error) {
	sd, err := domains.Infer(sampleDomain, X.Rows())
	if err != nil {
		return nil, nil, err
	}
	if err := domains.CheckTargetOnly(sd); err != nil {
		return nil, nil, err
	}
	ctx := &step.Context{SampleDomain: sd, Params: mergeExtras(extra)}
	for _, ns := range p.steps[:len(p.steps)-1] {
		if X, err = ns.Selector.Transform(X, ctx); err != nil {
			return nil, nil, fmt.Errorf("step %q: %w", ns.Name, err)
		}
	}
	return X, ctx, nil
}

func mergeExtras(extra []step.Params) step.Params {
	var params step.Params
	for _, e := range extra {
		params = params.Merge(e)
	}
	return params
}
