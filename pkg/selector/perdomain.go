package selector

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/arthurdrk/skada/pkg/domains"
	"github.com/arthurdrk/skada/pkg/step"
	"github.com/arthurdrk/skada/pkg/tensor"
)

// PerDomain fits one independent clone of the wrapped step per domain
// identifier. Clones are minted lazily at fit time, one per first-seen
// identifier, and are never merged or shared across domains. Transform and
// predict dispatch each sample to the clone keyed by the sample's own
// domain identifier and reassemble outputs in the original row order.
type PerDomain struct {
	base   any
	kind   step.Kind
	fitted map[int]any
}

// NewPerDomain wraps a step in per-domain granularity. The step must carry
// a clone capability so each domain receives a fresh instance.
func NewPerDomain(base any) (Selector, error) {
	kind, err := step.KindOf(base)
	if err != nil {
		return nil, err
	}
	if _, ok := base.(step.Cloner); !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotCloneable, base)
	}
	return &PerDomain{base: base, kind: kind}, nil
}

// Base returns the prototype step. Fitted state lives only in the
// per-domain clones.
func (s *PerDomain) Base() any { return s.base }

// Kind returns the wrapped step's closed variant.
func (s *PerDomain) Kind() step.Kind { return s.kind }

// Prefix returns "perdomain", prepended to derived step names.
func (s *PerDomain) Prefix() string { return "perdomain" }

// Fit partitions samples by domain identifier and fits one fresh clone per
// group. Groups are independent, so they are fitted concurrently; results
// are keyed by identifier afterwards.
func (s *PerDomain) Fit(X *tensor.Matrix, y []float64, ctx *step.Context) error {
	ids, rows := domains.Groups(ctx.SampleDomain)
	clones := make([]any, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		idx := rows[id]
		clone := s.base.(step.Cloner).Clone()
		clones[i] = clone
		g.Go(func() error {
			return fitOne(clone, X.Take(idx), domains.TakeLabels(y, idx), ctx.Take(idx))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.fitted = make(map[int]any, len(ids))
	for i, id := range ids {
		s.fitted[id] = clones[i]
	}
	return nil
}

// FitTransform fits per-domain clones and transforms each group with its
// own clone, reassembling outputs by original row index. Adapter groups
// must emit identical extra-parameter key sets; anything else would leave
// some samples without a value.
func (s *PerDomain) FitTransform(X *tensor.Matrix, y []float64, ctx *step.Context) (*tensor.Matrix, []float64, step.Params, error) {
	ids, rows := domains.Groups(ctx.SampleDomain)
	s.fitted = make(map[int]any, len(ids))

	n := X.Rows()
	var outX *tensor.Matrix
	var outY []float64
	var outParams step.Params

	for _, id := range ids {
		idx := rows[id]
		clone := s.base.(step.Cloner).Clone()
		s.fitted[id] = clone

		groupX := X.Take(idx)
		groupY := domains.TakeLabels(y, idx)
		groupCtx := ctx.Take(idx)

		var xg *tensor.Matrix
		var yg []float64
		var pg step.Params
		var err error
		switch t := clone.(type) {
		case step.Adapter:
			xg, yg, pg, err = t.FitTransform(groupX, groupY, groupCtx.SampleDomain)
		case step.FitTransformer:
			xg, err = t.FitTransform(groupX, groupY)
			yg = groupY
		case step.Transformer:
			if err = fitOne(clone, groupX, groupY, groupCtx); err == nil {
				xg, err = t.Transform(groupX)
			}
			yg = groupY
		default:
			err = fmt.Errorf("%w: %T", ErrNotTransformer, clone)
		}
		if err != nil {
			return nil, nil, nil, err
		}

		if outX == nil {
			outX = xg.ZerosLike(n)
		}
		for gi, ri := range idx {
			outX.SetRow(ri, xg.Row(gi))
		}
		if yg != nil {
			if outY == nil {
				outY = make([]float64, n)
			}
			for gi, ri := range idx {
				outY[ri] = yg[gi]
			}
		}
		var perr error
		outParams, perr = scatterParams(outParams, pg, idx, n, id == ids[0])
		if perr != nil {
			return nil, nil, nil, perr
		}
	}
	return outX, outY, outParams, nil
}

// Transform dispatches each sample to its own domain's fitted clone.
func (s *PerDomain) Transform(X *tensor.Matrix, ctx *step.Context) (*tensor.Matrix, error) {
	ids, rows := domains.Groups(ctx.SampleDomain)
	var out *tensor.Matrix
	for _, id := range ids {
		idx := rows[id]
		inst, ok := s.fitted[id]
		if !ok {
			return nil, &UnknownDomainError{Domain: id}
		}
		var xg *tensor.Matrix
		var err error
		switch t := inst.(type) {
		case step.Adapter:
			xg, err = t.Transform(X.Take(idx), domains.TakeTags(ctx.SampleDomain, idx))
		case step.Transformer:
			xg, err = t.Transform(X.Take(idx))
		default:
			err = fmt.Errorf("%w: %T", ErrNotTransformer, inst)
		}
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = xg.ZerosLike(X.Rows())
		}
		for gi, ri := range idx {
			out.SetRow(ri, xg.Row(gi))
		}
	}
	return out, nil
}

// Predict dispatches each sample to its own domain's fitted clone and
// reassembles predictions in the original row order.
func (s *PerDomain) Predict(X *tensor.Matrix, ctx *step.Context) ([]float64, error) {
	ids, rows := domains.Groups(ctx.SampleDomain)
	out := make([]float64, X.Rows())
	for _, id := range ids {
		idx := rows[id]
		inst, ok := s.fitted[id]
		if !ok {
			return nil, &UnknownDomainError{Domain: id}
		}
		p, ok := inst.(step.Predictor)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrNotPredictor, inst)
		}
		yg, err := p.Predict(X.Take(idx))
		if err != nil {
			return nil, err
		}
		for gi, ri := range idx {
			out[ri] = yg[gi]
		}
	}
	return out, nil
}

// Score scores each domain group with its own clone and returns the
// sample-weighted mean across groups.
func (s *PerDomain) Score(X *tensor.Matrix, y []float64, ctx *step.Context) (float64, error) {
	ids, rows := domains.Groups(ctx.SampleDomain)
	var total float64
	for _, id := range ids {
		idx := rows[id]
		inst, ok := s.fitted[id]
		if !ok {
			return 0, &UnknownDomainError{Domain: id}
		}
		sc, ok := inst.(step.Scorer)
		if !ok {
			return 0, fmt.Errorf("%w: %T", ErrScoreUnsupported, inst)
		}
		score, err := sc.Score(X.Take(idx), domains.TakeLabels(y, idx))
		if err != nil {
			return 0, err
		}
		total += score * float64(len(idx))
	}
	return total / float64(X.Rows()), nil
}

// scatterParams writes a group's extra parameters into full-length arrays
// at the group's row positions. The first group establishes the key set;
// every later group must emit exactly the same keys, otherwise some samples
// would be left without a value.
func scatterParams(full, group step.Params, idx []int, n int, first bool) (step.Params, error) {
	if first {
		full = make(step.Params, len(group))
		for name := range group {
			full[name] = make([]float64, n)
		}
	}
	if len(group) != len(full) {
		return nil, errInconsistentParamKeys
	}
	for name, values := range group {
		arr, ok := full[name]
		if !ok {
			return nil, errInconsistentParamKeys
		}
		for gi, ri := range idx {
			arr[ri] = values[gi]
		}
	}
	if len(full) == 0 {
		return nil, nil
	}
	return full, nil
}

var errInconsistentParamKeys = errors.New("per-domain adapter groups emitted inconsistent extra-parameter keys")
