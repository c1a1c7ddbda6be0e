package step_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthurdrk/skada/pkg/step"
	"github.com/arthurdrk/skada/pkg/tensor"
)

type fakeTransform struct{}

func (fakeTransform) Fit(*tensor.Matrix, []float64) error               { return nil }
func (fakeTransform) Transform(x *tensor.Matrix) (*tensor.Matrix, error) { return x, nil }

type fakeEstimator struct{}

func (fakeEstimator) Fit(*tensor.Matrix, []float64) error      { return nil }
func (fakeEstimator) Predict(x *tensor.Matrix) ([]float64, error) { return make([]float64, x.Rows()), nil }

type fakeAdapter struct{}

func (fakeAdapter) FitTransform(x *tensor.Matrix, y []float64, _ []int) (*tensor.Matrix, []float64, step.Params, error) {
	return x, y, nil, nil
}
func (fakeAdapter) Transform(x *tensor.Matrix, _ []int) (*tensor.Matrix, error) { return x, nil }

// TestKindOf verifies the closed-variant classification: adapter capability
// wins, predictive capability beats plain transform, and unrecognized
// steps are rejected.
func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		s    any
		want step.Kind
		err  error
	}{
		{"transformer", fakeTransform{}, step.KindTransformer, nil},
		{"estimator", fakeEstimator{}, step.KindEstimator, nil},
		{"adapter", fakeAdapter{}, step.KindAdapter, nil},
		{"opaque", struct{}{}, 0, step.ErrUnknownCapability},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := step.KindOf(tt.s)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

// TestParamsMergeIsCopyOnWrite verifies that Merge never mutates either
// input map or its arrays.
func TestParamsMergeIsCopyOnWrite(t *testing.T) {
	base := step.Params{"sample_weight": {1, 2}}
	update := step.Params{"sample_weight": {9, 9}, "shift": {0, 1}}

	merged := base.Merge(update)
	merged["sample_weight"][0] = 77
	merged["shift"][1] = 77

	assert.Equal(t, []float64{1, 2}, base["sample_weight"], "base untouched")
	assert.Equal(t, []float64{9, 9}, update["sample_weight"], "update untouched")
	assert.Equal(t, []float64{0, 1}, update["shift"], "update untouched")
	assert.Equal(t, 77.0, merged["sample_weight"][0])
}

// TestParamsMergeOverwrites verifies merge semantics: new keys added, same
// keys replaced.
func TestParamsMergeOverwrites(t *testing.T) {
	merged := step.Params{"a": {1}}.Merge(step.Params{"a": {2}, "b": {3}})

	assert.Equal(t, []float64{2}, merged["a"])
	assert.Equal(t, []float64{3}, merged["b"])
}

// TestParamsSelect verifies that only declared names survive and missing
// names are silently skipped.
func TestParamsSelect(t *testing.T) {
	p := step.Params{"sample_weight": {1}, "shift": {2}}
	got := p.Select([]string{"sample_weight", "never_produced"})

	assert.Equal(t, step.Params{"sample_weight": {1}}, got)
}

// TestParamsTake verifies row filtering of every array in the side channel.
func TestParamsTake(t *testing.T) {
	p := step.Params{"sample_weight": {10, 20, 30}}
	got := p.Take([]int{2, 0})

	assert.Equal(t, []float64{30, 10}, got["sample_weight"])
}

// TestContextTake verifies aligned filtering of tags and params.
func TestContextTake(t *testing.T) {
	ctx := &step.Context{
		SampleDomain: []int{1, -1, 2},
		Params:       step.Params{"sample_weight": {0.1, 0.2, 0.3}},
	}
	got := ctx.Take([]int{0, 2})

	assert.Equal(t, []int{1, 2}, got.SampleDomain)
	assert.Equal(t, []float64{0.1, 0.3}, got.Params["sample_weight"])
	assert.Equal(t, []int{1, -1, 2}, ctx.SampleDomain, "original untouched")
}

// TestContextWithParams verifies that parameter updates produce a fresh map
// sharing the tag slice.
func TestContextWithParams(t *testing.T) {
	ctx := &step.Context{SampleDomain: []int{1}, Params: step.Params{"a": {1}}}
	got := ctx.WithParams(step.Params{"b": {2}})

	assert.Equal(t, []float64{1}, got.Params["a"])
	assert.Equal(t, []float64{2}, got.Params["b"])
	_, ok := ctx.Params["b"]
	assert.False(t, ok, "original params untouched")
}
