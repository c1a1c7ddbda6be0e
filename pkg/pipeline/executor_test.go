package pipeline_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arthurdrk/skada/pkg/adapt"
	"github.com/arthurdrk/skada/pkg/domains"
	"github.com/arthurdrk/skada/pkg/model"
	"github.com/arthurdrk/skada/pkg/pipeline"
	"github.com/arthurdrk/skada/pkg/preprocess"
	"github.com/arthurdrk/skada/pkg/selector"
	"github.com/arthurdrk/skada/pkg/step"
	"github.com/arthurdrk/skada/pkg/tensor"
)

// TestFitPredictScore runs the full adaptation loop on a shifted two-blob
// problem: fit on mixed masked data, reject source tags at inference, and
// score well on the target domain.
func TestFitPredictScore(t *testing.T) {
	x, y, sd, xt, yt := shiftedDataset(t, true)

	p, err := pipeline.AssembleWith(
		pipeline.Config{Logger: zaptest.NewLogger(t)},
		preprocess.NewStandardScaler(),
		nil, // skipped
		adapt.NewMeanAlign(),
		adapt.NewBalancedWeighter(),
		model.NewNearestCentroid(),
	)
	require.NoError(t, err)
	require.NoError(t, p.Fit(x, y, sd))

	// inference refuses samples still tagged as source
	_, err = p.Predict(x, sd)
	assert.ErrorIs(t, err, domains.ErrSourceAtInference)
	_, err = p.Score(x, y, sd)
	assert.ErrorIs(t, err, domains.ErrSourceAtInference)

	// nil tags and explicit target tags predict identically
	implicit, err := p.Predict(xt, nil)
	require.NoError(t, err)
	explicitTags := make([]int, xt.Rows())
	for i := range explicitTags {
		explicitTags[i] = -2
	}
	explicit, err := p.Predict(xt, explicitTags)
	require.NoError(t, err)
	assert.Equal(t, implicit, explicit)

	score, err := p.Score(xt, yt, nil)
	require.NoError(t, err)
	assert.Greater(t, score, 0.9, "mean alignment should recover the shifted blobs")
}

// TestFitValidation verifies training-input checks.
func TestFitValidation(t *testing.T) {
	p, err := pipeline.Assemble(model.NewNearestCentroid())
	require.NoError(t, err)
	x := tensor.FromRows([][]float64{{1}, {2}})

	assert.ErrorIs(t, p.Fit(x, []float64{1}, nil), pipeline.ErrLabelLength)
	assert.ErrorIs(t, p.Fit(x, []float64{1, 2}, []int{1}), domains.ErrLengthMismatch)
	assert.ErrorIs(t, p.Fit(x, []float64{1, 2}, []int{1, 0}), domains.ErrZeroDomain)
}

// TestScoreValidation verifies the label requirements of scoring.
func TestScoreValidation(t *testing.T) {
	p, err := pipeline.Assemble(model.NewNearestCentroid())
	require.NoError(t, err)
	x := tensor.FromRows([][]float64{{1}})
	require.NoError(t, p.Fit(x, []float64{0}, nil))

	_, err = p.Score(x, nil, nil)
	assert.ErrorIs(t, err, pipeline.ErrMissingLabels)
	_, err = p.Score(x, []float64{0, 1}, nil)
	assert.ErrorIs(t, err, pipeline.ErrLabelLength)
}

// TestFitTransformTerminalEstimator verifies that a predictive terminal
// step cannot serve a transform request.
func TestFitTransformTerminalEstimator(t *testing.T) {
	p, err := pipeline.Assemble(preprocess.NewStandardScaler(), model.NewNearestCentroid())
	require.NoError(t, err)

	x := tensor.FromRows([][]float64{{0}, {1}})
	_, err = p.FitTransform(x, []float64{0, 1}, nil)
	assert.ErrorIs(t, err, pipeline.ErrNotTransformable)
}

// TestPerDomainScalerPipeline pins the per-domain routing arithmetic: each
// domain is standardized by its own statistics, and inference dispatches on
// the tag magnitude, source or target alike.
func TestPerDomainScalerPipeline(t *testing.T) {
	sel, err := selector.NewPerDomain(preprocess.NewStandardScaler())
	require.NoError(t, err)
	p, err := pipeline.Assemble(sel)
	require.NoError(t, err)

	x := tensor.FromRows([][]float64{{1, 0}, {0, 8}, {3, 0}, {0, 0}})
	sd := []int{1, 2, 1, 2}

	got, err := p.FitTransform(x, nil, sd)
	require.NoError(t, err)
	// domain 1: mean (2,0), std (1,1); domain 2: mean (0,4), std (1,4)
	assert.Equal(t, []float64{-1, 0}, got.Row(0))
	assert.Equal(t, []float64{0, 1}, got.Row(1))
	assert.Equal(t, []float64{1, 0}, got.Row(2))
	assert.Equal(t, []float64{0, -1}, got.Row(3))

	probe := tensor.FromRows([][]float64{{-1, 1}})
	for _, tt := range []struct {
		tag  int
		want []float64
	}{
		{tag: 1, want: []float64{-3, 1}},
		{tag: 2, want: []float64{-1, -0.75}},
		{tag: -1, want: []float64{-3, 1}}, // target routed to its source's scaler
	} {
		out, err := p.Transform(probe, []int{tt.tag})
		require.NoError(t, err)
		assert.Equal(t, tt.want, out.Row(0), "tag %d", tt.tag)
	}

	_, err = p.Transform(probe, []int{3})
	assert.ErrorIs(t, err, selector.ErrUnknownDomain)
}

// TestNestedFlatteningEquivalence verifies that a nested assembly predicts
// bit-identically to the equivalent flat one.
func TestNestedFlatteningEquivalence(t *testing.T) {
	x, y, sd, xt, _ := shiftedDataset(t, true)

	flat, err := pipeline.Assemble(
		preprocess.NewStandardScaler(), adapt.NewMeanAlign(), model.NewNearestCentroid())
	require.NoError(t, err)

	inner, err := pipeline.Assemble(preprocess.NewStandardScaler(), adapt.NewMeanAlign())
	require.NoError(t, err)
	nested, err := pipeline.Assemble(inner, model.NewNearestCentroid())
	require.NoError(t, err)
	assert.Equal(t, stepNames(t, flat), stepNames(t, nested))

	require.NoError(t, flat.Fit(x, y, sd))
	require.NoError(t, nested.Fit(x, y, sd))

	want, err := flat.Predict(xt, nil)
	require.NoError(t, err)
	got, err := nested.Predict(xt, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// TestAdapterMaskingFiltersEstimator verifies that labels masked by an
// adapter mid-chain never reach the terminal estimator: with every other
// row masked, fit sees exactly half the samples.
func TestAdapterMaskingFiltersEstimator(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	x, y := blobs(rng, 10, 0, 0)

	rec := &recordingEstimator{}
	p, err := pipeline.Assemble(alternatingMasker{}, rec)
	require.NoError(t, err)
	require.NoError(t, p.Fit(x, y, nil))

	assert.Equal(t, 5, rec.fitRows)
	require.Len(t, rec.fitLabels, 5)
	for i, label := range rec.fitLabels {
		assert.False(t, domains.IsMasked(label), "label %d", i)
	}
}

// TestAdapterParamsRoutedAndFiltered verifies that adapter-produced extra
// parameters reach a declaring estimator, row-filtered alongside the data.
func TestAdapterParamsRoutedAndFiltered(t *testing.T) {
	x := tensor.FromRows([][]float64{{0}, {1}, {2}, {3}, {10}, {11}})
	y := []float64{0, 1, 0, 1, domains.Masked(), domains.Masked()}
	sd := []int{1, 1, 1, 1, -2, -2}

	rec := &recordingEstimator{}
	p, err := pipeline.Assemble(adapt.NewBalancedWeighter(), rec)
	require.NoError(t, err)
	require.NoError(t, p.Fit(x, y, sd))

	assert.Equal(t, 4, rec.fitRows)
	assert.Equal(t, []float64{0.75, 0.75, 0.75, 0.75}, rec.weights,
		"source weights n/(2*n_source), target rows filtered out")
}

// TestExtraParamsSeedSideChannel verifies that caller-supplied parameter
// maps reach declaring steps the same way adapter-produced ones do.
func TestExtraParamsSeedSideChannel(t *testing.T) {
	x := tensor.FromRows([][]float64{{0}, {1}, {2}})
	y := []float64{0, domains.Masked(), 1}

	rec := &recordingEstimator{}
	p, err := pipeline.Assemble(rec)
	require.NoError(t, err)
	require.NoError(t, p.Fit(x, y, nil, step.Params{"sample_weight": {2, 3, 4}}))

	assert.Equal(t, []float64{2, 4}, rec.weights, "filtered with the masked row")
}

// TestHigherRankInput verifies that payloads of rank above two flow through
// the chain until a step reduces them.
func TestHigherRankInput(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	x := tensor.Zeros(6, 3, 4)
	for i := 0; i < 6; i++ {
		row := x.Row(i)
		for j := range row {
			row[j] = rng.NormFloat64()
		}
		x.SetRow(i, row)
	}
	sd := []int{1, 1, 1, -1, -1, -1}

	p, err := pipeline.Assemble(cutDims{}, adapt.NewMeanAlign())
	require.NoError(t, err)

	got, err := p.FitTransform(x, nil, sd)
	require.NoError(t, err)
	assert.Equal(t, []int{6, 3}, got.Shape())
}
