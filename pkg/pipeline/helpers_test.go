package pipeline_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arthurdrk/skada/pkg/datasets"
	"github.com/arthurdrk/skada/pkg/domains"
	"github.com/arthurdrk/skada/pkg/step"
	"github.com/arthurdrk/skada/pkg/tensor"
)

// blobs draws n samples from two unit-variance blobs centered at (dx, dy)
// and (dx+6, dy+6), labeled 0 and 1.
func blobs(rng *rand.Rand, n int, dx, dy float64) (*tensor.Matrix, []float64) {
	x := tensor.Zeros(n, 2)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		cx, cy := dx, dy
		if i%2 == 1 {
			cx, cy = dx+6, dy+6
			y[i] = 1
		}
		x.Set(i, 0, cx+rng.NormFloat64())
		x.Set(i, 1, cy+rng.NormFloat64())
	}
	return x, y
}

// shiftedDataset packs a labeled source and a shifted target domain. The
// target is the same two-blob problem translated by (3, -2).
func shiftedDataset(t *testing.T, mask bool) (x *tensor.Matrix, y []float64, sd []int, xt *tensor.Matrix, yt []float64) {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	xs, ys := blobs(rng, 100, 0, 0)
	xtRaw, ytRaw := blobs(rng, 100, 3, -2)

	d := datasets.New()
	require.NoError(t, d.AddDomain("s", xs, ys))
	require.NoError(t, d.AddDomain("t", xtRaw, ytRaw))
	x, y, sd, err := d.Pack(datasets.PackOptions{
		AsSources:        []string{"s"},
		AsTargets:        []string{"t"},
		MaskTargetLabels: mask,
	})
	require.NoError(t, err)
	return x, y, sd, xtRaw, ytRaw
}

// alternatingMasker is an adapter masking the label of every even row,
// leaving exactly floor(n/2) labeled samples for downstream steps.
type alternatingMasker struct{}

func (alternatingMasker) FitTransform(x *tensor.Matrix, y []float64, _ []int) (*tensor.Matrix, []float64, step.Params, error) {
	if y == nil {
		return x, nil, nil, nil
	}
	masked := make([]float64, len(y))
	copy(masked, y)
	for i := 0; i < len(masked); i += 2 {
		masked[i] = domains.Masked()
	}
	return x, masked, nil, nil
}

func (alternatingMasker) Transform(x *tensor.Matrix, _ []int) (*tensor.Matrix, error) {
	return x, nil
}

func (alternatingMasker) Clone() any { return alternatingMasker{} }

// recordingEstimator captures what reaches a terminal estimator's fit.
type recordingEstimator struct {
	fitRows   int
	fitLabels []float64
	weights   []float64
}

func (r *recordingEstimator) AcceptedParams() []string { return []string{"sample_weight"} }

func (r *recordingEstimator) FitWithParams(x *tensor.Matrix, y []float64, params step.Params) error {
	r.fitRows = x.Rows()
	r.fitLabels = y
	r.weights = params["sample_weight"]
	return nil
}

func (r *recordingEstimator) Fit(x *tensor.Matrix, y []float64) error {
	return r.FitWithParams(x, y, nil)
}

func (r *recordingEstimator) Predict(x *tensor.Matrix) ([]float64, error) {
	return make([]float64, x.Rows()), nil
}

// cutDims reduces a rank-3 payload to rank 2 by keeping the first entry of
// the trailing axis.
type cutDims struct{}

func (cutDims) Fit(*tensor.Matrix, []float64) error { return nil }

func (cutDims) Transform(x *tensor.Matrix) (*tensor.Matrix, error) {
	shape := x.Shape()
	out := tensor.Zeros(shape[0], shape[1])
	for i := 0; i < shape[0]; i++ {
		row := x.Row(i)
		for j := 0; j < shape[1]; j++ {
			out.Set(i, j, row[j*shape[2]])
		}
	}
	return out, nil
}
