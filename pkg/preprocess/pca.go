package preprocess

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/arthurdrk/skada/pkg/step"
	"github.com/arthurdrk/skada/pkg/tensor"
)

// PCA projects samples onto their leading principal components. NComponents
// of 0 keeps every component.
type PCA struct {
	NComponents int

	mean       []float64
	components *mat.Dense // cols x kept
}

// NewPCA returns a projection onto the leading n components.
func NewPCA(n int) *PCA { return &PCA{NComponents: n} }

// Fit learns the principal axes of the (centered) samples.
func (p *PCA) Fit(X *tensor.Matrix, _ []float64) error {
	if X.Rank() != 2 {
		return fmt.Errorf("pca requires rank-2 input, got rank %d", X.Rank())
	}
	rows, cols := X.Rows(), X.Cols()
	keep := p.NComponents
	if keep == 0 || keep > cols {
		keep = cols
	}
	if keep > rows {
		return fmt.Errorf("pca with %d components needs at least as many samples, got %d", keep, rows)
	}

	p.mean = make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			col[i] = X.At(i, j)
		}
		p.mean[j] = stat.Mean(col, nil)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(X.Dense(), nil); !ok {
		return fmt.Errorf("pca decomposition failed on %d x %d input", rows, cols)
	}
	var vec mat.Dense
	pc.VectorsTo(&vec)
	p.components = mat.DenseCopyOf(vec.Slice(0, cols, 0, keep))
	return nil
}

// Transform projects centered samples onto the fitted axes.
func (p *PCA) Transform(X *tensor.Matrix) (*tensor.Matrix, error) {
	if p.components == nil {
		return nil, step.ErrNotFitted
	}
	if X.Rank() != 2 || X.Cols() != len(p.mean) {
		return nil, fmt.Errorf("pca fitted on %d features, got shape %v", len(p.mean), X.Shape())
	}
	centered := X.Dense()
	rows, cols := centered.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			centered.Set(i, j, centered.At(i, j)-p.mean[j])
		}
	}
	var proj mat.Dense
	proj.Mul(centered, p.components)
	return tensor.FromDense(&proj), nil
}

// Clone returns a fresh unfitted projection with the same size.
func (p *PCA) Clone() any { return &PCA{NComponents: p.NComponents} }

// GetParams exposes the hyperparameters.
func (p *PCA) GetParams() map[string]any {
	return map[string]any{"n_components": p.NComponents}
}

// SetParams updates hyperparameters, rejecting unknown names.
func (p *PCA) SetParams(params map[string]any) error {
	for name, value := range params {
		if name != "n_components" {
			return fmt.Errorf("pca has no parameter %q", name)
		}
		n, ok := value.(int)
		if !ok {
			return fmt.Errorf("parameter %q wants an int, got %T", name, value)
		}
		p.NComponents = n
	}
	return nil
}
