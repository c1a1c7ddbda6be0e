// Package model provides predictive terminal steps satisfying the step
// contracts.
package model

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/arthurdrk/skada/pkg/step"
	"github.com/arthurdrk/skada/pkg/tensor"
)

// ErrNoLabels reports a supervised fit without labels.
var ErrNoLabels = errors.New("nearest centroid requires labels")

// NearestCentroid is a minimal classifier: each class is represented by the
// (optionally weighted) mean of its training samples and prediction picks
// the closest centroid in Euclidean distance. It consumes the
// "sample_weight" extra parameter when an upstream adapter provides one.
type NearestCentroid struct {
	classes   []float64
	centroids [][]float64
}

// NewNearestCentroid returns an unfitted classifier.
func NewNearestCentroid() *NearestCentroid { return &NearestCentroid{} }

// AcceptedParams declares interest in adapter-produced sample weights.
func (c *NearestCentroid) AcceptedParams() []string { return []string{"sample_weight"} }

// Fit trains on uniformly weighted samples.
func (c *NearestCentroid) Fit(X *tensor.Matrix, y []float64) error {
	return c.FitWithParams(X, y, nil)
}

// FitWithParams trains on samples weighted by params["sample_weight"] when
// present.
func (c *NearestCentroid) FitWithParams(X *tensor.Matrix, y []float64, params step.Params) error {
	if y == nil {
		return ErrNoLabels
	}
	if len(y) != X.Rows() {
		return fmt.Errorf("%d labels for %d samples", len(y), X.Rows())
	}
	weights := params["sample_weight"]
	if weights != nil && len(weights) != X.Rows() {
		return fmt.Errorf("%d sample weights for %d samples", len(weights), X.Rows())
	}

	size := X.RowSize()
	sums := make(map[float64][]float64)
	mass := make(map[float64]float64)
	for i := 0; i < X.Rows(); i++ {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		label := y[i]
		if sums[label] == nil {
			sums[label] = make([]float64, size)
		}
		floats.AddScaled(sums[label], w, X.Row(i))
		mass[label] += w
	}

	c.classes = c.classes[:0]
	for label := range sums {
		c.classes = append(c.classes, label)
	}
	sort.Float64s(c.classes)
	c.centroids = make([][]float64, len(c.classes))
	for k, label := range c.classes {
		centroid := sums[label]
		if mass[label] != 0 {
			floats.Scale(1/mass[label], centroid)
		}
		c.centroids[k] = centroid
	}
	return nil
}

// Predict assigns each sample the class of its nearest centroid.
func (c *NearestCentroid) Predict(X *tensor.Matrix) ([]float64, error) {
	if c.centroids == nil {
		return nil, step.ErrNotFitted
	}
	if X.RowSize() != len(c.centroids[0]) {
		return nil, fmt.Errorf("fitted on %d features, got %d", len(c.centroids[0]), X.RowSize())
	}
	out := make([]float64, X.Rows())
	for i := 0; i < X.Rows(); i++ {
		best := math.Inf(1)
		for k, centroid := range c.centroids {
			if d := floats.Distance(X.Row(i), centroid, 2); d < best {
				best = d
				out[i] = c.classes[k]
			}
		}
	}
	return out, nil
}

// Score returns prediction accuracy against the true labels.
func (c *NearestCentroid) Score(X *tensor.Matrix, y []float64) (float64, error) {
	pred, err := c.Predict(X)
	if err != nil {
		return 0, err
	}
	if len(y) != len(pred) {
		return 0, fmt.Errorf("%d labels for %d samples", len(y), len(pred))
	}
	correct := 0.0
	for i, p := range pred {
		if p == y[i] {
			correct++
		}
	}
	return correct / float64(len(pred)), nil
}

// Clone returns a fresh unfitted classifier.
func (c *NearestCentroid) Clone() any { return &NearestCentroid{} }
