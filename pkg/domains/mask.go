package domains

import "math"

// Masked is the label sentinel marking a sample whose true label is
// intentionally hidden during training. NaN compares unequal to every label
// value, so masked entries can never collide with a real class.
func Masked() float64 { return math.NaN() }

// IsMasked reports whether a label value is the masking sentinel.
func IsMasked(label float64) bool { return math.IsNaN(label) }

// UnmaskedIndices returns the indices of all labeled rows, in row order.
// A nil label vector means every row is labeled (unsupervised callers), so
// all indices are returned.
func UnmaskedIndices(y []float64, n int) []int {
	idx := make([]int, 0, n)
	if y == nil {
		for i := 0; i < n; i++ {
			idx = append(idx, i)
		}
		return idx
	}
	for i, label := range y {
		if !IsMasked(label) {
			idx = append(idx, i)
		}
	}
	return idx
}

// TakeLabels gathers label entries by row index. A nil label vector stays
// nil.
func TakeLabels(y []float64, idx []int) []float64 {
	if y == nil {
		return nil
	}
	out := make([]float64, len(idx))
	for dst, src := range idx {
		out[dst] = y[src]
	}
	return out
}

// TakeTags gathers sample-domain tags by row index.
func TakeTags(sampleDomain []int, idx []int) []int {
	if sampleDomain == nil {
		return nil
	}
	out := make([]int, len(idx))
	for dst, src := range idx {
		out[dst] = sampleDomain[src]
	}
	return out
}
