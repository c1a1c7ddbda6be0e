// Package domains encodes the sample-domain tag convention shared by every
// component of the pipeline engine.
//
// Each sample carries one integer tag. A positive tag marks a source-domain
// sample, a negative tag marks a target-domain sample, and the magnitude is
// the domain identifier used to group samples for per-domain fitting. Tag 0
// is ambiguous and rejected everywhere. Distinct magnitudes are distinct
// domains even when both sides are sources (or both targets).
package domains

import (
	"errors"
	"fmt"

	"github.com/arthurdrk/skada/pkg/tensor"
)

// Reserved identifiers used when the caller does not supply sample-domain
// tags. Training assumes a single source domain; inference assumes a single
// target domain.
const (
	DefaultSourceTag = 1
	DefaultTargetTag = -1
)

var (
	// ErrZeroDomain reports a sample tagged with domain 0, which encodes
	// neither source nor target.
	ErrZeroDomain = errors.New("domain tag 0 is ambiguous")

	// ErrLengthMismatch reports sample-domain tags whose length differs from
	// the number of samples.
	ErrLengthMismatch = errors.New("sample_domain length does not match sample count")

	// ErrSourceAtInference reports source-tagged samples handed to predict
	// or score, which are defined over target data only.
	ErrSourceAtInference = errors.New("predict and score accept target samples only")
)

// IsSource reports whether a tag marks a source-domain sample.
func IsSource(tag int) bool { return tag > 0 }

// IsTarget reports whether a tag marks a target-domain sample.
func IsTarget(tag int) bool { return tag < 0 }

// ID returns the domain identifier of a tag, its magnitude.
func ID(tag int) int {
	if tag < 0 {
		return -tag
	}
	return tag
}

// Check validates sample-domain tags against a sample count: the length must
// match and no tag may be 0.
func Check(sampleDomain []int, n int) error {
	if len(sampleDomain) != n {
		return fmt.Errorf("%w: %d tags for %d samples", ErrLengthMismatch, len(sampleDomain), n)
	}
	for i, tag := range sampleDomain {
		if tag == 0 {
			return fmt.Errorf("%w: sample %d", ErrZeroDomain, i)
		}
	}
	return nil
}

// CheckTargetOnly rejects tags containing any source-domain sample.
func CheckTargetOnly(sampleDomain []int) error {
	for i, tag := range sampleDomain {
		if IsSource(tag) {
			return fmt.Errorf("%w: sample %d is tagged source domain %d", ErrSourceAtInference, i, tag)
		}
	}
	return nil
}

// Infer derives inference-time tags. A nil sampleDomain becomes n copies of
// DefaultTargetTag; explicit tags are validated and passed through unchanged.
func Infer(sampleDomain []int, n int) ([]int, error) {
	if sampleDomain == nil {
		return uniform(DefaultTargetTag, n), nil
	}
	if err := Check(sampleDomain, n); err != nil {
		return nil, err
	}
	return sampleDomain, nil
}

// InferTraining derives training-time tags. A nil sampleDomain becomes n
// copies of DefaultSourceTag; explicit tags are validated and passed through.
func InferTraining(sampleDomain []int, n int) ([]int, error) {
	if sampleDomain == nil {
		return uniform(DefaultSourceTag, n), nil
	}
	if err := Check(sampleDomain, n); err != nil {
		return nil, err
	}
	return sampleDomain, nil
}

// Split partitions samples into source and target halves, preserving row
// order within each half. The returned index slices map rows of the halves
// back to rows of X.
func Split(X *tensor.Matrix, sampleDomain []int) (xSource, xTarget *tensor.Matrix, idxSource, idxTarget []int, err error) {
	if err := Check(sampleDomain, X.Rows()); err != nil {
		return nil, nil, nil, nil, err
	}
	for i, tag := range sampleDomain {
		if IsSource(tag) {
			idxSource = append(idxSource, i)
		} else {
			idxTarget = append(idxTarget, i)
		}
	}
	return X.Take(idxSource), X.Take(idxTarget), idxSource, idxTarget, nil
}

// Groups partitions row indices by domain identifier. Identifiers are
// returned in first-seen order and each index group preserves row order.
func Groups(sampleDomain []int) (ids []int, rows map[int][]int) {
	rows = make(map[int][]int)
	for i, tag := range sampleDomain {
		id := ID(tag)
		if _, seen := rows[id]; !seen {
			ids = append(ids, id)
		}
		rows[id] = append(rows[id], i)
	}
	return ids, rows
}

func uniform(tag, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = tag
	}
	return out
}
