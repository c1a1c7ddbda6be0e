// Package datasets packs labeled per-domain collections into the
// (X, y, sample_domain) triple the pipeline engine consumes.
package datasets

import (
	"errors"
	"fmt"
	"slices"

	"github.com/arthurdrk/skada/pkg/domains"
	"github.com/arthurdrk/skada/pkg/tensor"
)

var (
	// ErrDuplicateDomain reports registering the same domain name twice.
	ErrDuplicateDomain = errors.New("domain name already registered")

	// ErrUnknownDomainName reports packing a domain name that was never
	// registered.
	ErrUnknownDomainName = errors.New("unknown domain name")

	// ErrShapeMismatch reports packing domains with different per-sample
	// shapes.
	ErrShapeMismatch = errors.New("domains have different per-sample shapes")
)

type domainEntry struct {
	name string
	x    *tensor.Matrix
	y    []float64
}

// Dataset is an ordered registry of named domains. Registration order fixes
// the domain identifiers: the i-th registered domain has identifier i+1,
// tagged positive when packed as a source and negative as a target.
type Dataset struct {
	entries []domainEntry
}

// New returns an empty dataset.
func New() *Dataset { return &Dataset{} }

// AddDomain registers a named domain. A nil label vector marks a fully
// unlabeled domain; its packed labels are masked.
func (d *Dataset) AddDomain(name string, X *tensor.Matrix, y []float64) error {
	for _, e := range d.entries {
		if e.name == name {
			return fmt.Errorf("%w: %q", ErrDuplicateDomain, name)
		}
	}
	if y != nil && len(y) != X.Rows() {
		return fmt.Errorf("domain %q: %d labels for %d samples", name, len(y), X.Rows())
	}
	d.entries = append(d.entries, domainEntry{name: name, x: X, y: y})
	return nil
}

// PackOptions selects the domains to pack and the label-masking policy.
type PackOptions struct {
	AsSources []string
	AsTargets []string

	// MaskTargetLabels hides every target label behind the masking
	// sentinel, the usual unsupervised-target training setting.
	MaskTargetLabels bool
}

// Pack concatenates the selected domains, sources first, into a single
// (X, y, sample_domain) triple. Row order follows registration order within
// each role.
func (d *Dataset) Pack(opts PackOptions) (*tensor.Matrix, []float64, []int, error) {
	type packed struct {
		entry  domainEntry
		tag    int
		masked bool
	}
	var parts []packed
	for _, name := range opts.AsSources {
		e, id, err := d.lookup(name)
		if err != nil {
			return nil, nil, nil, err
		}
		parts = append(parts, packed{entry: e, tag: id})
	}
	for _, name := range opts.AsTargets {
		e, id, err := d.lookup(name)
		if err != nil {
			return nil, nil, nil, err
		}
		parts = append(parts, packed{entry: e, tag: -id, masked: opts.MaskTargetLabels})
	}
	if len(parts) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: nothing selected", ErrUnknownDomainName)
	}

	rowShape := parts[0].entry.x.Shape()[1:]
	total := 0
	for _, p := range parts {
		if !slices.Equal(p.entry.x.Shape()[1:], rowShape) {
			return nil, nil, nil, fmt.Errorf("%w: %q has shape %v", ErrShapeMismatch, p.entry.name, p.entry.x.Shape())
		}
		total += p.entry.x.Rows()
	}

	x := parts[0].entry.x.ZerosLike(total)
	y := make([]float64, total)
	tags := make([]int, total)
	row := 0
	for _, p := range parts {
		for i := 0; i < p.entry.x.Rows(); i++ {
			x.SetRow(row, p.entry.x.Row(i))
			switch {
			case p.masked || p.entry.y == nil:
				y[row] = domains.Masked()
			default:
				y[row] = p.entry.y[i]
			}
			tags[row] = p.tag
			row++
		}
	}
	return x, y, tags, nil
}

func (d *Dataset) lookup(name string) (domainEntry, int, error) {
	for i, e := range d.entries {
		if e.name == name {
			return e, i + 1, nil
		}
	}
	return domainEntry{}, 0, fmt.Errorf("%w: %q", ErrUnknownDomainName, name)
}
