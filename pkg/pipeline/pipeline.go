// Package pipeline assembles and executes domain-adaptation pipelines:
// ordered chains of selector-wrapped steps sharing a metadata side channel
// of sample-domain tags and adapter-produced extra parameters.
//
// Assembly flattens nested pipelines in place, wraps every bare step with
// the configured default selector, and assigns unique names derived from
// the step types. Execution routes (X, y) and the side channel through the
// chain, keeping masked labels away from plain steps and rejecting
// source-domain samples at inference time.
package pipeline

import (
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/arthurdrk/skada/pkg/selector"
	"github.com/arthurdrk/skada/pkg/step"
)

// NamedStep is one assembled pipeline step: its unique name and the
// selector wrapping the underlying estimator.
type NamedStep struct {
	Name     string
	Selector selector.Selector
}

// Pipeline is an assembled, executable chain of selector-wrapped steps.
type Pipeline struct {
	steps  []NamedStep
	logger *zap.Logger
}

// Entry pairs an explicit step name with the step itself. The step may be a
// bare estimator, an already-wrapped selector, or a nested pipeline.
type Entry struct {
	Name string
	Step any
}

// Named builds an explicitly named assembly entry.
func Named(name string, s any) Entry { return Entry{Name: name, Step: s} }

// Config carries assembly options.
type Config struct {
	// DefaultSelector wraps steps that arrive unwrapped. Accepts anything
	// selector.Resolve accepts; zero value means selector.TagShared.
	DefaultSelector any

	// Logger receives step-level debug events. Nil means no logging.
	Logger *zap.Logger
}

// Assemble builds a pipeline with shared default granularity. Entries may
// be bare steps, selector-wrapped steps, Named entries, nested pipelines,
// or nil (skipped). At least one usable step is required.
func Assemble(entries ...any) (*Pipeline, error) {
	return AssembleWith(Config{}, entries...)
}

// AssembleWith builds a pipeline with explicit assembly options.
func AssembleWith(cfg Config, entries ...any) (*Pipeline, error) {
	defaultSpec := cfg.DefaultSelector
	if defaultSpec == nil {
		defaultSpec = selector.TagShared
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cands, err := flatten(entries, defaultSpec)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, ErrNoSteps
	}

	steps, err := nameSteps(cands)
	if err != nil {
		return nil, err
	}
	for i, ns := range steps[:len(steps)-1] {
		if ns.Selector.Kind() == step.KindEstimator {
			return nil, fmt.Errorf("%w: %q at position %d", ErrEstimatorNotLast, ns.Name, i)
		}
	}
	return &Pipeline{steps: steps, logger: logger}, nil
}

// Steps returns the assembled steps in execution order.
func (p *Pipeline) Steps() []NamedStep {
	out := make([]NamedStep, len(p.steps))
	copy(out, p.steps)
	return out
}

// NamedSteps returns the name-to-selector lookup.
func (p *Pipeline) NamedSteps() map[string]selector.Selector {
	out := make(map[string]selector.Selector, len(p.steps))
	for _, ns := range p.steps {
		out[ns.Name] = ns.Selector
	}
	return out
}

// Step returns the selector assigned to a step name.
func (p *Pipeline) Step(name string) (selector.Selector, bool) {
	for _, ns := range p.steps {
		if ns.Name == name {
			return ns.Selector, true
		}
	}
	return nil, false
}

// candidate is a flattened, wrapped, not yet named step.
type candidate struct {
	sel selector.Selector

	// alias is the explicit name, empty for derived naming.
	alias string

	// innerName is set when the candidate came from an aliased nested
	// pipeline; the final name joins alias and innerName.
	innerName string
}

// flatten expands nested pipelines in line, wraps bare steps with the
// default selector, and drops nil entries. The result is a flat candidate
// list equivalent to hand-chaining every inner step.
func flatten(entries []any, defaultSpec any) ([]candidate, error) {
	var cands []candidate
	for _, entry := range entries {
		switch e := entry.(type) {
		case nil:
			continue
		case Entry:
			inner, err := flattenNamed(e, defaultSpec)
			if err != nil {
				return nil, err
			}
			cands = append(cands, inner...)
		case *Pipeline:
			for _, ns := range e.steps {
				cands = append(cands, candidate{sel: ns.Selector})
			}
		case selector.Selector:
			cands = append(cands, candidate{sel: e})
		default:
			sel, err := selector.Resolve(defaultSpec, entry)
			if err != nil {
				return nil, err
			}
			cands = append(cands, candidate{sel: sel})
		}
	}
	return cands, nil
}

func flattenNamed(e Entry, defaultSpec any) ([]candidate, error) {
	switch s := e.Step.(type) {
	case *Pipeline:
		cands := make([]candidate, 0, len(s.steps))
		for _, ns := range s.steps {
			cands = append(cands, candidate{sel: ns.Selector, alias: e.Name, innerName: ns.Name})
		}
		return cands, nil
	case selector.Selector:
		return []candidate{{sel: s, alias: e.Name}}, nil
	default:
		sel, err := selector.Resolve(defaultSpec, e.Step)
		if err != nil {
			return nil, err
		}
		return []candidate{{sel: sel, alias: e.Name}}, nil
	}
}

// nameSteps assigns a unique name to every candidate. Derived names come
// from the lower-cased type of the wrapped step, prefixed by the selector
// kind where the selector is not the default granularity. Duplicate derived
// names get "-1", "-2", ... in encounter order. Explicit aliases colliding
// with a derived name are disambiguated as "alias__derivedname"; inner
// steps of aliased nested pipelines always join as "alias__innername".
func nameSteps(cands []candidate) ([]NamedStep, error) {
	derivedBase := make([]string, len(cands))
	baseCount := make(map[string]int)
	for i, c := range cands {
		if c.alias == "" {
			derivedBase[i] = deriveName(c.sel)
			baseCount[derivedBase[i]]++
		}
	}

	names := make([]string, len(cands))
	seen := make(map[string]int)
	suffix := make(map[string]int)
	for i, c := range cands {
		switch {
		case c.alias != "" && c.innerName != "":
			names[i] = c.alias + "__" + c.innerName
		case c.alias != "":
			names[i] = c.alias
			if baseCount[c.alias] > 0 {
				names[i] = c.alias + "__" + deriveName(c.sel)
			}
		default:
			base := derivedBase[i]
			names[i] = base
			if baseCount[base] > 1 {
				suffix[base]++
				names[i] = fmt.Sprintf("%s-%d", base, suffix[base])
			}
		}
		if _, dup := seen[names[i]]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, names[i])
		}
		seen[names[i]] = i
	}

	steps := make([]NamedStep, len(cands))
	for i, c := range cands {
		steps[i] = NamedStep{Name: names[i], Selector: c.sel}
	}
	return steps, nil
}

// deriveName lower-cases the wrapped step's type name and prepends the
// selector prefix, if any.
func deriveName(sel selector.Selector) string {
	t := reflect.TypeOf(sel.Base())
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := strings.ToLower(t.Name())
	if prefix := sel.Prefix(); prefix != "" {
		name = prefix + "_" + name
	}
	return name
}
