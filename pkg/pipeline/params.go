package pipeline

import (
	"fmt"
	"strings"

	"github.com/arthurdrk/skada/pkg/step"
)

// GetParams returns every hyperparameter of every step, addressed as
// "stepname__paramname". Steps without a parameter surface contribute
// nothing.
func (p *Pipeline) GetParams() map[string]any {
	out := make(map[string]any)
	for _, ns := range p.steps {
		getter, ok := ns.Selector.Base().(step.ParamGetter)
		if !ok {
			continue
		}
		for name, value := range getter.GetParams() {
			out[ns.Name+"__"+name] = value
		}
	}
	return out
}

// SetParams updates step hyperparameters addressed as
// "stepname__paramname". Every key is validated before anything is applied:
// an unknown step name or an unknown parameter of the addressed step fails
// the whole call with no mutation.
func (p *Pipeline) SetParams(params map[string]any) error {
	staged := make(map[string]map[string]any)
	setters := make(map[string]step.ParamSetter)

	for key, value := range params {
		ns, paramName, err := p.resolveParamKey(key)
		if err != nil {
			return err
		}
		base := ns.Selector.Base()
		getter, ok := base.(step.ParamGetter)
		if !ok {
			return fmt.Errorf("%w: step %q exposes no parameters", ErrUnknownParameter, ns.Name)
		}
		if _, known := getter.GetParams()[paramName]; !known {
			return fmt.Errorf("%w: step %q has no parameter %q", ErrUnknownParameter, ns.Name, paramName)
		}
		setter, ok := base.(step.ParamSetter)
		if !ok {
			return fmt.Errorf("%w: step %q parameters are read-only", ErrUnknownParameter, ns.Name)
		}
		if staged[ns.Name] == nil {
			staged[ns.Name] = make(map[string]any)
			setters[ns.Name] = setter
		}
		staged[ns.Name][paramName] = value
	}

	for name, values := range staged {
		if err := setters[name].SetParams(values); err != nil {
			return fmt.Errorf("step %q: %w", name, err)
		}
	}
	return nil
}

// resolveParamKey finds the step addressed by a nested parameter key. Step
// names may themselves contain "__", so the longest matching step-name
// prefix wins.
func (p *Pipeline) resolveParamKey(key string) (NamedStep, string, error) {
	var best NamedStep
	bestLen := -1
	for _, ns := range p.steps {
		prefix := ns.Name + "__"
		if strings.HasPrefix(key, prefix) && len(ns.Name) > bestLen {
			best = ns
			bestLen = len(ns.Name)
		}
	}
	if bestLen < 0 {
		return NamedStep{}, "", fmt.Errorf("%w: %q names no step", ErrUnknownParameter, key)
	}
	return best, key[bestLen+2:], nil
}
