package selector

import "fmt"

// Selector tags accepted wherever a selector specification is expected.
const (
	TagShared    = "shared"
	TagPerDomain = "per_domain"
)

// Factory mints a selector around a given step. NewShared and NewPerDomain
// satisfy this signature, so selector constructors are themselves valid
// specifications.
type Factory func(base any) (Selector, error)

// Resolve interprets a selector specification against a step and returns
// the wrapping selector. Accepted specifications:
//
//   - the tags "shared" and "per_domain"
//   - a Factory (or any func(any) (Selector, error))
//   - a func(any) Selector
//   - a func(any) any, validated to return a selector
//
// Unknown tags and uninterpretable types resolve to ErrUnknownSelector and
// ErrInvalidSpec; a callable returning a non-selector resolves to
// ErrNotSelector. Nothing is constructed on failure.
func Resolve(spec any, base any) (Selector, error) {
	switch v := spec.(type) {
	case string:
		switch v {
		case TagShared:
			return NewShared(base)
		case TagPerDomain:
			return NewPerDomain(base)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownSelector, v)
		}
	case Factory:
		return checkFactoryResult(v(base))
	case func(any) (Selector, error):
		return checkFactoryResult(v(base))
	case func(any) Selector:
		sel := v(base)
		if sel == nil {
			return nil, fmt.Errorf("%w: factory returned nil", ErrNotSelector)
		}
		return sel, nil
	case func(any) any:
		out := v(base)
		sel, ok := out.(Selector)
		if !ok || sel == nil {
			return nil, fmt.Errorf("%w: got %T", ErrNotSelector, out)
		}
		return sel, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidSpec, spec)
	}
}

func checkFactoryResult(sel Selector, err error) (Selector, error) {
	if err != nil {
		return nil, err
	}
	if sel == nil {
		return nil, fmt.Errorf("%w: factory returned nil", ErrNotSelector)
	}
	return sel, nil
}
