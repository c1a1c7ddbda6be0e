package step

// Params is the extra-parameter side channel: per-sample metadata arrays
// keyed by parameter name, produced by adapters and consumed by downstream
// steps that declare interest. The map is treated as copy-on-write between
// steps: mutating operations return a new map and never touch the receiver,
// so a step can retain its view without later steps observing changes.
type Params map[string][]float64

// Clone returns a deep copy. A nil receiver yields an empty map.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for name, values := range p {
		copied := make([]float64, len(values))
		copy(copied, values)
		out[name] = copied
	}
	return out
}

// Merge returns a new map holding the receiver's entries overlaid with
// updates: new keys are added, existing keys are replaced. Neither input is
// modified.
func (p Params) Merge(updates Params) Params {
	out := p.Clone()
	for name, values := range updates {
		copied := make([]float64, len(values))
		copy(copied, values)
		out[name] = copied
	}
	return out
}

// Select returns a new map restricted to the named parameters. Names with
// no entry are skipped: unconsumed parameters are harmless, not an error.
func (p Params) Select(names []string) Params {
	out := make(Params, len(names))
	for _, name := range names {
		if values, ok := p[name]; ok {
			copied := make([]float64, len(values))
			copy(copied, values)
			out[name] = copied
		}
	}
	return out
}

// Take row-filters every parameter array by the given sample indices,
// keeping the side channel aligned with a filtered (X, y).
func (p Params) Take(idx []int) Params {
	out := make(Params, len(p))
	for name, values := range p {
		filtered := make([]float64, len(idx))
		for dst, src := range idx {
			filtered[dst] = values[src]
		}
		out[name] = filtered
	}
	return out
}

// Context carries the metadata side channel alongside (X, y) through every
// step call: the per-sample domain tags and the running extra parameters.
type Context struct {
	SampleDomain []int
	Params       Params
}

// Take returns a context row-filtered by the given sample indices.
func (c *Context) Take(idx []int) *Context {
	return &Context{
		SampleDomain: takeInts(c.SampleDomain, idx),
		Params:       c.Params.Take(idx),
	}
}

// WithParams returns a context whose parameters are the receiver's merged
// with updates. The domain tags are shared, the parameter map is fresh.
func (c *Context) WithParams(updates Params) *Context {
	return &Context{
		SampleDomain: c.SampleDomain,
		Params:       c.Params.Merge(updates),
	}
}

func takeInts(s []int, idx []int) []int {
	if s == nil {
		return nil
	}
	out := make([]int, len(idx))
	for dst, src := range idx {
		out[dst] = s[src]
	}
	return out
}
