package tagconfig

// resolution is the raw winning value for a key, before interpolation.
type resolution struct {
	Key   string
	Value string
	Tag   string
	Store string
}

// resolver walks the precedence list and returns the first matching entry.
type resolver struct {
	precedence []candidate
}

func newResolver(chain *Chain, tags TagContext) resolver {
	return resolver{precedence: buildPrecedence(chain, tags)}
}

// resolve reports the winning entry for key. A miss is not an error at this
// level; callers decide between failing and falling back to a default.
func (r resolver) resolve(key string) (resolution, bool) {
	for _, c := range r.precedence {
		if value, ok := c.store.Lookup(key, c.tag); ok {
			return resolution{
				Key:   key,
				Value: value,
				Tag:   c.tag,
				Store: c.store.Name(),
			}, true
		}
	}
	return resolution{}, false
}

// trace records every candidate consulted for key in precedence order.
func (r resolver) trace(key string) Trace {
	trace := Trace{Key: key, Candidates: make([]Provenance, 0, len(r.precedence))}
	selected := false
	for _, c := range r.precedence {
		value, ok := c.store.Lookup(key, c.tag)
		p := Provenance{
			Tag:   c.scopeLabel(),
			Store: c.store.Name(),
			Found: ok,
		}
		if ok {
			p.Value = value
			if !selected {
				p.Selected = true
				selected = true
			}
		}
		trace.Candidates = append(trace.Candidates, p)
	}
	trace.Found = selected
	return trace
}
