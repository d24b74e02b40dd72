package tagconfig

// candidate is one (tag, store) slot in the precedence list.
type candidate struct {
	tag   string
	store *Store
}

// scopeLabel names the candidate's tag for traces and logs.
func (c candidate) scopeLabel() string {
	if c.tag == "" {
		return DefaultScope
	}
	return c.tag
}

// DefaultScope labels the untagged scope in traces and log events. The angle
// brackets keep it apart from any tag a caller can declare.
const DefaultScope = "<default>"

// buildPrecedence flattens tag priority and store order into a single list
// ordered strongest first: every current tag in order, then the default
// scope; within each tag, the last store in the chain comes first.
func buildPrecedence(chain *Chain, tags TagContext) []candidate {
	stores := chain.Stores()
	scopes := append(tags.Ordered(), "")
	out := make([]candidate, 0, len(scopes)*len(stores))
	for _, tag := range scopes {
		for i := len(stores) - 1; i >= 0; i-- {
			out = append(out, candidate{tag: tag, store: stores[i]})
		}
	}
	return out
}
