package tagconfig

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTagRequired indicates an empty tag name was supplied.
	ErrTagRequired = errors.New("tagconfig: tag must be provided")
	// ErrInvalidTag indicates a tag that cannot name a scope, such as the
	// DefaultScope label or a blank entry tag.
	ErrInvalidTag = errors.New("tagconfig: invalid tag")
)

// TagContext is the ordered set of current tags for a session. Earlier tags
// take precedence over later ones; the default scope is always consulted last
// and is never listed here.
type TagContext struct {
	ordered []string
}

// NewTagContext builds a context from tags in priority order. Repeated tags
// keep their first position. Surrounding whitespace is trimmed, and
// DefaultScope is rejected since the default scope is always last.
func NewTagContext(tags ...string) (TagContext, error) {
	ordered := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return TagContext{}, ErrTagRequired
		}
		if tag == DefaultScope {
			return TagContext{}, fmt.Errorf("%w: %q is reserved for the default scope", ErrInvalidTag, tag)
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		ordered = append(ordered, tag)
	}
	return TagContext{ordered: ordered}, nil
}

// Ordered returns the tags from strongest (index 0) to weakest.
func (c TagContext) Ordered() []string {
	if len(c.ordered) == 0 {
		return nil
	}
	return append([]string(nil), c.ordered...)
}

// Len returns the number of current tags.
func (c TagContext) Len() int {
	return len(c.ordered)
}

// Contains reports whether tag is active.
func (c TagContext) Contains(tag string) bool {
	for _, current := range c.ordered {
		if current == tag {
			return true
		}
	}
	return false
}

// Strongest returns the highest priority tag, or "" when the context is empty.
func (c TagContext) Strongest() string {
	if len(c.ordered) == 0 {
		return ""
	}
	return c.ordered[0]
}

// String renders the context for logs, e.g. "production,test".
func (c TagContext) String() string {
	if len(c.ordered) == 0 {
		return DefaultScope
	}
	return strings.Join(c.ordered, ",")
}
