package tagconfig

import (
	"errors"
	"fmt"
)

// ErrDuplicateStoreName indicates a chain received two stores with the same
// name.
var ErrDuplicateStoreName = errors.New("tagconfig: store names must be unique")

// Chain is an immutable, ordered list of stores. Stores added later override
// stores added earlier.
type Chain struct {
	stores []*Store
}

// NewChain validates the supplied stores and keeps them in addition order.
// Nil stores are skipped.
func NewChain(stores ...*Store) (*Chain, error) {
	seen := make(map[string]struct{}, len(stores))
	kept := make([]*Store, 0, len(stores))
	for _, store := range stores {
		if store == nil {
			continue
		}
		if store.Name() == "" {
			return nil, ErrStoreNameRequired
		}
		if _, ok := seen[store.Name()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStoreName, store.Name())
		}
		seen[store.Name()] = struct{}{}
		kept = append(kept, store)
	}
	return &Chain{stores: kept}, nil
}

// Stores returns the stores in addition order (weakest first).
func (c *Chain) Stores() []*Store {
	if c == nil || len(c.stores) == 0 {
		return nil
	}
	return append([]*Store(nil), c.stores...)
}

// Len returns the number of stores in the chain.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.stores)
}

// Keys returns the union of keys across every store, sorted.
func (c *Chain) Keys() []string {
	if c == nil {
		return nil
	}
	set := map[string]struct{}{}
	for _, store := range c.stores {
		for _, key := range store.keys {
			set[key] = struct{}{}
		}
	}
	return sortedSet(set)
}
