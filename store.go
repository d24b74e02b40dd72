package tagconfig

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrStoreNameRequired indicates a store was created without a name.
	ErrStoreNameRequired = errors.New("tagconfig: store name must be provided")
	// ErrKeyRequired indicates a source produced an entry with an empty key.
	ErrKeyRequired = errors.New("tagconfig: entry key must be provided")
)

type entryKey struct {
	key string
	tag string
}

// Store is an immutable set of entries assembled from one or more sources.
// For a given key and tag the value from the most recently added source wins.
type Store struct {
	name    string
	sources []string
	values  map[entryKey]string
	keys    []string
	tags    []string
}

// NewStore loads every source in order and freezes the result. Later sources
// override earlier ones for the same key and tag. Entry tags are trimmed; a
// tag that is blank after trimming or equal to DefaultScope is rejected.
func NewStore(name string, sources ...Source) (*Store, error) {
	if name == "" {
		return nil, ErrStoreNameRequired
	}
	store := &Store{
		name:   name,
		values: make(map[entryKey]string),
	}
	keySet := map[string]struct{}{}
	tagSet := map[string]struct{}{}
	for i, source := range sources {
		if source == nil {
			continue
		}
		sourceName := source.Name()
		if sourceName == "" {
			sourceName = fmt.Sprintf("source[%d]", i)
		}
		entries, err := source.Entries()
		if err != nil {
			return nil, fmt.Errorf("tagconfig: store %q: load %s: %w", name, sourceName, err)
		}
		for _, entry := range entries {
			if entry.Key == "" {
				return nil, fmt.Errorf("%w: store %q source %s", ErrKeyRequired, name, sourceName)
			}
			tag, err := entryTag(entry.Tag)
			if err != nil {
				return nil, fmt.Errorf("%w: store %q source %s key %q", err, name, sourceName, entry.Key)
			}
			entry.Tag = tag
			store.values[entryKey{key: entry.Key, tag: entry.Tag}] = entry.Value
			keySet[entry.Key] = struct{}{}
			if entry.Tagged() {
				tagSet[entry.Tag] = struct{}{}
			}
		}
		store.sources = append(store.sources, sourceName)
	}
	store.keys = sortedSet(keySet)
	store.tags = sortedSet(tagSet)
	return store, nil
}

func entryTag(tag string) (string, error) {
	if tag == "" {
		return "", nil
	}
	trimmed := strings.TrimSpace(tag)
	if trimmed == "" || trimmed == DefaultScope {
		return "", fmt.Errorf("%w %q", ErrInvalidTag, tag)
	}
	return trimmed, nil
}

// Name returns the store name used in traces and errors.
func (s *Store) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Sources lists the loaded source names in addition order.
func (s *Store) Sources() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.sources...)
}

// Lookup returns the value stored for key under tag. Use an empty tag for the
// default scope.
func (s *Store) Lookup(key, tag string) (string, bool) {
	if s == nil {
		return "", false
	}
	value, ok := s.values[entryKey{key: key, tag: tag}]
	return value, ok
}

// Keys returns every key known to the store across all tags, sorted.
func (s *Store) Keys() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.keys...)
}

// Tags returns every tag declared by entries in the store, sorted.
func (s *Store) Tags() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.tags...)
}

// Len returns the number of distinct key/tag pairs.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for value := range set {
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}
