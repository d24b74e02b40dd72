package tagconfig

import "sort"

// Entry is a single key/value pair contributed by a source. An empty Tag
// places the entry in the default scope.
type Entry struct {
	Key   string
	Value string
	Tag   string
}

// Tagged reports whether the entry belongs to a named tag.
func (e Entry) Tagged() bool {
	return e.Tag != ""
}

// Source hands the builder an already materialized set of entries. Parsing
// file formats, environment layouts or flags is the source's concern.
type Source interface {
	Name() string
	Entries() ([]Entry, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc struct {
	Label string
	Load  func() ([]Entry, error)
}

// Name implements Source.
func (s SourceFunc) Name() string {
	if s.Label == "" {
		return "func"
	}
	return s.Label
}

// Entries implements Source.
func (s SourceFunc) Entries() ([]Entry, error) {
	if s.Load == nil {
		return nil, nil
	}
	return s.Load()
}

type entriesSource struct {
	name    string
	entries []Entry
}

// EntriesSource wraps a fixed list of entries. The slice is copied.
func EntriesSource(name string, entries ...Entry) Source {
	return entriesSource{
		name:    name,
		entries: append([]Entry(nil), entries...),
	}
}

func (s entriesSource) Name() string { return s.name }

func (s entriesSource) Entries() ([]Entry, error) {
	return append([]Entry(nil), s.entries...), nil
}

// MapSource builds an untagged source from a flat map. Keys are emitted in
// sorted order so the resulting entries are deterministic.
func MapSource(name string, values map[string]string) Source {
	return TaggedMapSource(name, "", values)
}

// TaggedMapSource builds a source whose entries all belong to tag.
func TaggedMapSource(name, tag string, values map[string]string) Source {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, Entry{Key: key, Value: values[key], Tag: tag})
	}
	return entriesSource{name: name, entries: entries}
}
