package tagconfig

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

// naiveResolve restates the precedence rule without the flattened list: the
// first current tag with a value wins, then the default scope; inside a scope
// the last store wins, and inside a store the last source wins.
func naiveResolve(stores [][][]Entry, tags []string, key string) (string, bool) {
	for _, scope := range append(append([]string{}, tags...), "") {
		for s := len(stores) - 1; s >= 0; s-- {
			sources := stores[s]
			for src := len(sources) - 1; src >= 0; src-- {
				entries := sources[src]
				for e := len(entries) - 1; e >= 0; e-- {
					if entries[e].Key == key && entries[e].Tag == scope {
						return entries[e].Value, true
					}
				}
			}
		}
	}
	return "", false
}

func TestResolutionMatchesPrecedenceModel(t *testing.T) {
	keys := []string{"a", "b", "c"}
	tagPool := []string{"production", "development", "test"}

	rapid.Check(t, func(rt *rapid.T) {
		entryGen := rapid.Custom(func(rt *rapid.T) Entry {
			return Entry{
				Key:   rapid.SampledFrom(keys).Draw(rt, "key"),
				Value: rapid.StringMatching(`[a-z]{1,4}`).Draw(rt, "value"),
				Tag:   rapid.SampledFrom(append([]string{""}, tagPool...)).Draw(rt, "tag"),
			}
		})
		layout := rapid.SliceOfN(
			rapid.SliceOfN(rapid.SliceOfN(entryGen, 0, 5), 1, 3),
			1, 3,
		).Draw(rt, "stores")
		tags := rapid.SliceOfNDistinct(rapid.SampledFrom(tagPool), 0, len(tagPool), rapid.ID[string]).Draw(rt, "tags")

		builder := NewBuilder()
		for i, sources := range layout {
			store := builder.CreateStore(fmt.Sprintf("store-%d", i))
			for j, entries := range sources {
				store.AddEntries(fmt.Sprintf("source-%d", j), entries...)
			}
		}
		cfg, err := builder.AddCurrentTags(tags...).Configuration()
		if err != nil {
			rt.Fatalf("build: %v", err)
		}

		for _, key := range keys {
			want, wantOK := naiveResolve(layout, tags, key)
			got, err := cfg.EvaluateToString(key)
			if !wantOK {
				if !isKeyNotFound(err) {
					rt.Fatalf("key %q: expected not found, got %q err=%v", key, got, err)
				}
				continue
			}
			if err != nil {
				rt.Fatalf("key %q: unexpected error %v", key, err)
			}
			if got != want {
				rt.Fatalf("key %q: expected %q, got %q", key, want, got)
			}
			winner, ok := cfg.Trace(key).Winner()
			if !ok || winner.Value != want {
				rt.Fatalf("key %q: trace winner %+v disagrees with %q", key, winner, want)
			}
		}
	})
}

func BenchmarkEvaluateToString(b *testing.B) {
	values := make(map[string]string, 64)
	for i := 0; i < 64; i++ {
		values[fmt.Sprintf("key.%d", i)] = fmt.Sprintf("value-%d", i)
	}
	values["url"] = "http://${key.1}/${key.2}"
	cfg, err := NewBuilder().
		CreateStore("base").AddSource(MapSource("base", values)).Done().
		CreateStore("override").AddSource(TaggedMapSource("prod", "production", map[string]string{"key.2": "prod"})).Done().
		CreateSystemPropertiesStore().
		AddCurrentTags("production", "development").
		Configuration()
	if err != nil {
		b.Fatalf("build: %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cfg.EvaluateToString("url"); err != nil {
			b.Fatal(err)
		}
	}
}
