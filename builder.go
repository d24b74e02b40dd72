package tagconfig

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-tagconfig/pkg/activity"
)

// Builder assembles stores and current tags into a Configuration. A Builder
// is not safe for concurrent use and is meant to be used once.
type Builder struct {
	cfg    settings
	stores []*StoreBuilder
	tags   []string
}

// StoreBuilder collects the sources of one store. Sources added later
// override earlier ones for the same key and tag.
type StoreBuilder struct {
	parent   *Builder
	name     string
	sources  []Source
	prebuilt *Store
}

// NewBuilder constructs an empty builder.
func NewBuilder(opts ...Option) *Builder {
	return &Builder{cfg: applyOptions(opts)}
}

// CreateStore starts a new store positioned after every store created so far.
func (b *Builder) CreateStore(name string) *StoreBuilder {
	store := &StoreBuilder{parent: b, name: name}
	b.stores = append(b.stores, store)
	return store
}

// AddSource appends a source to the store.
func (s *StoreBuilder) AddSource(source Source) *StoreBuilder {
	if source != nil {
		s.sources = append(s.sources, source)
	}
	return s
}

// AddEntries appends a literal source built from entries.
func (s *StoreBuilder) AddEntries(name string, entries ...Entry) *StoreBuilder {
	return s.AddSource(EntriesSource(name, entries...))
}

// Done returns to the parent builder.
func (s *StoreBuilder) Done() *Builder {
	return s.parent
}

// AddStore appends an already built store to the chain.
func (b *Builder) AddStore(store *Store) *Builder {
	if store != nil {
		b.stores = append(b.stores, &StoreBuilder{parent: b, name: store.Name(), prebuilt: store})
	}
	return b
}

// CreateSystemPropertiesStore appends a store backed by the process-wide
// system properties as they are at Build time.
func (b *Builder) CreateSystemPropertiesStore() *Builder {
	return b.CreateStore(SystemPropertiesStoreName).AddSource(SystemPropertiesSource()).Done()
}

// CreateEnvironmentStore appends a store backed by environment variables
// starting with prefix.
func (b *Builder) CreateEnvironmentStore(prefix string) *Builder {
	return b.CreateStore(EnvironmentStoreName).AddSource(EnvironmentSource(prefix)).Done()
}

// AddCurrentTag appends tag to the current tags. Tags added first win.
func (b *Builder) AddCurrentTag(tag string) *Builder {
	b.tags = append(b.tags, tag)
	return b
}

// AddCurrentTags appends tags in order.
func (b *Builder) AddCurrentTags(tags ...string) *Builder {
	b.tags = append(b.tags, tags...)
	return b
}

// Build loads every store, freezes the chain and returns the session.
func (b *Builder) Build(ctx context.Context) (*Configuration, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	tags, err := NewTagContext(b.tags...)
	if err != nil {
		return nil, err
	}
	stores := make([]*Store, 0, len(b.stores))
	for _, pending := range b.stores {
		if pending.prebuilt != nil {
			stores = append(stores, pending.prebuilt)
			continue
		}
		store, err := NewStore(pending.name, pending.sources...)
		if err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}
	chain, err := NewChain(stores...)
	if err != nil {
		return nil, err
	}
	config := newConfiguration(chain, tags, b.cfg)
	b.emitBuilt(ctx, config)
	return config, nil
}

// Configuration builds with a background context.
func (b *Builder) Configuration() (*Configuration, error) {
	return b.Build(context.Background())
}

// emitBuilt reports the session to activity hooks. Hook failures are logged
// and never fail the build.
func (b *Builder) emitBuilt(ctx context.Context, config *Configuration) {
	emitter := activity.NewEmitter(b.cfg.activityHooks, b.cfg.activityConfig)
	if !emitter.Enabled() {
		return
	}
	start := time.Now()
	stores := config.chain.Stores()
	events := make([]activity.Event, 0, len(stores)+1)
	for i, store := range stores {
		events = append(events, activity.BuildStoreLoadedEvent(activity.StoreEventInput{
			SessionID: config.ID(),
			Store:     store.Name(),
			Position:  i,
			Sources:   store.Sources(),
			Entries:   store.Len(),
			Tags:      config.Tags(),
		}))
	}
	events = append(events, activity.BuildSessionBuiltEvent(activity.SessionEventInput{
		SessionID: config.ID(),
		Stores:    storeNames(config.chain),
		Tags:      config.Tags(),
	}))
	if err := emitter.EmitAll(ctx, events...); err != nil {
		b.cfg.resolutionLogger().LogResolution(ResolutionLogEvent{
			Operation: "activity",
			Tags:      config.Tags(),
			Duration:  time.Since(start),
			Err:       fmt.Errorf("tagconfig: activity hook: %w", err),
		})
	}
}

func storeNames(chain *Chain) []string {
	stores := chain.Stores()
	out := make([]string, len(stores))
	for i, store := range stores {
		out[i] = store.Name()
	}
	return out
}
