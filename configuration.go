package tagconfig

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Configuration is an immutable resolution session: a store chain, the
// current tags and the settings used to evaluate keys. It is safe for
// concurrent use.
type Configuration struct {
	id       string
	chain    *Chain
	tags     TagContext
	resolver resolver
	interp   interpolator
	cfg      settings
}

// New builds a session directly from a chain and tags. Most callers use
// Builder instead.
func New(chain *Chain, tags TagContext, opts ...Option) *Configuration {
	return newConfiguration(chain, tags, applyOptions(opts))
}

func newConfiguration(chain *Chain, tags TagContext, cfg settings) *Configuration {
	if chain == nil {
		chain = &Chain{}
	}
	if cfg.converters == nil {
		cfg.converters = NewConverterRegistry()
	}
	c := &Configuration{
		id:       uuid.NewString(),
		chain:    chain,
		tags:     tags,
		resolver: newResolver(chain, tags),
		cfg:      cfg,
	}
	c.interp = interpolator{lookup: c.resolver.resolve}
	return c
}

// ID identifies the session in logs and activity events.
func (c *Configuration) ID() string {
	return c.id
}

// Tags returns the current tags, strongest first.
func (c *Configuration) Tags() []string {
	return c.tags.Ordered()
}

// Chain returns the underlying store chain.
func (c *Configuration) Chain() *Chain {
	return c.chain
}

// WithTags returns a sibling session over the same stores with a different
// tag context.
func (c *Configuration) WithTags(tags ...string) (*Configuration, error) {
	ctx, err := NewTagContext(tags...)
	if err != nil {
		return nil, err
	}
	return newConfiguration(c.chain, ctx, c.cfg), nil
}

// Has reports whether key resolves under the current tags.
func (c *Configuration) Has(key string) bool {
	_, ok := c.resolver.resolve(key)
	return ok
}

// Keys lists every key that resolves under the current tags, sorted.
func (c *Configuration) Keys() []string {
	var out []string
	for _, key := range c.chain.Keys() {
		if c.Has(key) {
			out = append(out, key)
		}
	}
	return out
}

// Snapshot resolves and interpolates every visible key.
func (c *Configuration) Snapshot() (map[string]string, error) {
	keys := c.Keys()
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		value, _, err := c.lookup(key)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

// Trace lists every candidate consulted for key, strongest first.
func (c *Configuration) Trace(key string) Trace {
	trace := c.resolver.trace(key)
	trace.Tags = c.tags.Ordered()
	return trace
}

// EvaluateToString resolves key and expands its placeholders.
func (c *Configuration) EvaluateToString(key string) (string, error) {
	start := time.Now()
	value, res, err := c.lookup(key)
	c.logResolution("evaluate_to_string", key, res, false, start, err)
	if err != nil {
		return "", err
	}
	return value, nil
}

// EvaluateTo resolves key and coerces it to the dynamic type of def. When key
// is missing def is returned as is. A nil def yields the string value.
func (c *Configuration) EvaluateTo(key string, def any) (any, error) {
	start := time.Now()
	value, res, err := c.lookup(key)
	if isKeyNotFound(err) {
		c.logResolution("evaluate_to", key, res, true, start, nil)
		return def, nil
	}
	if err == nil && def != nil {
		var converted any
		converted, err = c.convert(key, value, reflect.TypeOf(def))
		if err == nil {
			c.logResolution("evaluate_to", key, res, false, start, nil)
			return converted, nil
		}
	}
	c.logResolution("evaluate_to", key, res, false, start, err)
	if err != nil {
		return nil, err
	}
	return value, nil
}

// EvaluateType resolves key and coerces it to t. There is no default in this
// form; a missing key fails with KeyNotFoundError.
func (c *Configuration) EvaluateType(t reflect.Type, key string) (any, error) {
	start := time.Now()
	value, res, err := c.lookup(key)
	if err == nil {
		var converted any
		converted, err = c.convert(key, value, t)
		if err == nil {
			c.logResolution("evaluate_type", key, res, false, start, nil)
			return converted, nil
		}
	}
	c.logResolution("evaluate_type", key, res, false, start, err)
	return nil, err
}

// EvaluateAs resolves key and coerces it to T.
func EvaluateAs[T any](c *Configuration, key string) (T, error) {
	var zero T
	value, err := c.EvaluateType(reflect.TypeOf((*T)(nil)).Elem(), key)
	if err != nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, &TypeConversionError{
			Key:  key,
			Type: reflect.TypeOf((*T)(nil)).Elem(),
			Err:  fmt.Errorf("converter returned %T", value),
		}
	}
	return typed, nil
}

// EvaluateOr resolves key and coerces it to T, returning def untouched when
// key is missing. Conversion and interpolation failures are still reported.
func EvaluateOr[T any](c *Configuration, key string, def T) (T, error) {
	value, err := EvaluateAs[T](c, key)
	if isKeyNotFound(err) {
		return def, nil
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}

// lookup resolves key and expands placeholders.
func (c *Configuration) lookup(key string) (string, resolution, error) {
	res, ok := c.resolver.resolve(key)
	if !ok {
		return "", res, &KeyNotFoundError{Key: key, Tags: c.tags.Ordered()}
	}
	value, err := c.interp.expandKey(key, res.Value)
	if err != nil {
		return "", res, err
	}
	return value, res, nil
}

func (c *Configuration) convert(key, value string, t reflect.Type) (any, error) {
	converted, err := c.cfg.converters.Convert(t, value)
	if err != nil {
		return nil, &TypeConversionError{Key: key, Value: value, Type: t, Err: err}
	}
	return converted, nil
}

func (c *Configuration) logResolution(op, key string, res resolution, defaulted bool, start time.Time, err error) {
	c.cfg.resolutionLogger().LogResolution(ResolutionLogEvent{
		Operation: op,
		Key:       key,
		Tag:       candidate{tag: res.Tag}.scopeLabel(),
		Store:     res.Store,
		Tags:      c.tags.Ordered(),
		Found:     res.Store != "",
		Defaulted: defaulted,
		Duration:  time.Since(start),
		Err:       err,
	})
}

func isKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}
