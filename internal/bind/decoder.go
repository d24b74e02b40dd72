package bind

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// DefaultTagName is the struct tag read by the decoder.
const DefaultTagName = "config"

// ErrRequired indicates a required key resolved to nothing.
var ErrRequired = errors.New("bind: required key missing")

// Source supplies resolved values and converts them to field types.
type Source interface {
	Lookup(key string) (value string, found bool, err error)
	Convert(key, value string, t reflect.Type) (any, error)
}

// Context identifies the field being populated when a hook runs.
type Context struct {
	Prefix string
}

// PostHook lets callers adjust or validate the populated struct.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder populates structs from `config:"key"` field tags.
//
// Tag grammar: `config:"key[,required][,prefix]"`. A `prefix` field must be a
// struct; its own tags are resolved under "key.". `config:"-"` and untagged
// fields are skipped. A `default:"..."` tag supplies a value when the key is
// missing.
type Decoder[T any] struct {
	tagName   string
	prefix    string
	postHooks []PostHook[T]
}

// WithPrefix resolves every key under prefix + ".".
func WithPrefix[T any](prefix string) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.prefix = strings.Trim(prefix, ".")
	}
}

// WithTagName overrides the struct tag name.
func WithTagName[T any](name string) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if name != "" {
			d.tagName = name
		}
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{tagName: DefaultTagName}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode builds a fresh T from source.
func (d *Decoder[T]) Decode(source Source) (T, error) {
	var result T
	if err := d.Into(source, &result); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Into populates target in place. Fields whose keys are missing keep their
// current value.
func (d *Decoder[T]) Into(source Source, target *T) error {
	if source == nil {
		return fmt.Errorf("bind: source is nil")
	}
	if target == nil {
		return fmt.Errorf("bind: target is nil")
	}
	value := reflect.ValueOf(target).Elem()
	if value.Kind() != reflect.Struct {
		return fmt.Errorf("bind: target must be a struct, got %s", value.Type())
	}
	if err := populate(source, value, d.prefix, d.tagName); err != nil {
		return err
	}
	ctx := Context{Prefix: d.prefix}
	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, target); err != nil {
			return fmt.Errorf("bind: post-hook for prefix %q failed: %w", d.prefix, err)
		}
	}
	return nil
}

// Populate fills the struct pointed to by target without generics.
func Populate(source Source, target any, prefix string) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bind: target must be a non-nil pointer to struct, got %T", target)
	}
	return populate(source, rv.Elem(), strings.Trim(prefix, "."), DefaultTagName)
}

func populate(source Source, value reflect.Value, prefix, tagName string) error {
	var errs []error
	typ := value.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		spec, ok := parseTag(field.Tag.Get(tagName))
		if !ok {
			continue
		}
		key := joinKey(prefix, spec.key)
		target := value.Field(i)
		if spec.nested {
			if target.Kind() != reflect.Struct {
				errs = append(errs, fmt.Errorf("bind: field %s: prefix requires a struct, got %s", field.Name, target.Type()))
				continue
			}
			if err := populate(source, target, key, tagName); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		raw, found, err := source.Lookup(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("bind: field %s: %w", field.Name, err))
			continue
		}
		if !found {
			if def, has := field.Tag.Lookup("default"); has {
				raw, found = def, true
			}
		}
		if !found {
			if spec.required {
				errs = append(errs, fmt.Errorf("%w: %q (field %s)", ErrRequired, key, field.Name))
			}
			continue
		}
		converted, err := source.Convert(key, raw, field.Type)
		if err != nil {
			errs = append(errs, fmt.Errorf("bind: field %s: %w", field.Name, err))
			continue
		}
		if converted == nil {
			target.Set(reflect.Zero(field.Type))
			continue
		}
		target.Set(reflect.ValueOf(converted))
	}
	return errors.Join(errs...)
}

type tagSpec struct {
	key      string
	required bool
	nested   bool
}

func parseTag(tag string) (tagSpec, bool) {
	if tag == "" || tag == "-" {
		return tagSpec{}, false
	}
	parts := strings.Split(tag, ",")
	spec := tagSpec{key: strings.TrimSpace(parts[0])}
	if spec.key == "" {
		return tagSpec{}, false
	}
	for _, opt := range parts[1:] {
		switch strings.TrimSpace(opt) {
		case "required":
			spec.required = true
		case "prefix":
			spec.nested = true
		}
	}
	return spec, true
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
