package tagconfig

import (
	"encoding"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Converter turns a resolved string into a value of a specific type.
type Converter func(value string) (any, error)

// ConverterRegistry stores converters keyed by target type.
type ConverterRegistry struct {
	mu         sync.RWMutex
	converters map[reflect.Type]Converter
}

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	urlPointerType      = reflect.TypeOf((*url.URL)(nil))
	stringSliceType     = reflect.TypeOf([]string(nil))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// NewConverterRegistry constructs a registry preloaded with the builtin
// converters.
func NewConverterRegistry() *ConverterRegistry {
	r := &ConverterRegistry{converters: make(map[reflect.Type]Converter)}
	r.converters[durationType] = func(value string) (any, error) {
		return time.ParseDuration(strings.TrimSpace(value))
	}
	r.converters[urlPointerType] = func(value string) (any, error) {
		return url.Parse(strings.TrimSpace(value))
	}
	r.converters[stringSliceType] = func(value string) (any, error) {
		return splitList(value), nil
	}
	return r
}

// Register stores fn for t, replacing any previous converter.
func (r *ConverterRegistry) Register(t reflect.Type, fn Converter) error {
	if t == nil {
		return fmt.Errorf("tagconfig: converter type must not be nil")
	}
	if fn == nil {
		return fmt.Errorf("tagconfig: converter for %s is nil", t)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.converters == nil {
		r.converters = make(map[reflect.Type]Converter)
	}
	r.converters[t] = fn
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *ConverterRegistry) Clone() *ConverterRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &ConverterRegistry{converters: make(map[reflect.Type]Converter, len(r.converters))}
	for t, fn := range r.converters {
		clone.converters[t] = fn
	}
	return clone
}

// Convert coerces value into t. Lookup order: registered converter,
// encoding.TextUnmarshaler, then the builtin parser for t's kind.
func (r *ConverterRegistry) Convert(t reflect.Type, value string) (any, error) {
	if t == nil {
		return nil, ErrNoConverter
	}
	if r != nil {
		r.mu.RLock()
		fn := r.converters[t]
		r.mu.RUnlock()
		if fn != nil {
			out, err := fn(value)
			if err != nil {
				return nil, err
			}
			return assignable(t, out)
		}
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		target := reflect.New(t)
		if err := target.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(value)); err != nil {
			return nil, err
		}
		return target.Elem().Interface(), nil
	}
	return convertKind(t, value)
}

func convertKind(t reflect.Type, value string) (any, error) {
	out := reflect.New(t).Elem()
	trimmed := strings.TrimSpace(value)
	switch t.Kind() {
	case reflect.String:
		out.SetString(value)
	case reflect.Bool:
		parsed, err := strconv.ParseBool(trimmed)
		if err != nil {
			return nil, err
		}
		out.SetBool(parsed)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		parsed, err := strconv.ParseInt(trimmed, 10, t.Bits())
		if err != nil {
			return nil, err
		}
		out.SetInt(parsed)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		parsed, err := strconv.ParseUint(trimmed, 10, t.Bits())
		if err != nil {
			return nil, err
		}
		out.SetUint(parsed)
	case reflect.Float32, reflect.Float64:
		parsed, err := strconv.ParseFloat(trimmed, t.Bits())
		if err != nil {
			return nil, err
		}
		out.SetFloat(parsed)
	case reflect.Interface:
		if t.NumMethod() != 0 {
			return nil, ErrNoConverter
		}
		out.Set(reflect.ValueOf(value))
	default:
		return nil, ErrNoConverter
	}
	return out.Interface(), nil
}

func assignable(t reflect.Type, value any) (any, error) {
	if value == nil {
		return reflect.Zero(t).Interface(), nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(t) {
		return value, nil
	}
	if rv.Type().ConvertibleTo(t) {
		return rv.Convert(t).Interface(), nil
	}
	return nil, fmt.Errorf("converter returned %T", value)
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
