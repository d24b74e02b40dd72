package tagconfig

import (
	"errors"
	"reflect"

	"github.com/goliatone/go-tagconfig/internal/bind"
)

// ErrRequiredKey is returned (joined) by Bind when a `,required` field has no
// value and no default.
var ErrRequiredKey = bind.ErrRequired

// Bind builds a T from `config:"key"` struct tags resolved under prefix (use
// "" for top-level keys). When T implements Validate() error it runs after
// every field is populated.
func Bind[T any](c *Configuration, prefix string) (T, error) {
	decoder := bind.NewDecoder(
		bind.WithPrefix[T](prefix),
		bind.WithPostHook(func(_ bind.Context, value *T) error {
			return validateValue(*value)
		}),
	)
	return decoder.Decode(bindSource{c})
}

// Populate fills the struct pointed to by target. Fields whose keys are
// missing keep their current value.
func (c *Configuration) Populate(target any) error {
	return bind.Populate(bindSource{c}, target, "")
}

type bindSource struct {
	c *Configuration
}

func (s bindSource) Lookup(key string) (string, bool, error) {
	value, _, err := s.c.lookup(key)
	if errors.Is(err, ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s bindSource) Convert(key, value string, t reflect.Type) (any, error) {
	return s.c.convert(key, value, t)
}

func validateValue[T any](value T) error {
	if v, ok := any(value).(interface{ Validate() error }); ok {
		return v.Validate()
	}
	if v, ok := any(&value).(interface{ Validate() error }); ok {
		return v.Validate()
	}
	return nil
}
