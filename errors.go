package tagconfig

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrKeyNotFound matches *KeyNotFoundError.
	ErrKeyNotFound = errors.New("tagconfig: key not found")
	// ErrTypeConversion matches *TypeConversionError.
	ErrTypeConversion = errors.New("tagconfig: type conversion failed")
	// ErrCircularReference matches *CircularReferenceError.
	ErrCircularReference = errors.New("tagconfig: circular reference")
	// ErrUnresolvedReference matches *UnresolvedReferenceError.
	ErrUnresolvedReference = errors.New("tagconfig: unresolved reference")
	// ErrNoConverter indicates no converter is registered for a target type.
	ErrNoConverter = errors.New("tagconfig: no converter registered")
)

// KeyNotFoundError reports a key absent from every active tag and the
// default scope.
type KeyNotFoundError struct {
	Key  string
	Tags []string
}

func (e *KeyNotFoundError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("tagconfig: key %q not found (tags=%s)", e.Key, describeTags(e.Tags))
}

// Is matches ErrKeyNotFound.
func (e *KeyNotFoundError) Is(target error) bool {
	return target == ErrKeyNotFound
}

// TypeConversionError reports a resolved value that could not be coerced to
// the requested type.
type TypeConversionError struct {
	Key   string
	Value string
	Type  reflect.Type
	Err   error
}

func (e *TypeConversionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("tagconfig: key %q value %q cannot convert to %s: %v", e.Key, e.Value, typeLabel(e.Type), e.Err)
}

// Is matches ErrTypeConversion.
func (e *TypeConversionError) Is(target error) bool {
	return target == ErrTypeConversion
}

func (e *TypeConversionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CircularReferenceError reports an interpolation cycle. Path lists the keys
// on the expansion path ending with the repeated key, e.g. [a b a].
type CircularReferenceError struct {
	Key  string
	Path []string
}

func (e *CircularReferenceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("tagconfig: circular reference on key %q: %s", e.Key, strings.Join(e.Path, " -> "))
}

// Is matches ErrCircularReference.
func (e *CircularReferenceError) Is(target error) bool {
	return target == ErrCircularReference
}

// UnresolvedReferenceError reports a placeholder whose key does not resolve.
type UnresolvedReferenceError struct {
	Key       string
	Reference string
	Path      []string
}

func (e *UnresolvedReferenceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("tagconfig: key %q references missing key %q", e.Key, e.Reference)
}

// Is matches ErrUnresolvedReference.
func (e *UnresolvedReferenceError) Is(target error) bool {
	return target == ErrUnresolvedReference
}

func describeTags(tags []string) string {
	if len(tags) == 0 {
		return DefaultScope
	}
	return strings.Join(tags, ",")
}

func typeLabel(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
