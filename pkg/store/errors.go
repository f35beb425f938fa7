package store

import (
	"errors"
	"fmt"
	"os"
)

// Sentinel errors used for simple equality-style checks.
var (
	ErrNotFound = os.ErrNotExist // tag, preset, category, or backup missing
	ErrInvalid  = os.ErrInvalid  // invalid argument or stored document
	ErrExist    = os.ErrExist    // rename target already taken

	// ErrReadOnly is returned when a caller tries to change a built-in tag,
	// preset, or category.
	ErrReadOnly = errors.New("read-only")
)

// NotFoundError carries the kind and name of a missing catalog entry.
type NotFoundError struct {
	Kind string // "tag", "preset", "category", "backup"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %q", e.Kind, e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError constructs a typed NotFoundError.
func NewNotFoundError(kind, name string) error {
	return &NotFoundError{Kind: kind, Name: name}
}

// ReadOnlyError reports an attempted change to a built-in entry.
type ReadOnlyError struct {
	Kind string
	Name string
	Op   string // "save", "delete", "rename", "remove"
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("cannot %s built-in %s %q", e.Op, e.Kind, e.Name)
}

func (e *ReadOnlyError) Is(target error) bool { return target == ErrReadOnly }

func (e *ReadOnlyError) Unwrap() error { return ErrReadOnly }

// NewReadOnlyError constructs a typed ReadOnlyError.
func NewReadOnlyError(kind, name, op string) error {
	return &ReadOnlyError{Kind: kind, Name: name, Op: op}
}

// IsNotFound reports whether err is (or wraps) a missing-entry condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsReadOnly reports whether err is (or wraps) a read-only condition.
func IsReadOnly(err error) bool {
	return errors.Is(err, ErrReadOnly)
}
