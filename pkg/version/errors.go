package version

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable marks a filesystem lookup that could not be performed.
	// Resolver methods still return a usable, un-collided path alongside it.
	ErrUnavailable = errors.New("filesystem unavailable")

	// ErrInvalidFormat is returned when a version string is not "v" plus one
	// to three digits.
	ErrInvalidFormat = errors.New("invalid version format")
)

// FSError describes a failed existence check or directory listing.
type FSError struct {
	Op   string // "stat" or "list"
	Path string
	Err  error
}

func (e *FSError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FSError) Unwrap() error { return e.Err }

func (e *FSError) Is(target error) bool {
	return target == ErrUnavailable
}

// IsUnavailable reports whether err is (or wraps) a filesystem failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
