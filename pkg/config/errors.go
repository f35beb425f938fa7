package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig indicates the configuration failed to parse or validate.
var ErrInvalidConfig = errors.New("invalid config")

// InvalidConfigError carries the file and the problem found in it.
type InvalidConfigError struct {
	Path string
	Msg  string
	Err  error
}

func (e *InvalidConfigError) Error() string {
	msg := "invalid config"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *InvalidConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func (e *InvalidConfigError) Unwrap() error { return e.Err }

// IsInvalidConfig reports whether err is (or wraps) an invalid-config
// condition.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
