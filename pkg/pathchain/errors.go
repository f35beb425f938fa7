package pathchain

import "errors"

var (
	// ErrUnknownKind is returned for a tag kind outside the closed set.
	ErrUnknownKind = errors.New("unknown tag kind")

	// ErrInvalidTag is returned by Tag.Validate.
	ErrInvalidTag = errors.New("invalid tag")
)
