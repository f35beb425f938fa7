package pathchain

import (
	"fmt"
	"strings"
)

// Kind selects how a tag produces its path fragment.
type Kind int

const (
	KindText Kind = iota
	KindSeparator
	KindDynamic
	KindFormat
	KindVersion
	KindExpression
)

var kindNames = [...]string{
	KindText:       "text",
	KindSeparator:  "separator",
	KindDynamic:    "dynamic",
	KindFormat:     "format",
	KindVersion:    "version",
	KindExpression: "expression",
}

// Kinds lists every valid kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindText, KindSeparator, KindDynamic, KindFormat, KindVersion, KindExpression}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= KindText && k <= KindExpression
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a name such as "separator" to its Kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
