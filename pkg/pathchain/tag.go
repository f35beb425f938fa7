package pathchain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jlrickert/renderpath/pkg/version"
)

const (
	DefaultCategory = "General"
	DefaultPadding  = "%04d"
	DefaultVersion  = "v01"
	DefaultFormat   = "exr"

	SourceDefault = "default"
	SourceCustom  = "custom"
)

// Tag is one link in a path chain. Which fields matter depends on Kind.
type Tag struct {
	Name     string `json:"name" yaml:"name"`
	Kind     Kind   `json:"type" yaml:"type"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Source   string `json:"source,omitempty" yaml:"source,omitempty"`

	Default    string `json:"default,omitempty" yaml:"default,omitempty"`
	Value      string `json:"value,omitempty" yaml:"value,omitempty"`
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty"`

	Format  string `json:"format,omitempty" yaml:"format,omitempty"`
	Padding string `json:"padding,omitempty" yaml:"padding,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	Created string `json:"created,omitempty" yaml:"created,omitempty"`
	Author  string `json:"author,omitempty" yaml:"author,omitempty"`
}

// Text returns a literal tag. An empty def renders the name.
func Text(name, def string) Tag {
	return Tag{Name: name, Kind: KindText, Category: DefaultCategory, Default: def}
}

// Separator returns a separator tag. An empty value renders "/".
func Separator(value string) Tag {
	name := "separator"
	switch value {
	case "", "/":
		name = "slash"
	case "_":
		name = "underscore"
	case "-":
		name = "dash"
	case ".":
		name = "dot"
	}
	return Tag{Name: name, Kind: KindSeparator, Category: "System", Value: value}
}

// Dynamic returns a tag resolved from the context at build time.
func Dynamic(name string) Tag {
	return Tag{Name: name, Kind: KindDynamic, Category: DefaultCategory}
}

// FormatTag returns the file extension tag. Empty arguments take the
// package defaults.
func FormatTag(ext, padding string) Tag {
	if ext == "" {
		ext = DefaultFormat
	}
	if padding == "" {
		padding = DefaultPadding
	}
	return Tag{
		Name:     "format",
		Kind:     KindFormat,
		Category: "System",
		Format:   strings.TrimPrefix(ext, "."),
		Padding:  padding,
	}
}

// VersionTag returns a version tag. An empty v means v01.
func VersionTag(v string) Tag {
	if v == "" {
		v = DefaultVersion
	}
	return Tag{Name: "version", Kind: KindVersion, Category: "System", Version: v}
}

// Expression returns a tag that emits a host expression.
func Expression(name, expr string) Tag {
	return Tag{Name: name, Kind: KindExpression, Category: DefaultCategory, Expression: expr}
}

// IsDefault reports whether the tag came from the built-in catalog.
func (t Tag) IsDefault() bool {
	return t.Source == SourceDefault
}

// DisplayValue is the short human form shown in listings.
func (t Tag) DisplayValue() string {
	switch t.Kind {
	case KindSeparator:
		if t.Value == "" {
			return "/"
		}
		return t.Value
	case KindFormat:
		if t.Format == "" {
			return DefaultFormat
		}
		return t.Format
	case KindVersion:
		if t.Version == "" {
			return DefaultVersion
		}
		return t.Version
	case KindExpression:
		return t.Expression
	default:
		if t.Default != "" {
			return t.Default
		}
		return t.Name
	}
}

// Validate reports every problem with the tag definition.
func (t Tag) Validate() error {
	var errs []error
	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	switch t.Kind {
	case KindText, KindSeparator, KindDynamic:
	case KindFormat:
		if t.Format == "" {
			errs = append(errs, errors.New("format tags need an extension"))
		}
	case KindVersion:
		if t.Version != "" && !version.ValidFormat(t.Version) {
			errs = append(errs, fmt.Errorf("version %q is not vNN", t.Version))
		}
	case KindExpression:
		if t.Expression == "" {
			errs = append(errs, errors.New("expression tags need an expression"))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %d", ErrUnknownKind, int(t.Kind)))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w %q: %w", ErrInvalidTag, t.Name, errors.Join(errs...))
}
