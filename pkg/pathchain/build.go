// Package pathchain assembles render output paths from an ordered chain of
// typed tags.
//
// Each tag renders a fragment. Fragments are joined with "_" unless the path
// so far already ends in a separator or underscore, and the result is cleaned
// of doubled and dangling separators.
package pathchain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jlrickert/renderpath/pkg/version"
)

// MaxPathLength is the longest path Validate accepts, in runes.
const MaxPathLength = 260

var videoFormats = map[string]bool{"mov": true, "mp4": true, "avi": true, "mkv": true}

// KnownExtensions are the extensions Validate accepts.
var KnownExtensions = []string{"exr", "dpx", "jpg", "jpeg", "png", "tif", "tiff", "mov", "mp4"}

// Build folds tags into a path. In live mode frame numbers and host
// expressions are filled from c.
func Build(tags []Tag, c Context, live bool) (string, error) {
	var b strings.Builder
	for i, t := range tags {
		value, err := resolve(t, c, live)
		if err != nil {
			return "", fmt.Errorf("tag %d (%q): %w", i, t.Name, err)
		}
		if value == "" {
			continue
		}
		if t.Kind != KindSeparator && needsJoin(b.String()) {
			b.WriteByte('_')
		}
		b.WriteString(value)
	}
	return Clean(b.String()), nil
}

func needsJoin(prev string) bool {
	if prev == "" {
		return false
	}
	switch prev[len(prev)-1] {
	case '/', '\\', '_':
		return false
	}
	return true
}

func resolve(t Tag, c Context, live bool) (string, error) {
	switch t.Kind {
	case KindText:
		v := t.Default
		if v == "" {
			v = t.Name
		}
		if v == "[read_name]" {
			if rn, ok := c.Lookup(KeyReadName); ok {
				return rn, nil
			}
		}
		return v, nil
	case KindSeparator:
		if t.Value == "" {
			return "/", nil
		}
		return t.Value, nil
	case KindDynamic:
		return resolveDynamic(t, c), nil
	case KindFormat:
		return resolveFormat(t, c, live), nil
	case KindVersion:
		if t.Version == "" {
			return DefaultVersion, nil
		}
		return t.Version, nil
	case KindExpression:
		if live {
			return EvalExpression(t.Expression, c), nil
		}
		return t.Expression, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownKind, int(t.Kind))
	}
}

func resolveFormat(t Tag, c Context, live bool) string {
	ext := strings.TrimPrefix(t.Format, ".")
	if ext == "" {
		ext = DefaultFormat
	}
	if videoFormats[strings.ToLower(ext)] {
		return "." + ext
	}
	padding := t.Padding
	if padding == "" {
		padding = DefaultPadding
	}
	if live {
		if frame, ok := c.Lookup(KeyFrame); ok {
			if n, err := strconv.Atoi(frame); err == nil {
				return fmt.Sprintf(".%0*d.%s", paddingWidth(padding), n, ext)
			}
		}
	}
	return "." + padding + "." + ext
}

var printfPadding = regexp.MustCompile(`^%0?(\d*)d$`)

// paddingWidth reads the digit count from "%04d", "####" or "@@@".
func paddingWidth(padding string) int {
	if m := printfPadding.FindStringSubmatch(padding); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
		return 1
	}
	if strings.Trim(padding, "#") == "" || strings.Trim(padding, "@") == "" {
		return len(padding)
	}
	return 4
}

var (
	runsUnderscore = regexp.MustCompile(`_{2,}`)
	runsSlash      = regexp.MustCompile(`/{2,}`)
	runsBackslash  = regexp.MustCompile(`\\{2,}`)
	underBeforeSep = regexp.MustCompile(`_+([/\\])`)
	underAfterSep  = regexp.MustCompile(`([/\\])_+`)
	underBeforeDot = regexp.MustCompile(`_+\.`)
)

// Clean collapses repeated underscores and slashes and removes underscores
// that touch a path separator or precede a dot.
func Clean(path string) string {
	path = runsUnderscore.ReplaceAllString(path, "_")
	path = runsSlash.ReplaceAllString(path, "/")
	path = runsBackslash.ReplaceAllString(path, `\`)
	path = underBeforeSep.ReplaceAllString(path, "$1")
	path = underAfterSep.ReplaceAllString(path, "$1")
	path = underBeforeDot.ReplaceAllString(path, ".")
	return path
}

// Validation issues reported by Validate.
const (
	IssueEmpty        = "path is empty"
	IssueInvalidChars = "path contains invalid characters"
	IssueTooLong      = "path too long (>260 characters)"
	IssueExtension    = "unknown or missing file extension"
	IssueNoVersion    = "no version found in path"
)

// Validate checks path for common mistakes. Every check runs; the result is
// advisory and never stops a build.
func Validate(path string) (bool, []string) {
	var issues []string
	if path == "" {
		issues = append(issues, IssueEmpty)
	}
	if strings.ContainsAny(path, `<>|"?*`) {
		issues = append(issues, IssueInvalidChars)
	}
	if utf8.RuneCountInString(path) > MaxPathLength {
		issues = append(issues, IssueTooLong)
	}
	if !hasKnownExtension(path) {
		issues = append(issues, IssueExtension)
	}
	if _, ok := version.Extract(path); !ok {
		issues = append(issues, IssueNoVersion)
	}
	return len(issues) == 0, issues
}

func hasKnownExtension(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range KnownExtensions {
		if strings.HasSuffix(lower, "."+ext) {
			return true
		}
	}
	return false
}
