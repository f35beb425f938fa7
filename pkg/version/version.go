// Package version finds, bumps, and resolves "vNN" version tokens embedded in
// render output paths.
//
// Detection runs an ordered table of case-insensitive patterns. The first
// pattern that matches anywhere in the string wins, and within that pattern
// the leftmost match wins. Tokens are normalized to a lowercase "v" followed by
// at least two digits, so "V003" reads back as "v03".
package version

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// pattern is one entry of the detection table. Group 1 spans the "v<digits>"
// token and group 2 the digits, regardless of surrounding context.
type pattern struct {
	Name string
	Re   *regexp.Regexp
}

// Patterns is the fixed priority order used for detection and substitution.
var Patterns = []pattern{
	{Name: "v", Re: regexp.MustCompile(`(?i)(v(\d+))`)},
	{Name: "_v", Re: regexp.MustCompile(`(?i)_(v(\d+))`)},
	{Name: ".v", Re: regexp.MustCompile(`(?i)\.(v(\d+))`)},
	{Name: "v_", Re: regexp.MustCompile(`(?i)(v(\d+))_`)},
	{Name: "v.", Re: regexp.MustCompile(`(?i)(v(\d+))\.`)},
}

var validFormat = regexp.MustCompile(`(?i)^v\d{1,3}$`)

// match is a located token: the byte span of "v<digits>" and its value.
type match struct {
	Start, End int
	Number     int
	Pattern    string
}

// locate applies the pattern table to s and returns the first hit.
func locate(s string) (match, bool) {
	if s == "" {
		return match{}, false
	}
	for _, p := range Patterns {
		idx := p.Re.FindStringSubmatchIndex(s)
		if idx == nil {
			continue
		}
		n, err := strconv.Atoi(s[idx[4]:idx[5]])
		if err != nil {
			// Digit runs too long for an int are not versions.
			continue
		}
		return match{Start: idx[2], End: idx[3], Number: n, Pattern: p.Name}, true
	}
	return match{}, false
}

// Format renders n in canonical form.
func Format(n int) string {
	return fmt.Sprintf("v%02d", n)
}

// Extract returns the normalized version token found in path.
func Extract(path string) (string, bool) {
	m, ok := locate(path)
	if !ok {
		return "", false
	}
	return Format(m.Number), true
}

// Number returns the numeric value of the version token found in path.
func Number(path string) (int, bool) {
	m, ok := locate(path)
	if !ok {
		return 0, false
	}
	return m.Number, true
}

// Increment bumps the version embedded in path by one. Only the matched token
// is rewritten. A path without a version gets "_v01" before its extension.
func Increment(path string) string {
	if path == "" {
		return path
	}
	m, ok := locate(path)
	if !ok {
		return appendVersion(path, Format(1))
	}
	return path[:m.Start] + Format(m.Number+1) + path[m.End:]
}

// Replace swaps the embedded version for v, or appends "_<v>" when path has
// none. v must satisfy ValidFormat.
func Replace(path, v string) (string, error) {
	if !ValidFormat(v) {
		return path, fmt.Errorf("%w: %q", ErrInvalidFormat, v)
	}
	v = strings.ToLower(v)
	if path == "" {
		return path, nil
	}
	m, ok := locate(path)
	if !ok {
		return appendVersion(path, v), nil
	}
	return path[:m.Start] + v + path[m.End:], nil
}

// Strip removes the version token from s and reports whether one was found.
func Strip(s string) (string, bool) {
	m, ok := locate(s)
	if !ok {
		return s, false
	}
	return s[:m.Start] + s[m.End:], true
}

// ValidFormat reports whether s is "v" followed by one to three digits.
func ValidFormat(s string) bool {
	return validFormat.MatchString(s)
}

// Compare orders two version tokens numerically. Tokens that do not parse
// compare as equal.
func Compare(a, b string) int {
	na, errA := strconv.Atoi(strings.TrimLeft(a, "vV"))
	nb, errB := strconv.Atoi(strings.TrimLeft(b, "vV"))
	if a == "" || b == "" || errA != nil || errB != nil {
		return 0
	}
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	default:
		return 0
	}
}

// framePadding matches a trailing frame placeholder or frame number on a stem,
// e.g. ".%04d", ".####" or ".1001".
var framePadding = regexp.MustCompile(`\.(%0?\d*d|#+|@+|\d+)$`)

func appendVersion(path, v string) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	frame := ""
	if loc := framePadding.FindStringIndex(stem); loc != nil {
		stem, frame = stem[:loc[0]], stem[loc[0]:]
	}
	return stem + "_" + v + frame + ext
}
