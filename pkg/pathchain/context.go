package pathchain

import (
	"maps"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jlrickert/renderpath/pkg/version"
)

// Well-known context keys. Any other key is a custom variable.
const (
	KeyProjectPath  = "project_path"
	KeyShotName     = "shot_name"
	KeySequenceName = "sequence_name"
	KeyUserName     = "user_name"
	KeyDepartment   = "department"
	KeyTaskName     = "task_name"
	KeyReadName     = "read_name"
	KeyReadPath     = "read_path"
	KeyScene        = "scene"
	KeyScriptDir    = "script_dir"
	KeyFrame        = "frame"
	KeyFirstFrame   = "first_frame"
	KeyLastFrame    = "last_frame"
)

// Context holds the variables dynamic and expression tags read from.
type Context map[string]string

// Get returns the value for key, or "" when unset.
func (c Context) Get(key string) string {
	if c == nil {
		return ""
	}
	return c[key]
}

// Lookup returns the value for key and whether it is set to something
// non-empty.
func (c Context) Lookup(key string) (string, bool) {
	v := c.Get(key)
	return v, v != ""
}

// With returns a copy of c with key set to value.
func (c Context) With(key, value string) Context {
	out := c.Clone()
	out[key] = value
	return out
}

// Merge returns a copy of c overlaid with the non-empty values of other.
func (c Context) Merge(other Context) Context {
	out := c.Clone()
	for k, v := range other {
		if v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Clone returns an independent copy. A nil context clones to an empty one.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	maps.Copy(out, c)
	return out
}

var (
	scriptShotPatterns = []*regexp.Regexp{
		regexp.MustCompile(`([A-Za-z0-9_]+)_comp`),
		regexp.MustCompile(`([A-Za-z0-9_]+)_v\d+`),
		regexp.MustCompile(`(SH\d+)`),
		regexp.MustCompile(`([A-Za-z0-9_]+)\.nk`),
	}
	readShotPatterns = []*regexp.Regexp{
		regexp.MustCompile(`([A-Za-z0-9_]+)_\d+\.`),
		regexp.MustCompile(`([A-Za-z0-9_]+)\.\d+\.`),
		regexp.MustCompile(`(SH\d+)`),
		regexp.MustCompile(`([A-Za-z0-9_]+)_comp`),
	}
	sequencePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(SQ\d+)`),
		regexp.MustCompile(`(SEQ\d+)`),
	}
)

func firstGroup(patterns []*regexp.Regexp, s string) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// ContextFromScript derives shot, sequence, and scene variables from a
// compositing script path such as "/jobs/SQ010/SH010_comp_v03.nk". An empty or
// "untitled" script yields an empty context.
func ContextFromScript(script string) Context {
	ctx := Context{}
	name := filepath.Base(script)
	if script == "" || strings.HasPrefix(strings.ToLower(name), "untitled") {
		return ctx
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	if shot, ok := firstGroup(scriptShotPatterns, name); ok {
		ctx[KeyShotName] = shot
	} else {
		ctx[KeyShotName] = name
	}
	if seq, ok := firstGroup(sequencePatterns, script); ok {
		ctx[KeySequenceName] = seq
	} else {
		ctx[KeySequenceName] = "sequence"
	}
	ctx[KeyScene] = stem
	if dir := filepath.Dir(script); dir != "." {
		ctx[KeyScriptDir] = dir
	}
	return ctx
}

// ContextFromReadPath derives read and shot variables from a source file path.
func ContextFromReadPath(path string) Context {
	ctx := Context{}
	if path == "" {
		return ctx
	}
	ctx[KeyReadPath] = path
	ctx[KeyReadName] = CleanName(path)

	name := filepath.Base(path)
	if shot, ok := firstGroup(readShotPatterns, name); ok {
		ctx[KeyShotName] = shot
	}
	if seq, ok := firstGroup(sequencePatterns[:1], path); ok {
		ctx[KeySequenceName] = seq
	}
	return ctx
}

var (
	trailingFrames  = regexp.MustCompile(`[._]\d{3,}$`)
	trailingPadding = regexp.MustCompile(`[._](%0?\d*d|#+|@+)$`)
	trailingDigits  = regexp.MustCompile(`[._]\d+$`)
	trailingSeps    = regexp.MustCompile(`[._]+$`)
	doubleUnder     = regexp.MustCompile(`_{2,}`)
)

// CleanName reduces a file path to a bare element name by dropping the
// directory, extension, frame number or padding, and version token:
// "/plates/bg_plate_v002.1001.exr" becomes "bg_plate".
func CleanName(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	name := trailingFrames.ReplaceAllString(stem, "")
	name = trailingPadding.ReplaceAllString(name, "")
	name = trailingSeps.ReplaceAllString(name, "")

	if stripped, ok := version.Strip(name); ok {
		name = doubleUnder.ReplaceAllString(stripped, "_")
		name = strings.Trim(name, "_.")
	}

	name = trailingDigits.ReplaceAllString(name, "")
	name = trailingSeps.ReplaceAllString(name, "")
	if name == "" {
		return stem
	}
	return name
}
