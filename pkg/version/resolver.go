package version

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	rlog "github.com/jlrickert/renderpath/pkg/log"
)

// Resolver answers on-disk questions about versioned paths: the next free
// version and the history of existing versions.
//
// Resolver performs no locking. Two processes asking for the next version of
// the same path at the same time may receive the same answer.
type Resolver struct {
	fs     FileSystem
	logger *slog.Logger
}

// Option configures a Resolver.
type Option = func(*Resolver)

// WithLogger injects the logger used to report degraded lookups. Without it
// the logger on the call context is used.
func WithLogger(lg *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = lg
	}
}

// NewResolver builds a resolver over fs. A nil fs means the real filesystem.
func NewResolver(fs FileSystem, opts ...Option) *Resolver {
	if fs == nil {
		fs = OSFS{}
	}
	r := &Resolver{fs: fs}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o(r)
	}
	return r
}

// FS returns the filesystem the resolver reads.
func (r *Resolver) FS() FileSystem {
	return r.fs
}

// NextAvailable returns path rewritten to one more than the highest existing
// version in its directory.
//
// A path without a version is treated as "_v01". When the directory does not
// exist, or nothing in it matches, the (possibly "_v01"-suffixed) path is
// returned as-is. When the directory cannot be inspected the same fallback is
// returned together with an *FSError.
func (r *Resolver) NextAvailable(ctx context.Context, path string) (string, error) {
	if path == "" {
		return path, nil
	}
	lg := rlog.GetLogger(ctx, r.logger)

	base := path
	if _, ok := locate(filepath.Base(path)); !ok {
		base = appendVersion(path, Format(1))
	}

	dir := filepath.Dir(base)
	names, err := r.list(ctx, dir)
	if err != nil {
		lg.Warn("version lookup degraded", "path", base, "error", err)
		return base, err
	}
	if names == nil {
		return base, nil
	}

	name := filepath.Base(base)
	fam := newFamily(name)
	highest, found := 0, false
	for _, candidate := range names {
		n, ok := fam.version(candidate)
		if !ok {
			continue
		}
		if !found || n > highest {
			highest, found = n, true
		}
	}
	if !found {
		return base, nil
	}

	m, _ := locate(name)
	next := name[:m.Start] + Format(highest+1) + name[m.End:]
	lg.Debug("resolved next version", "path", base, "highest", highest, "next", next)
	return joinDir(base, next), nil
}

// History lists the files in path's directory that share its versioned
// pattern, ordered by ascending version number.
func (r *Resolver) History(ctx context.Context, path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	name := filepath.Base(path)
	if _, ok := locate(name); !ok {
		return nil, nil
	}

	names, err := r.list(ctx, filepath.Dir(path))
	if err != nil {
		rlog.GetLogger(ctx, r.logger).Warn("version history degraded", "path", path, "error", err)
		return nil, err
	}
	if names == nil {
		return nil, nil
	}

	type entry struct {
		n    int
		name string
	}
	fam := newFamily(name)
	var entries []entry
	for _, candidate := range names {
		if n, ok := fam.version(candidate); ok {
			entries = append(entries, entry{n: n, name: candidate})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].n != entries[j].n {
			return entries[i].n < entries[j].n
		}
		return entries[i].name < entries[j].name
	})

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, joinDir(path, e.name))
	}
	return out, nil
}

// list returns the directory listing, nil when the directory is absent, or an
// *FSError when it cannot be read.
func (r *Resolver) list(ctx context.Context, dir string) ([]string, error) {
	ok, err := r.fs.Exists(ctx, dir)
	if err != nil {
		return nil, &FSError{Op: "stat", Path: dir, Err: err}
	}
	if !ok {
		return nil, nil
	}
	names, err := r.fs.ListDir(ctx, dir)
	if err != nil {
		return nil, &FSError{Op: "list", Path: dir, Err: err}
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

var wildcardPadding = regexp.MustCompile(`%0?\d*d|#+|@+`)

// Wildcard turns a versioned file name into a glob: the version token becomes
// "[vV][0-9]*", any frame-padding placeholder becomes "*", and everything else
// is matched literally. A name without a version is only escaped.
//
// The glob is a coarse filter; "[0-9]*" also admits trailing text after the
// digits. Resolver narrows its matches to the exact name shape.
func Wildcard(name string) string {
	m, ok := locate(name)
	if !ok {
		return escapeGlob(name)
	}
	return wildcardSegment(name[:m.Start], escapeGlob, "*") + "[vV][0-9]*" +
		wildcardSegment(name[m.End:], escapeGlob, "*")
}

func wildcardSegment(s string, quote func(string) string, placeholder string) string {
	var b strings.Builder
	last := 0
	for _, loc := range wildcardPadding.FindAllStringIndex(s, -1) {
		b.WriteString(quote(s[last:loc[0]]))
		b.WriteString(placeholder)
		last = loc[1]
	}
	b.WriteString(quote(s[last:]))
	return b.String()
}

// family matches the sibling versions of one file name: the same text before
// and after the token, "v" plus digits in between, and frame placeholders
// standing in for any placeholder or frame number.
type family struct {
	glob string
	re   *regexp.Regexp
}

func newFamily(name string) family {
	m, _ := locate(name)
	frame := `(?:%0?\d*d|#+|@+|\d+)`
	expr := "^" + wildcardSegment(name[:m.Start], regexp.QuoteMeta, frame) +
		`[vV](\d+)` + wildcardSegment(name[m.End:], regexp.QuoteMeta, frame) + "$"
	return family{glob: Wildcard(name), re: regexp.MustCompile(expr)}
}

// version returns the version number of candidate when it belongs to the
// family.
func (f family) version(candidate string) (int, bool) {
	if ok, _ := filepath.Match(f.glob, candidate); !ok {
		return 0, false
	}
	sub := f.re.FindStringSubmatch(candidate)
	if sub == nil {
		return 0, false
	}
	n, err := strconv.Atoi(sub[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// joinDir replaces the base name of path with name, keeping the directory
// spelling the caller used.
func joinDir(path, name string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(path, base) + name
}

// NextAvailable is a convenience wrapper around a one-off Resolver.
func NextAvailable(ctx context.Context, path string, fs FileSystem) (string, error) {
	return NewResolver(fs).NextAvailable(ctx, path)
}

// History is a convenience wrapper around a one-off Resolver.
func History(ctx context.Context, path string, fs FileSystem) ([]string, error) {
	return NewResolver(fs).History(ctx, path)
}
