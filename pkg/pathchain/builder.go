package pathchain

import (
	"path/filepath"
	"slices"
	"sync"

	"github.com/jlrickert/renderpath/pkg/version"
)

// PathInfo summarizes a built path.
type PathInfo struct {
	Path      string   `json:"path"`
	Valid     bool     `json:"is_valid"`
	Issues    []string `json:"issues"`
	TagCount  int      `json:"tags_count"`
	Directory string   `json:"directory,omitempty"`
	Filename  string   `json:"filename,omitempty"`
	Version   string   `json:"version,omitempty"`
	Context   Context  `json:"context,omitempty"`
}

// Builder holds an editable tag chain and the context it is built against.
// It is safe for concurrent use.
type Builder struct {
	mu   sync.RWMutex
	tags []Tag
	ctx  Context
}

// NewBuilder returns a builder seeded with tags and a copy of c.
func NewBuilder(c Context, tags ...Tag) *Builder {
	return &Builder{tags: slices.Clone(tags), ctx: c.Clone()}
}

// Add appends t and returns its index.
func (b *Builder) Add(t Tag) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tags = append(b.tags, t)
	return len(b.tags) - 1
}

// Insert places t at index i, clamped to the chain bounds.
func (b *Builder) Insert(i int, t Tag) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i = max(0, min(i, len(b.tags)))
	b.tags = slices.Insert(b.tags, i, t)
}

// Remove deletes the tag at i. It reports false when i is out of range.
func (b *Builder) Remove(i int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.tags) {
		return false
	}
	b.tags = slices.Delete(b.tags, i, i+1)
	return true
}

// Move relocates the tag at from to index to. Both must be in range.
func (b *Builder) Move(from, to int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.tags)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	t := b.tags[from]
	b.tags = slices.Delete(b.tags, from, from+1)
	b.tags = slices.Insert(b.tags, to, t)
	return true
}

func (b *Builder) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tags = nil
}

// Tags returns a copy of the chain.
func (b *Builder) Tags() []Tag {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.tags)
}

// Len returns the number of tags in the chain.
func (b *Builder) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.tags)
}

// SetContext replaces the build context.
func (b *Builder) SetContext(c Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ctx = c.Clone()
}

// UpdateContext overlays the non-empty values of c onto the build context.
func (b *Builder) UpdateContext(c Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ctx = b.ctx.Merge(c)
}

// Context returns a copy of the build context.
func (b *Builder) Context() Context {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ctx.Clone()
}

// Build renders the current chain. An empty chain builds to "".
func (b *Builder) Build(live bool) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Build(b.tags, b.ctx, live)
}

// Info builds the chain in non-live mode and reports on the result.
func (b *Builder) Info() (PathInfo, error) {
	b.mu.RLock()
	tags, ctx := b.tags, b.ctx.Clone()
	path, err := Build(tags, ctx, false)
	count := len(tags)
	b.mu.RUnlock()
	if err != nil {
		return PathInfo{}, err
	}
	return Describe(path, count, ctx), nil
}

// Describe fills a PathInfo for an already built path.
func Describe(path string, tagCount int, c Context) PathInfo {
	valid, issues := Validate(path)
	info := PathInfo{
		Path:     path,
		Valid:    valid,
		Issues:   issues,
		TagCount: tagCount,
		Context:  c,
	}
	if path != "" {
		info.Directory = filepath.Dir(path)
		info.Filename = filepath.Base(path)
		info.Version, _ = version.Extract(path)
	}
	return info
}
