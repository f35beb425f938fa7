package version

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"sync"
)

// FileSystem is the directory access the resolver needs. Implementations
// should return an error only when the answer is unknown; a missing directory
// is (false, nil) from Exists.
type FileSystem interface {
	Exists(ctx context.Context, path string) (bool, error)
	ListDir(ctx context.Context, dir string) ([]string, error)
}

// DirMaker is implemented by filesystems that can create directories.
type DirMaker interface {
	MkdirAll(ctx context.Context, dir string) error
}

// OSFS reads the real filesystem.
type OSFS struct{}

func (OSFS) Exists(_ context.Context, p string) (bool, error) {
	_, err := os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// ListDir returns the names of regular files in dir.
func (OSFS) ListDir(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (OSFS) MkdirAll(_ context.Context, dir string) error {
	return os.MkdirAll(dir, 0o755)
}

var (
	_ FileSystem = OSFS{}
	_ DirMaker   = OSFS{}
)

// FuncFS adapts plain callbacks to FileSystem. A nil ExistsFn treats every
// directory as present; a nil ListFn lists nothing.
type FuncFS struct {
	ExistsFn func(path string) bool
	ListFn   func(dir string) []string
}

func (f FuncFS) Exists(_ context.Context, p string) (bool, error) {
	if f.ExistsFn == nil {
		return true, nil
	}
	return f.ExistsFn(p), nil
}

func (f FuncFS) ListDir(_ context.Context, dir string) ([]string, error) {
	if f.ListFn == nil {
		return nil, nil
	}
	return f.ListFn(dir), nil
}

var _ FileSystem = FuncFS{}

// MemoryFS is an in-memory directory tree intended for tests and dry runs.
//
// Paths are cleaned with forward slashes. Adding a file implicitly creates
// every parent directory. MemoryFS is safe for concurrent use.
type MemoryFS struct {
	mu    sync.RWMutex
	dirs  map[string]struct{}
	files map[string][]string // dir -> file names

	// Fail, when set, is returned by every call. Useful to exercise the
	// degraded paths of the resolver.
	Fail error
}

// NewMemoryFS returns an empty tree containing only the root.
func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		dirs:  map[string]struct{}{"/": {}, ".": {}},
		files: make(map[string][]string),
	}
}

func memClean(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

// AddFile registers a file and its parent directories.
func (m *MemoryFS) AddFile(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = memClean(p)
	dir, name := path.Split(p)
	dir = memClean(dir)
	m.mkdirLocked(dir)
	if !slices.Contains(m.files[dir], name) {
		m.files[dir] = append(m.files[dir], name)
	}
}

func (m *MemoryFS) mkdirLocked(dir string) {
	for {
		m.dirs[dir] = struct{}{}
		parent := path.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func (m *MemoryFS) MkdirAll(_ context.Context, dir string) error {
	if m.Fail != nil {
		return m.Fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirLocked(memClean(dir))
	return nil
}

func (m *MemoryFS) Exists(_ context.Context, p string) (bool, error) {
	if m.Fail != nil {
		return false, m.Fail
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p = memClean(p)
	if _, ok := m.dirs[p]; ok {
		return true, nil
	}
	dir, name := path.Split(p)
	return slices.Contains(m.files[memClean(dir)], name), nil
}

func (m *MemoryFS) ListDir(_ context.Context, dir string) ([]string, error) {
	if m.Fail != nil {
		return nil, m.Fail
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	dir = memClean(dir)
	if _, ok := m.dirs[dir]; !ok {
		return nil, &fs.PathError{Op: "readdir", Path: dir, Err: fs.ErrNotExist}
	}
	out := append([]string(nil), m.files[dir]...)
	sort.Strings(out)
	return out, nil
}

// Files returns every file path in the tree, sorted.
func (m *MemoryFS) Files() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for dir, names := range m.files {
		for _, n := range names {
			out = append(out, path.Join(dir, n))
		}
	}
	sort.Strings(out)
	return out
}

var (
	_ FileSystem = (*MemoryFS)(nil)
	_ DirMaker   = (*MemoryFS)(nil)
)
