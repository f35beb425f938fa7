package batch

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/jlrickert/renderpath/pkg/version"
)

// Claims records the output paths handed out during one run so two sources
// never receive the same path.
type Claims struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

func NewClaims() *Claims {
	return &Claims{paths: make(map[string]struct{})}
}

// Claim reserves path. When it is already taken the version in its file name
// is bumped until a free one is found; the second return value reports
// whether that happened. The directory part keeps the caller's spelling.
func (c *Claims) Claim(path string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	got, bumped := path, false
	for {
		if _, taken := c.paths[got]; !taken {
			break
		}
		name := filepath.Base(got)
		got = strings.TrimSuffix(got, name) + version.Increment(name)
		bumped = true
	}
	c.paths[got] = struct{}{}
	return got, bumped
}

// Has reports whether path was claimed.
func (c *Claims) Has(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.paths[path]
	return ok
}

func (c *Claims) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.paths)
}
