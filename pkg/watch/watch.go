// Package watch reports debounced filesystem changes for live previews.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jlrickert/renderpath/pkg/log"
)

// DefaultDebounce is used when Run is given a non-positive debounce.
const DefaultDebounce = 120 * time.Millisecond

// Event is one debounced burst of changes.
type Event struct {
	Paths []string // changed paths, sorted
	Time  time.Time
}

// Watcher watches files and directories. Directories are watched
// non-recursively; a file is watched through its parent directory so that
// editors replacing it atomically are still seen.
type Watcher struct {
	fw *fsnotify.Watcher

	dirs  map[string]bool            // watched as a whole
	files map[string]map[string]bool // dir -> file names of interest
}

// New starts watching paths. Every path must exist.
func New(paths ...string) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("watch: no paths")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w := &Watcher{
		fw:    fw,
		dirs:  map[string]bool{},
		files: map[string]map[string]bool{},
	}
	for _, p := range paths {
		if err := w.add(p); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(p string) error {
	p = filepath.Clean(p)
	st, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("watch %s: %w", p, err)
	}
	dir := p
	if !st.IsDir() {
		dir = filepath.Dir(p)
		if w.files[dir] == nil {
			w.files[dir] = map[string]bool{}
		}
		w.files[dir][filepath.Base(p)] = true
	} else {
		w.dirs[dir] = true
	}
	if slices.Contains(w.fw.WatchList(), dir) {
		return nil
	}
	if err := w.fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	return nil
}

func (w *Watcher) wants(path string) bool {
	name := filepath.Base(path)
	if strings.HasSuffix(name, ".tmp") || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp") {
		return false
	}
	dir := filepath.Dir(path)
	return w.dirs[dir] || w.files[dir][name]
}

// Close stops the underlying watcher. Run closes it on return.
func (w *Watcher) Close() error {
	return w.fw.Close()
}

// Run delivers changes to onChange until ctx is done, then closes the
// watcher and returns ctx.Err(). Changes closer together than debounce are
// reported as one Event. onChange runs on the calling goroutine.
func (w *Watcher) Run(ctx context.Context, debounce time.Duration, onChange func(Event)) error {
	defer func() {
		_ = w.fw.Close()
	}()
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	lg := log.FromContext(ctx)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fw.Events:
			if !ok {
				return ctx.Err()
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !w.wants(event.Name) {
				continue
			}
			pending[event.Name] = true
			timer.Reset(debounce)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return ctx.Err()
			}
			lg.Warn("file watcher error", "error", err)
		case now := <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			clear(pending)
			lg.Debug("change detected", "paths", paths)
			if onChange != nil {
				onChange(Event{Paths: paths, Time: now})
			}
		}
	}
}

// Watch is New followed by Run.
func Watch(ctx context.Context, paths []string, debounce time.Duration, onChange func(Event)) error {
	w, err := New(paths...)
	if err != nil {
		return err
	}
	return w.Run(ctx, debounce, onChange)
}
