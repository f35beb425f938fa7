// Package store persists the tag catalog, presets, and categories as flat JSON
// documents in a storage directory.
//
// Each catalog keeps its built-in entries in a separate defaults document that
// is written on first use and never modified. User entries live in their own
// document; every save backs up the previous copy.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/jlrickert/cli-toolkit/clock"
	"github.com/jlrickert/renderpath/pkg/log"
	"github.com/jlrickert/renderpath/pkg/pathchain"
)

// errNoChange aborts an Update without writing.
var errNoChange = errors.New("no change")

func now(ctx context.Context) string {
	return clock.ClockFromContext(ctx).Now().UTC().Format(time.RFC3339)
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	return "unknown"
}

// Store bundles the catalogs that share a storage directory.
type Store struct {
	Dir        string
	Tags       *TagCatalog
	Presets    *PresetStore
	Categories *CategoryStore
}

// Open prepares the store rooted at dir, writing built-in documents that are
// missing.
func Open(ctx context.Context, dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("store dir: %w", ErrInvalid)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	s := &Store{
		Dir:        dir,
		Tags:       NewTagCatalog(dir),
		Presets:    NewPresetStore(dir),
		Categories: NewCategoryStore(dir),
	}
	if err := s.Tags.EnsureDefaults(ctx); err != nil {
		return nil, fmt.Errorf("init tag defaults: %w", err)
	}
	if err := s.Presets.EnsureDefaults(ctx); err != nil {
		return nil, fmt.Errorf("init preset defaults: %w", err)
	}
	if err := s.Categories.EnsureDefaults(ctx); err != nil {
		return nil, fmt.Errorf("init categories: %w", err)
	}
	log.FromContext(ctx).Debug("store opened", "dir", dir)
	return s, nil
}

// Resolved is a preset expanded into a buildable tag chain.
type Resolved struct {
	Preset  Preset
	Tags    []pathchain.Tag
	Missing []string // preset tag names absent from the catalog
}

// ResolvePreset expands a preset into tags, in order, and appends a format tag.
// format overrides the preset's own format when non-empty. Tag names missing
// from the catalog are reported in Missing and logged.
func (s *Store) ResolvePreset(ctx context.Context, name, format string) (Resolved, error) {
	p, err := s.Presets.Get(ctx, name)
	if err != nil {
		return Resolved{}, err
	}
	all, err := s.Tags.All(ctx)
	if err != nil {
		return Resolved{}, err
	}
	byName := make(map[string]pathchain.Tag, len(all))
	for _, t := range all {
		byName[t.Name] = t
	}

	res := Resolved{Preset: p}
	for _, tn := range p.Tags {
		t, ok := byName[tn]
		if !ok {
			res.Missing = append(res.Missing, tn)
			continue
		}
		res.Tags = append(res.Tags, t)
	}
	if len(res.Missing) > 0 {
		log.FromContext(ctx).Warn("preset references unknown tags", "preset", name, "missing", res.Missing)
	}

	if format == "" {
		format = p.Format
	}
	res.Tags = append(res.Tags, pathchain.FormatTag(format, ""))
	return res, nil
}

// Info reports on every document the store manages.
func (s *Store) Info(ctx context.Context) ([]FileInfo, error) {
	files := []*FileStore{
		s.Tags.defaults, s.Tags.custom,
		s.Presets.defaults, s.Presets.custom,
		s.Categories.file,
	}
	out := make([]FileInfo, 0, len(files))
	for _, f := range files {
		info, err := f.Info(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}
