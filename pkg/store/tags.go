package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jlrickert/renderpath/pkg/pathchain"
)

const (
	TagDefaultsFile = "tag_defaults.json"
	TagsFile        = "tags.json"

	// DocumentVersion is written into every store document.
	DocumentVersion = "1.5"
)

type tagDocument struct {
	Version      string          `json:"version"`
	Created      string          `json:"created,omitempty"`
	LastModified string          `json:"last_modified,omitempty"`
	Description  string          `json:"description,omitempty"`
	Tags         []pathchain.Tag `json:"tags"`
}

// DefaultTags is the built-in tag catalog.
func DefaultTags() []pathchain.Tag {
	sys := func(t pathchain.Tag) pathchain.Tag {
		t.Category = CategorySystem
		t.Source = pathchain.SourceDefault
		return t
	}
	return []pathchain.Tag{
		sys(pathchain.Tag{Name: "project path", Kind: pathchain.KindDynamic, Default: "[project_path]"}),
		sys(pathchain.Tag{Name: "shot name", Kind: pathchain.KindDynamic, Default: "[shot_name]"}),
		sys(pathchain.Tag{Name: "version", Kind: pathchain.KindVersion, Version: pathchain.DefaultVersion}),
		sys(pathchain.Tag{Name: "/", Kind: pathchain.KindSeparator, Value: "/"}),
		sys(pathchain.Tag{Name: "_", Kind: pathchain.KindSeparator, Value: "_"}),
		sys(pathchain.Tag{Name: "user", Kind: pathchain.KindDynamic, Default: "[user_name]"}),
		sys(pathchain.Tag{Name: "[read_name]", Kind: pathchain.KindText, Default: "[read_name]"}),
		sys(pathchain.Tag{Name: "department", Kind: pathchain.KindDynamic, Default: "[department]"}),
		sys(pathchain.Tag{Name: "task", Kind: pathchain.KindDynamic, Default: "[task_name]"}),
		sys(pathchain.Tag{Name: "sequence", Kind: pathchain.KindDynamic, Default: "[sequence_name]"}),
		sys(pathchain.Tag{Name: "scene", Kind: pathchain.KindDynamic, Default: "[scene]"}),
	}
}

// TagCatalog merges the built-in tags with user-defined ones. Custom tags
// shadow built-ins of the same name.
type TagCatalog struct {
	defaults *FileStore
	custom   *FileStore
}

// NewTagCatalog returns a catalog stored under dir.
func NewTagCatalog(dir string) *TagCatalog {
	return &TagCatalog{
		defaults: NewFileStore(dir, TagDefaultsFile),
		custom:   NewFileStore(dir, TagsFile),
	}
}

// EnsureDefaults writes the built-in catalog when it is missing.
func (c *TagCatalog) EnsureDefaults(ctx context.Context) error {
	if c.defaults.Exists() {
		return nil
	}
	doc := tagDocument{
		Version:     DocumentVersion,
		Created:     now(ctx),
		Description: "renderpath default tags",
		Tags:        DefaultTags(),
	}
	return c.defaults.Save(ctx, &doc)
}

func (c *TagCatalog) load(ctx context.Context) (defaults, custom []pathchain.Tag, err error) {
	var d, u tagDocument
	if err := c.defaults.Load(ctx, &d); err != nil {
		return nil, nil, err
	}
	if err := c.custom.Load(ctx, &u); err != nil {
		return nil, nil, err
	}
	for i := range d.Tags {
		d.Tags[i].Source = pathchain.SourceDefault
	}
	for i := range u.Tags {
		u.Tags[i].Source = pathchain.SourceCustom
	}
	return d.Tags, u.Tags, nil
}

// All returns the effective catalog: built-ins in order, each replaced by a
// custom tag of the same name when one exists, then the remaining custom tags.
func (c *TagCatalog) All(ctx context.Context) ([]pathchain.Tag, error) {
	defaults, custom, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int, len(custom))
	for i, t := range custom {
		byName[t.Name] = i
	}
	used := make([]bool, len(custom))
	out := make([]pathchain.Tag, 0, len(defaults)+len(custom))
	for _, t := range defaults {
		if i, ok := byName[t.Name]; ok {
			out = append(out, custom[i])
			used[i] = true
			continue
		}
		out = append(out, t)
	}
	for i, t := range custom {
		if !used[i] {
			out = append(out, t)
		}
	}
	return out, nil
}

// Get returns the effective tag called name.
func (c *TagCatalog) Get(ctx context.Context, name string) (pathchain.Tag, error) {
	all, err := c.All(ctx)
	if err != nil {
		return pathchain.Tag{}, err
	}
	for _, t := range all {
		if t.Name == name {
			return t, nil
		}
	}
	return pathchain.Tag{}, NewNotFoundError("tag", name)
}

// Save inserts or replaces a custom tag.
func (c *TagCatalog) Save(ctx context.Context, t pathchain.Tag) error {
	if t.Source == pathchain.SourceDefault {
		return NewReadOnlyError("tag", t.Name, "save")
	}
	if t.Category == "" {
		t.Category = pathchain.DefaultCategory
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	t.Source = pathchain.SourceCustom
	if t.Author == "" {
		t.Author = currentUser()
	}
	stamp := now(ctx)
	if t.Created == "" {
		t.Created = stamp
	}

	var doc tagDocument
	return c.custom.Update(ctx, &doc, func() error {
		idx := slices.IndexFunc(doc.Tags, func(x pathchain.Tag) bool { return x.Name == t.Name })
		if idx >= 0 {
			doc.Tags[idx] = t
		} else {
			doc.Tags = append(doc.Tags, t)
		}
		doc.Version = DocumentVersion
		doc.LastModified = stamp
		return nil
	})
}

// Delete removes a custom tag. Built-in tags cannot be deleted.
func (c *TagCatalog) Delete(ctx context.Context, name string) error {
	var doc tagDocument
	found := false
	err := c.custom.Update(ctx, &doc, func() error {
		before := len(doc.Tags)
		doc.Tags = slices.DeleteFunc(doc.Tags, func(x pathchain.Tag) bool { return x.Name == name })
		if len(doc.Tags) == before {
			return errNoChange
		}
		found = true
		doc.LastModified = now(ctx)
		return nil
	})
	if err != nil && !errors.Is(err, errNoChange) {
		return err
	}
	if found {
		return nil
	}
	defaults, _, err := c.load(ctx)
	if err != nil {
		return err
	}
	if slices.ContainsFunc(defaults, func(x pathchain.Tag) bool { return x.Name == name }) {
		return NewReadOnlyError("tag", name, "delete")
	}
	return NewNotFoundError("tag", name)
}

// Rename changes the name of a custom tag.
func (c *TagCatalog) Rename(ctx context.Context, oldName, newName string) error {
	if oldName == newName {
		return nil
	}
	t, err := c.Get(ctx, oldName)
	if err != nil {
		return err
	}
	if t.IsDefault() {
		return NewReadOnlyError("tag", oldName, "rename")
	}
	if _, err := c.Get(ctx, newName); err == nil {
		return fmt.Errorf("tag %q: %w", newName, ErrExist)
	}
	if err := c.Delete(ctx, oldName); err != nil {
		return err
	}
	t.Name = newName
	return c.Save(ctx, t)
}

// ByKind filters the effective catalog by kind.
func (c *TagCatalog) ByKind(ctx context.Context, k pathchain.Kind) ([]pathchain.Tag, error) {
	return c.filter(ctx, func(t pathchain.Tag) bool { return t.Kind == k })
}

// ByCategory filters the effective catalog by category.
func (c *TagCatalog) ByCategory(ctx context.Context, category string) ([]pathchain.Tag, error) {
	return c.filter(ctx, func(t pathchain.Tag) bool { return t.Category == category })
}

func (c *TagCatalog) filter(ctx context.Context, keep func(pathchain.Tag) bool) ([]pathchain.Tag, error) {
	all, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]pathchain.Tag, 0, len(all))
	for _, t := range all {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Categories lists the categories used by tags plus the base categories,
// sorted.
func (c *TagCatalog) Categories(ctx context.Context) ([]string, error) {
	all, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	set := baseCategorySet()
	for _, t := range all {
		if t.Category != "" {
			set[t.Category] = struct{}{}
		}
	}
	return sortedKeys(set), nil
}

// Invalid reports every catalog entry that fails validation, keyed by name.
func (c *TagCatalog) Invalid(ctx context.Context) (map[string]error, error) {
	all, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	out := map[string]error{}
	for _, t := range all {
		if err := t.Validate(); err != nil {
			out[t.Name] = err
		}
	}
	return out, nil
}

// Backups exposes the custom tag file backups.
func (c *TagCatalog) Backups() ([]string, error) {
	return c.custom.Backups()
}

// File returns the custom tag document.
func (c *TagCatalog) File() *FileStore {
	return c.custom
}
