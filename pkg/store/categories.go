package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	CategoriesFile = "categories.json"

	CategorySystem  = "System"
	CategoryGeneral = "General"
	CategoryCustom  = "Custom"
)

// Scope selects which category list an operation applies to.
type Scope string

const (
	ScopeTag    Scope = "tag"
	ScopePreset Scope = "preset"
)

// ParseScope accepts "tag"/"tags" and "preset"/"presets".
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tag", "tags":
		return ScopeTag, nil
	case "preset", "presets":
		return ScopePreset, nil
	}
	return "", fmt.Errorf("category scope %q: %w", s, ErrInvalid)
}

var baseCategories = []string{CategorySystem, CategoryGeneral, CategoryCustom}

func baseCategorySet() map[string]struct{} {
	set := make(map[string]struct{}, len(baseCategories))
	for _, c := range baseCategories {
		set[c] = struct{}{}
	}
	return set
}

func isProtectedCategory(name string) bool {
	return name == CategorySystem || name == CategoryGeneral
}

type categoryDocument struct {
	Version          string   `json:"version"`
	Created          string   `json:"created,omitempty"`
	LastModified     string   `json:"last_modified,omitempty"`
	TagCategories    []string `json:"tag_categories"`
	PresetCategories []string `json:"preset_categories"`
}

func (d *categoryDocument) list(scope Scope) *[]string {
	if scope == ScopePreset {
		return &d.PresetCategories
	}
	return &d.TagCategories
}

// CategoryStore keeps the user-editable tag and preset category lists.
// System, General, and Custom are always present; System and General cannot
// be removed or renamed.
type CategoryStore struct {
	file *FileStore
}

// NewCategoryStore returns a category store under dir.
func NewCategoryStore(dir string) *CategoryStore {
	return &CategoryStore{file: NewFileStore(dir, CategoriesFile)}
}

// EnsureDefaults writes the initial category lists when missing.
func (c *CategoryStore) EnsureDefaults(ctx context.Context) error {
	if c.file.Exists() {
		return nil
	}
	stamp := now(ctx)
	return c.file.Save(ctx, &categoryDocument{
		Version:          DocumentVersion,
		Created:          stamp,
		LastModified:     stamp,
		TagCategories:    []string{CategorySystem, CategoryGeneral, CategoryCustom, "VFX", "Pipeline"},
		PresetCategories: []string{CategorySystem, CategoryGeneral, CategoryCustom, "Daily", "Delivery"},
	})
}

// List returns the categories for scope with the base categories appended
// when missing.
func (c *CategoryStore) List(ctx context.Context, scope Scope) ([]string, error) {
	var doc categoryDocument
	if err := c.file.Load(ctx, &doc); err != nil {
		return nil, err
	}
	out := slices.Clone(*doc.list(scope))
	for _, b := range baseCategories {
		if !slices.Contains(out, b) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Add appends a category. Adding an existing category is a no-op.
func (c *CategoryStore) Add(ctx context.Context, scope Scope, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("category name: %w", ErrInvalid)
	}
	var doc categoryDocument
	err := c.file.Update(ctx, &doc, func() error {
		list := doc.list(scope)
		if slices.Contains(*list, name) {
			return errNoChange
		}
		*list = append(*list, name)
		doc.Version = DocumentVersion
		doc.LastModified = now(ctx)
		return nil
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	return err
}

// Remove deletes a category.
func (c *CategoryStore) Remove(ctx context.Context, scope Scope, name string) error {
	if isProtectedCategory(name) {
		return NewReadOnlyError("category", name, "remove")
	}
	var doc categoryDocument
	return c.file.Update(ctx, &doc, func() error {
		list := doc.list(scope)
		idx := slices.Index(*list, name)
		if idx < 0 {
			return NewNotFoundError("category", name)
		}
		*list = slices.Delete(*list, idx, idx+1)
		doc.LastModified = now(ctx)
		return nil
	})
}

// Rename replaces a category name in place.
func (c *CategoryStore) Rename(ctx context.Context, scope Scope, oldName, newName string) error {
	if oldName == newName {
		return nil
	}
	if isProtectedCategory(oldName) {
		return NewReadOnlyError("category", oldName, "rename")
	}
	var doc categoryDocument
	return c.file.Update(ctx, &doc, func() error {
		list := doc.list(scope)
		idx := slices.Index(*list, oldName)
		if idx < 0 {
			return NewNotFoundError("category", oldName)
		}
		if slices.Contains(*list, newName) {
			return fmt.Errorf("category %q: %w", newName, ErrExist)
		}
		(*list)[idx] = newName
		doc.LastModified = now(ctx)
		return nil
	})
}
