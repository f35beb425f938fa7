package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/jlrickert/renderpath/pkg/log"
	"github.com/jlrickert/renderpath/pkg/pathchain"
	"gopkg.in/yaml.v3"
)

const (
	PresetDefaultsFile = "preset_defaults.json"
	PresetsFile        = "presets.json"

	DefaultPresetName = "Default"
)

// Preset is a named, ordered list of tag names plus an output format.
type Preset struct {
	Name        string   `json:"-" yaml:"-"`
	Tags        []string `json:"tags" yaml:"tags"`
	Format      string   `json:"format" yaml:"format"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
	Source      string   `json:"source,omitempty" yaml:"source,omitempty"`
	Created     string   `json:"created,omitempty" yaml:"created,omitempty"`
	Modified    string   `json:"modified,omitempty" yaml:"modified,omitempty"`
	Author      string   `json:"author,omitempty" yaml:"author,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string   `json:"version,omitempty" yaml:"version,omitempty"`
}

// Validate lists every problem with the preset.
func (p Preset) Validate() []string {
	var issues []string
	if strings.TrimSpace(p.Name) == "" {
		issues = append(issues, "preset name is required")
	}
	if len(p.Tags) == 0 {
		issues = append(issues, "preset must contain at least one tag")
	}
	if p.Format == "" {
		issues = append(issues, "output format is required")
	}
	return issues
}

// IsDefault reports whether the preset is built in.
func (p Preset) IsDefault() bool {
	return p.Source == pathchain.SourceDefault
}

type presetDocument struct {
	Version      string            `json:"version" yaml:"version"`
	Created      string            `json:"created,omitempty" yaml:"created,omitempty"`
	LastModified string            `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
	Exported     string            `json:"exported,omitempty" yaml:"exported,omitempty"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	Presets      map[string]Preset `json:"presets" yaml:"presets"`
}

// DefaultPresets is the built-in preset set.
func DefaultPresets(stamp string) map[string]Preset {
	sys := func(p Preset) Preset {
		p.Category = CategorySystem
		p.Source = pathchain.SourceDefault
		p.Created = stamp
		p.Modified = stamp
		p.Author = "system"
		p.Version = "1.0"
		return p
	}
	return map[string]Preset{
		DefaultPresetName: sys(Preset{
			Tags:        []string{"project path", "/", "shot name", "_", "version"},
			Format:      "exr",
			Description: "Basic project/shot/version pattern",
		}),
		"Review": sys(Preset{
			Tags:        []string{"shot name", "user"},
			Format:      "jpeg",
			Description: "Simple review output",
		}),
		"Dailies": sys(Preset{
			Tags:        []string{"project path", "/", "shot name", "department", "version"},
			Format:      "mov",
			Description: "Dailies output with department",
		}),
	}
}

// MergeStrategy controls how imported presets combine with existing ones.
type MergeStrategy string

const (
	// MergeUpdate overwrites same-named custom presets and keeps the rest.
	MergeUpdate MergeStrategy = "update"
	// MergeReplace discards all custom presets before importing.
	MergeReplace MergeStrategy = "replace"
	// MergeKeep imports only presets whose names are not taken.
	MergeKeep MergeStrategy = "keep"
)

// ParseMergeStrategy maps a name to a MergeStrategy.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch m := MergeStrategy(strings.ToLower(strings.TrimSpace(s))); m {
	case MergeUpdate, MergeReplace, MergeKeep:
		return m, nil
	case "":
		return MergeUpdate, nil
	}
	return "", fmt.Errorf("merge strategy %q: %w", s, ErrInvalid)
}

// ExportFormat selects the encoding used by Export.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportYAML ExportFormat = "yaml"
)

// PresetStore merges built-in presets with user-defined ones.
type PresetStore struct {
	defaults *FileStore
	custom   *FileStore
}

// NewPresetStore returns a preset store under dir.
func NewPresetStore(dir string) *PresetStore {
	return &PresetStore{
		defaults: NewFileStore(dir, PresetDefaultsFile),
		custom:   NewFileStore(dir, PresetsFile),
	}
}

// EnsureDefaults writes the built-in presets when missing.
func (s *PresetStore) EnsureDefaults(ctx context.Context) error {
	if s.defaults.Exists() {
		return nil
	}
	stamp := now(ctx)
	return s.defaults.Save(ctx, &presetDocument{
		Version:     DocumentVersion,
		Created:     stamp,
		Description: "renderpath default presets",
		Presets:     DefaultPresets(stamp),
	})
}

func (s *PresetStore) load(ctx context.Context) (map[string]Preset, error) {
	var d, u presetDocument
	if err := s.defaults.Load(ctx, &d); err != nil {
		return nil, err
	}
	if err := s.custom.Load(ctx, &u); err != nil {
		return nil, err
	}
	out := make(map[string]Preset, len(d.Presets)+len(u.Presets))
	for name, p := range d.Presets {
		p.Name, p.Source = name, pathchain.SourceDefault
		out[name] = p
	}
	for name, p := range u.Presets {
		p.Name, p.Source = name, pathchain.SourceCustom
		out[name] = p
	}
	return out, nil
}

// All returns every effective preset sorted by name. Custom presets shadow
// built-ins of the same name.
func (s *PresetStore) All(ctx context.Context) ([]Preset, error) {
	m, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Preset, 0, len(m))
	for _, name := range slices.Sorted(maps.Keys(m)) {
		out = append(out, m[name])
	}
	return out, nil
}

// Get returns the effective preset called name.
func (s *PresetStore) Get(ctx context.Context, name string) (Preset, error) {
	m, err := s.load(ctx)
	if err != nil {
		return Preset{}, err
	}
	p, ok := m[name]
	if !ok {
		return Preset{}, NewNotFoundError("preset", name)
	}
	return p, nil
}

// Save inserts or replaces a custom preset, stamping modified time and author.
func (s *PresetStore) Save(ctx context.Context, p Preset) error {
	if p.IsDefault() {
		return NewReadOnlyError("preset", p.Name, "save")
	}
	if p.Format == "" {
		p.Format = pathchain.DefaultFormat
	}
	if issues := p.Validate(); len(issues) > 0 {
		return fmt.Errorf("preset %q: %w: %s", p.Name, ErrInvalid, strings.Join(issues, "; "))
	}
	stamp := now(ctx)
	p.Source = pathchain.SourceCustom
	p.Modified = stamp
	if p.Created == "" {
		p.Created = stamp
	}
	if p.Author == "" {
		p.Author = currentUser()
	}
	if p.Category == "" {
		p.Category = CategoryGeneral
	}
	if p.Version == "" {
		p.Version = "1.0"
	}

	var doc presetDocument
	return s.custom.Update(ctx, &doc, func() error {
		if doc.Presets == nil {
			doc.Presets = map[string]Preset{}
		}
		doc.Presets[p.Name] = p
		doc.Version = DocumentVersion
		doc.LastModified = stamp
		return nil
	})
}

// Delete removes a custom preset. Built-in presets cannot be deleted.
func (s *PresetStore) Delete(ctx context.Context, name string) error {
	p, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	if p.IsDefault() {
		return NewReadOnlyError("preset", name, "delete")
	}
	var doc presetDocument
	return s.custom.Update(ctx, &doc, func() error {
		if _, ok := doc.Presets[name]; !ok {
			return NewNotFoundError("preset", name)
		}
		delete(doc.Presets, name)
		doc.LastModified = now(ctx)
		return nil
	})
}

// Rename moves a custom preset to a new name.
func (s *PresetStore) Rename(ctx context.Context, oldName, newName string) error {
	if oldName == newName {
		return nil
	}
	p, err := s.Get(ctx, oldName)
	if err != nil {
		return err
	}
	if p.IsDefault() {
		return NewReadOnlyError("preset", oldName, "rename")
	}
	if _, err := s.Get(ctx, newName); err == nil {
		return fmt.Errorf("preset %q: %w", newName, ErrExist)
	}
	var doc presetDocument
	return s.custom.Update(ctx, &doc, func() error {
		doc.Presets[newName] = doc.Presets[oldName]
		delete(doc.Presets, oldName)
		doc.LastModified = now(ctx)
		return nil
	})
}

// Duplicate copies any preset, built-in or custom, to a new custom preset.
func (s *PresetStore) Duplicate(ctx context.Context, name, newName string) (Preset, error) {
	src, err := s.Get(ctx, name)
	if err != nil {
		return Preset{}, err
	}
	if _, err := s.Get(ctx, newName); err == nil {
		return Preset{}, fmt.Errorf("preset %q: %w", newName, ErrExist)
	}
	dup := Preset{
		Name:        newName,
		Tags:        slices.Clone(src.Tags),
		Format:      src.Format,
		Category:    src.Category,
		Description: "Copy of " + src.Name,
	}
	if err := s.Save(ctx, dup); err != nil {
		return Preset{}, err
	}
	return s.Get(ctx, newName)
}

// ByCategory returns the presets in category, sorted by name.
func (s *PresetStore) ByCategory(ctx context.Context, category string) ([]Preset, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(p Preset) bool { return p.Category != category }), nil
}

// Categories lists the categories used by presets plus the base categories.
func (s *PresetStore) Categories(ctx context.Context) ([]string, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	set := baseCategorySet()
	for _, p := range all {
		if p.Category != "" {
			set[p.Category] = struct{}{}
		}
	}
	return sortedKeys(set), nil
}

// Export encodes the named presets, or every preset when names is empty.
func (s *PresetStore) Export(ctx context.Context, names []string, format ExportFormat) ([]byte, error) {
	m, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	doc := presetDocument{
		Version:  DocumentVersion,
		Exported: now(ctx),
		Presets:  map[string]Preset{},
	}
	if len(names) == 0 {
		names = slices.Sorted(maps.Keys(m))
	}
	for _, name := range names {
		p, ok := m[name]
		if !ok {
			return nil, NewNotFoundError("preset", name)
		}
		doc.Presets[name] = p
	}

	switch format {
	case ExportYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&doc); err != nil {
			return nil, fmt.Errorf("encode presets: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case ExportJSON, "":
		data, err := json.MarshalIndent(&doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode presets: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("export format %q: %w", format, ErrInvalid)
	}
}

// Import decodes a JSON or YAML export and merges it into the custom presets.
// It returns the number of presets written.
func (s *PresetStore) Import(ctx context.Context, data []byte, strategy MergeStrategy) (int, error) {
	var in presetDocument
	trimmed := bytes.TrimSpace(data)
	var err error
	if bytes.HasPrefix(trimmed, []byte("{")) {
		err = json.Unmarshal(trimmed, &in)
	} else {
		err = yaml.Unmarshal(trimmed, &in)
	}
	if err != nil {
		return 0, fmt.Errorf("decode presets: %w: %w", ErrInvalid, err)
	}

	existing, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	stamp := now(ctx)
	user := currentUser()
	count := 0
	var skipped []error
	var doc presetDocument
	err = s.custom.Update(ctx, &doc, func() error {
		if strategy == MergeReplace || doc.Presets == nil {
			doc.Presets = map[string]Preset{}
		}
		for _, name := range slices.Sorted(maps.Keys(in.Presets)) {
			p := in.Presets[name]
			p.Name = name
			if _, taken := existing[name]; taken && strategy == MergeKeep {
				continue
			}
			if p.Format == "" {
				p.Format = pathchain.DefaultFormat
			}
			if issues := p.Validate(); len(issues) > 0 {
				skipped = append(skipped, fmt.Errorf("preset %q: %w: %s", name, ErrInvalid, strings.Join(issues, "; ")))
				continue
			}
			p.Source = pathchain.SourceCustom
			p.Modified = stamp
			if p.Created == "" {
				p.Created = stamp
			}
			if p.Author == "" {
				p.Author = user
			}
			doc.Presets[name] = p
			count++
		}
		if count == 0 && strategy != MergeReplace {
			return errNoChange
		}
		doc.Version = DocumentVersion
		doc.LastModified = stamp
		return nil
	})
	if err != nil && !errors.Is(err, errNoChange) {
		return 0, err
	}
	for _, e := range skipped {
		log.FromContext(ctx).Warn("skipped invalid preset", "error", e)
	}
	return count, errors.Join(skipped...)
}

// File returns the custom preset document.
func (s *PresetStore) File() *FileStore {
	return s.custom
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
