package store

import (
	"context"
	"strings"

	"github.com/jlrickert/renderpath/pkg/pathchain"
	"github.com/sahilm/fuzzy"
)

// Search returns catalog tags fuzzily matching query against name, category,
// and display value, best match first. An empty query returns every tag.
func (c *TagCatalog) Search(ctx context.Context, query string) ([]pathchain.Tag, error) {
	all, err := c.All(ctx)
	if err != nil || strings.TrimSpace(query) == "" {
		return all, err
	}
	haystack := make([]string, len(all))
	for i, t := range all {
		haystack[i] = strings.Join([]string{t.Name, t.Category, t.DisplayValue()}, " ")
	}
	matches := fuzzy.Find(query, haystack)
	out := make([]pathchain.Tag, 0, len(matches))
	for _, m := range matches {
		out = append(out, all[m.Index])
	}
	return out, nil
}

// Search returns presets fuzzily matching query against name, description,
// and tag names, best match first. An empty query returns every preset.
func (s *PresetStore) Search(ctx context.Context, query string) ([]Preset, error) {
	all, err := s.All(ctx)
	if err != nil || strings.TrimSpace(query) == "" {
		return all, err
	}
	haystack := make([]string, len(all))
	for i, p := range all {
		haystack[i] = p.Name + " " + p.Description + " " + strings.Join(p.Tags, " ")
	}
	matches := fuzzy.Find(query, haystack)
	out := make([]Preset, 0, len(matches))
	for _, m := range matches {
		out = append(out, all[m.Index])
	}
	return out, nil
}
