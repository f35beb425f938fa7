package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jlrickert/renderpath/pkg/pathchain"
	"github.com/jlrickert/renderpath/pkg/store"
	"github.com/spf13/cobra"
)

// contextFlags are the flags shared by commands that build a path.
type contextFlags struct {
	sets   []string
	script string
	read   string
}

func (cf *contextFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&cf.sets, "set", nil, "set a context variable (key=value, repeatable)")
	cmd.Flags().StringVar(&cf.script, "script", "", "derive shot, sequence, and scene from a script path")
	cmd.Flags().StringVar(&cf.read, "read", "", "derive read_name and shot from a source file path")
}

// apply layers the script, read, and --set values over base, in that order.
func (cf *contextFlags) apply(base pathchain.Context) (pathchain.Context, error) {
	c := base.Clone()
	if cf.script != "" {
		c = c.Merge(pathchain.ContextFromScript(cf.script))
	}
	if cf.read != "" {
		c = c.Merge(pathchain.ContextFromReadPath(cf.read))
	}
	for _, kv := range cf.sets {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", kv)
		}
		c[strings.TrimSpace(k)] = v
	}
	return c, nil
}

// chainFlags pick the tag chain: a preset, or catalog tag names.
type chainFlags struct {
	preset string
	tags   []string
	format string
}

func (cf *chainFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&cf.preset, "preset", "p", "", "preset to build from (default from config)")
	cmd.Flags().StringArrayVarP(&cf.tags, "tag", "t", nil, "catalog tag name, in order (repeatable)")
	cmd.Flags().StringVarP(&cf.format, "format", "f", "", "file extension")
}

// resolve turns the flags into tags ending in a format tag. Unknown catalog
// names are an error; unknown preset entries are reported on stderr.
func (cf *chainFlags) resolve(ctx context.Context, deps *Deps) ([]pathchain.Tag, error) {
	s, err := deps.Store(ctx)
	if err != nil {
		return nil, err
	}
	if len(cf.tags) > 0 {
		return tagsByName(ctx, deps, s, cf.tags, cf.format)
	}

	name := cf.preset
	if name == "" {
		name = deps.Config.DefaultPreset
	}
	res, err := s.ResolvePreset(ctx, name, cf.format)
	if err != nil {
		return nil, err
	}
	if len(res.Missing) > 0 {
		fmt.Fprintf(deps.Streams.Err, "warning: preset %q references unknown tags: %s\n",
			name, strings.Join(res.Missing, ", "))
	}
	tags := res.Tags
	tags[len(tags)-1].Padding = deps.Config.Padding
	return tags, nil
}

func tagsByName(ctx context.Context, deps *Deps, s *store.Store, names []string, format string) ([]pathchain.Tag, error) {
	tags := make([]pathchain.Tag, 0, len(names)+1)
	hasFormat := false
	for _, name := range names {
		t, err := s.Tags.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		hasFormat = hasFormat || t.Kind == pathchain.KindFormat
		tags = append(tags, t)
	}
	if !hasFormat {
		if format == "" {
			format = deps.Config.DefaultFormat
		}
		tags = append(tags, pathchain.FormatTag(format, deps.Config.Padding))
	}
	return tags, nil
}
