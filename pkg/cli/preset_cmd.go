package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jlrickert/renderpath/pkg/store"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func NewPresetCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "preset",
		Aliases: []string{"presets"},
		Short:   "manage path presets",
	}
	cmd.AddCommand(
		newPresetListCmd(deps),
		newPresetShowCmd(deps),
		newPresetSaveCmd(deps),
		newPresetDeleteCmd(deps),
		newPresetRenameCmd(deps),
		newPresetExportCmd(deps),
		newPresetImportCmd(deps),
	)
	return cmd
}

func newPresetListCmd(deps *Deps) *cobra.Command {
	var category, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := deps.Store(ctx)
			if err != nil {
				return err
			}
			var presets []store.Preset
			switch {
			case category != "":
				presets, err = s.Presets.ByCategory(ctx, category)
			case search != "":
				presets, err = s.Presets.Search(ctx, search)
			default:
				presets, err = s.Presets.All(ctx)
			}
			if err != nil {
				return err
			}
			for _, p := range presets {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n",
					p.Name, p.Category, p.Format, strings.Join(p.Tags, " + "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only presets in this category")
	cmd.Flags().StringVarP(&search, "search", "s", "", "fuzzy match on name, description, and tags")
	return cmd
}

func newPresetShowCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "print a preset as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := deps.Store(ctx)
			if err != nil {
				return err
			}
			p, err := s.Presets.Get(ctx, args[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(map[string]store.Preset{p.Name: p}); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newPresetSaveCmd(deps *Deps) *cobra.Command {
	var p store.Preset
	cmd := &cobra.Command{
		Use:   "save NAME",
		Short: "create or update a custom preset",
		Example: `  rpath preset save Comp -t "project path" -t / -t "shot name" -t version -f exr
  rpath preset save Plates -t "shot name" -t "[read_name]" --category Delivery`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := deps.Store(ctx)
			if err != nil {
				return err
			}
			p.Name = args[0]
			if existing, err := s.Presets.Get(ctx, p.Name); err == nil && !existing.IsDefault() {
				p.Created = existing.Created
				if len(p.Tags) == 0 {
					p.Tags = existing.Tags
				}
			}
			if err := s.Presets.Save(ctx, p); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved preset %q\n", p.Name)
			return err
		},
	}
	cmd.Flags().StringArrayVarP(&p.Tags, "tag", "t", nil, "catalog tag name, in order (repeatable)")
	cmd.Flags().StringVarP(&p.Format, "format", "f", "", "file extension")
	cmd.Flags().StringVar(&p.Category, "category", "", "category")
	cmd.Flags().StringVar(&p.Description, "description", "", "description")
	return cmd
}

func newPresetDeleteCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:     "delete NAME",
		Aliases: []string{"rm"},
		Short:   "delete a custom preset",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := deps.Store(ctx)
			if err != nil {
				return err
			}
			return s.Presets.Delete(ctx, args[0])
		},
	}
}

func newPresetRenameCmd(deps *Deps) *cobra.Command {
	var copyOnly bool
	cmd := &cobra.Command{
		Use:   "rename OLD NEW",
		Short: "rename a custom preset, or copy any preset with --copy",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := deps.Store(ctx)
			if err != nil {
				return err
			}
			if copyOnly {
				_, err = s.Presets.Duplicate(ctx, args[0], args[1])
				return err
			}
			return s.Presets.Rename(ctx, args[0], args[1])
		},
	}
	cmd.Flags().BoolVar(&copyOnly, "copy", false, "keep the original")
	return cmd
}

func newPresetExportCmd(deps *Deps) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export [NAME...]",
		Short: "export presets as YAML or JSON (all when no names are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := deps.Store(ctx)
			if err != nil {
				return err
			}
			data, err := s.Presets.Export(ctx, args, store.ExportFormat(strings.ToLower(format)))
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&format, "as", string(store.ExportYAML), "yaml or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newPresetImportCmd(deps *Deps) *cobra.Command {
	var strategy string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "import presets from a YAML or JSON export (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := deps.Store(ctx)
			if err != nil {
				return err
			}
			ms, err := store.ParseMergeStrategy(strategy)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			n, err := s.Presets.Import(ctx, data, ms)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d presets\n", n)
			return err
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", string(store.MergeUpdate), "update, replace, or keep")
	return cmd
}
