package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/jlrickert/renderpath/pkg/pathchain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func NewTagCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tag",
		Aliases: []string{"tags"},
		Short:   "manage the tag catalog",
	}
	cmd.AddCommand(
		newTagListCmd(deps),
		newTagShowCmd(deps),
		newTagAddCmd(deps),
		newTagDeleteCmd(deps),
	)
	return cmd
}

func newTagListCmd(deps *Deps) *cobra.Command {
	var (
		kind     string
		category string
		search   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list catalog tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := deps.Store(ctx)
			if err != nil {
				return err
			}
			var tags []pathchain.Tag
			switch {
			case kind != "":
				k, perr := pathchain.ParseKind(kind)
				if perr != nil {
					return perr
				}
				tags, err = s.Tags.ByKind(ctx, k)
			case category != "":
				tags, err = s.Tags.ByCategory(ctx, category)
			case search != "":
				tags, err = s.Tags.Search(ctx, search)
			default:
				tags, err = s.Tags.All(ctx)
			}
			if err != nil {
				return err
			}
			for _, t := range tags {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", t.Name, t.Kind, t.Category, t.DisplayValue())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only tags of this kind")
	cmd.Flags().StringVar(&category, "category", "", "only tags in this category")
	cmd.Flags().StringVarP(&search, "search", "s", "", "fuzzy match on name, category, and value")
	return cmd
}

func newTagShowCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "print a tag as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := deps.Store(ctx)
			if err != nil {
				return err
			}
			t, err := s.Tags.Get(ctx, args[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(t); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func newTagAddCmd(deps *Deps) *cobra.Command {
	var (
		kind string
		t    pathchain.Tag
	)
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "add or update a custom tag",
		Example: `  rpath tag add pass --kind text --default beauty
  rpath tag add dash --kind separator --value -
  rpath tag add plate --kind format --format dpx --padding ####`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := deps.Store(ctx)
			if err != nil {
				return err
			}
			k, err := pathchain.ParseKind(kind)
			if err != nil {
				return err
			}
			t.Name, t.Kind = args[0], k
			if err := s.Tags.Save(ctx, t); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved tag %q\n", t.Name)
			return err
		},
	}
	cmd.Flags().StringVar(&kind, "kind", pathchain.KindText.String(), "text, separator, dynamic, format, version, or expression")
	cmd.Flags().StringVar(&t.Default, "default", "", "default value")
	cmd.Flags().StringVar(&t.Value, "value", "", "separator value")
	cmd.Flags().StringVar(&t.Format, "format", "", "file extension for format tags")
	cmd.Flags().StringVar(&t.Padding, "padding", "", "frame padding for format tags")
	cmd.Flags().StringVar(&t.Version, "version", "", "version for version tags")
	cmd.Flags().StringVar(&t.Expression, "expr", "", "host expression for expression tags")
	cmd.Flags().StringVar(&t.Category, "category", "", "category")
	return cmd
}

func newTagDeleteCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:     "delete NAME",
		Aliases: []string{"rm"},
		Short:   "delete a custom tag",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := deps.Store(ctx)
			if err != nil {
				return err
			}
			return s.Tags.Delete(ctx, args[0])
		},
	}
}

// readInput reads the named file, or stdin for "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}
