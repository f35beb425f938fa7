package cli

import (
	"encoding/json"
	"fmt"

	"github.com/jlrickert/renderpath/pkg/pathchain"
	"github.com/spf13/cobra"
)

func NewBuildCmd(deps *Deps) *cobra.Command {
	var (
		chain  chainFlags
		cflags contextFlags
		live   bool
		next   bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "build a render path from a preset or tags",
		Long: `Build a render output path.

The chain comes from --preset (default: the configured default_preset) or
from --tag names looked up in the tag catalog. A format tag is appended with
--format, the preset's format, or the configured default_format.

Context variables come from the config file, then --script, then --read,
then --set.`,
		Example: `  rpath build --preset Default --set shot_name=SH010
  rpath build -t "project path" -t / -t "shot name" -t version -f dpx
  rpath build --read /plates/bg_v002.1001.exr --next
  rpath build --live --set frame=1012 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tags, err := chain.resolve(ctx, deps)
			if err != nil {
				return err
			}
			c, err := cflags.apply(deps.BaseContext())
			if err != nil {
				return err
			}
			path, err := pathchain.Build(tags, c, live)
			if err != nil {
				return err
			}
			if next {
				var lookupErr error
				path, lookupErr = deps.Resolver.NextAvailable(ctx, path)
				if lookupErr != nil {
					fmt.Fprintf(deps.Streams.Err, "warning: %v\n", lookupErr)
				}
			}

			out := cmd.OutOrStdout()
			if !asJSON {
				_, err = fmt.Fprintln(out, path)
				return err
			}
			info := pathchain.Describe(path, len(tags), c)
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}

	chain.bind(cmd)
	cflags.bind(cmd)
	cmd.Flags().BoolVar(&live, "live", false, "fill frame numbers and expressions from context")
	cmd.Flags().BoolVar(&next, "next", false, "bump to the next version not present on disk")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print path details as JSON")

	return cmd
}

func NewValidateCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "validate PATH...",
		Short: "check render paths for common problems",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			bad := 0
			for _, p := range args {
				ok, issues := pathchain.Validate(p)
				if ok {
					fmt.Fprintf(out, "ok\t%s\n", p)
					continue
				}
				bad++
				fmt.Fprintf(out, "invalid\t%s\n", p)
				for _, issue := range issues {
					fmt.Fprintf(out, "\t- %s\n", issue)
				}
			}
			if bad > 0 {
				return fmt.Errorf("%d of %d paths invalid", bad, len(args))
			}
			return nil
		},
	}
}
