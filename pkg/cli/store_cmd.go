package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewStoreCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "inspect the storage directory",
	}

	info := &cobra.Command{
		Use:   "info",
		Short: "list store documents with their size and backup count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := deps.Store(ctx)
			if err != nil {
				return err
			}
			infos, err := s.Info(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "dir: %s\n", s.Dir)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tEXISTS\tSIZE\tBACKUPS")
			for _, fi := range infos {
				fmt.Fprintf(tw, "%s\t%t\t%d\t%d\n", fi.Path, fi.Exists, fi.Size, fi.Backups)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(info)
	return cmd
}
