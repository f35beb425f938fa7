package cli

import (
	"errors"
	"fmt"

	"github.com/jlrickert/renderpath/pkg/version"
	"github.com/spf13/cobra"
)

var errNoVersion = errors.New("no version found")

func NewVersionCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "inspect and bump version tokens in paths",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "extract PATH",
			Short: "print the normalized version in PATH",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, ok := version.Extract(args[0])
				if !ok {
					return fmt.Errorf("%s: %w", args[0], errNoVersion)
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), v)
				return err
			},
		},
		&cobra.Command{
			Use:   "bump PATH",
			Short: "print PATH with its version incremented",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Increment(args[0]))
				return err
			},
		},
		&cobra.Command{
			Use:   "next PATH",
			Short: "print PATH with the next version not present on disk",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				next, err := deps.Resolver.NextAvailable(cmd.Context(), args[0])
				if err != nil {
					fmt.Fprintf(deps.Streams.Err, "warning: %v\n", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), next)
				return err
			},
		},
		&cobra.Command{
			Use:   "history PATH",
			Short: "list existing versions of PATH, oldest first",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				names, err := deps.Resolver.History(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				for _, n := range names {
					v, _ := version.Extract(n)
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", v, n)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "check TOKEN",
			Short: "check that TOKEN is a valid version such as v01",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if !version.ValidFormat(args[0]) {
					return fmt.Errorf("%w: %q", version.ErrInvalidFormat, args[0])
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return err
			},
		},
		&cobra.Command{
			Use:   "replace PATH TOKEN",
			Short: "print PATH with its version replaced by TOKEN",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := version.Replace(args[0], args[1])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
				return err
			},
		},
	)
	return cmd
}
