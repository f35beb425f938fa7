package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jlrickert/cli-toolkit/toolkit"
	"github.com/jlrickert/renderpath/pkg/config"
	"github.com/spf13/cobra"
)

func NewConfigCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "show or create the config file",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "print the effective config as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := deps.Config.Marshal()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", deps.ConfigPath)
			_, err = out.Write(data)
			return err
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), deps.ConfigPath)
			return err
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := os.Stat(deps.ConfigPath)
			switch {
			case err == nil && !force:
				return fmt.Errorf("%s already exists (use --force to overwrite)", deps.ConfigPath)
			case err != nil && !errors.Is(err, fs.ErrNotExist):
				return err
			}
			if err := config.Write(cmd.Context(), deps.ConfigPath, config.Default()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", deps.ConfigPath)
			return err
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")

	edit := &cobra.Command{
		Use:   "edit",
		Short: "open the config file in $VISUAL or $EDITOR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := os.Stat(deps.ConfigPath); errors.Is(err, fs.ErrNotExist) {
				if err := config.Write(ctx, deps.ConfigPath, deps.Config); err != nil {
					return err
				}
			}
			if err := toolkit.Edit(ctx, deps.Runtime, deps.ConfigPath); err != nil {
				return err
			}
			cfg, err := config.Read(ctx, deps.ConfigPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "config ok")
			return err
		},
	}

	cmd.AddCommand(show, path, initCmd, edit)
	return cmd
}
