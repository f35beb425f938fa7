package cli

import (
	"fmt"

	"github.com/jlrickert/renderpath/pkg/store"
	"github.com/spf13/cobra"
)

func NewCategoryCmd(deps *Deps) *cobra.Command {
	var scopeName string

	withScope := func(run func(cmd *cobra.Command, s *store.Store, scope store.Scope, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			scope, err := store.ParseScope(scopeName)
			if err != nil {
				return err
			}
			s, err := deps.Store(cmd.Context())
			if err != nil {
				return err
			}
			return run(cmd, s, scope, args)
		}
	}

	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories"},
		Short:   "manage tag and preset categories",
	}
	cmd.PersistentFlags().StringVar(&scopeName, "scope", string(store.ScopeTag), "tag or preset")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "list categories",
			Args:  cobra.NoArgs,
			RunE: withScope(func(cmd *cobra.Command, s *store.Store, scope store.Scope, _ []string) error {
				names, err := s.Categories.List(cmd.Context(), scope)
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "add NAME",
			Short: "add a category",
			Args:  cobra.ExactArgs(1),
			RunE: withScope(func(cmd *cobra.Command, s *store.Store, scope store.Scope, args []string) error {
				return s.Categories.Add(cmd.Context(), scope, args[0])
			}),
		},
		&cobra.Command{
			Use:     "remove NAME",
			Aliases: []string{"rm"},
			Short:   "remove a category",
			Args:    cobra.ExactArgs(1),
			RunE: withScope(func(cmd *cobra.Command, s *store.Store, scope store.Scope, args []string) error {
				return s.Categories.Remove(cmd.Context(), scope, args[0])
			}),
		},
		&cobra.Command{
			Use:   "rename OLD NEW",
			Short: "rename a category",
			Args:  cobra.ExactArgs(2),
			RunE: withScope(func(cmd *cobra.Command, s *store.Store, scope store.Scope, args []string) error {
				return s.Categories.Rename(cmd.Context(), scope, args[0], args[1])
			}),
		},
	)
	return cmd
}
