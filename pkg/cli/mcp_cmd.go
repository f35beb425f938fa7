package cli

import (
	"github.com/jlrickert/renderpath/pkg/mcpserver"
	"github.com/spf13/cobra"
)

func NewMCPCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "serve path tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := deps.Store(ctx)
			if err != nil {
				return err
			}
			srv := mcpserver.New(mcpserver.Deps{
				Store:    s,
				Resolver: deps.Resolver,
				Base:     deps.BaseContext(),
				Version:  Version,
			})
			return mcpserver.Serve(ctx, srv)
		},
	}
}
