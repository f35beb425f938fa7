package cli

import (
	"fmt"
	"io"

	"github.com/jlrickert/renderpath/pkg/log"
	"github.com/jlrickert/renderpath/pkg/pathchain"
	"github.com/jlrickert/renderpath/pkg/watch"
	"github.com/spf13/cobra"
)

func NewPreviewCmd(deps *Deps) *cobra.Command {
	var (
		chain  chainFlags
		cflags contextFlags
		watchF bool
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "show a built path with its validation result",
		Long: `Show the path a preset or tag chain builds to, along with its directory,
filename, version, and any validation issues.

With --watch the preview is rebuilt whenever the tag catalog, presets, or
config file change. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := cflags.apply(deps.BaseContext())
			if err != nil {
				return err
			}
			b := pathchain.NewBuilder(c)
			refresh := func() error {
				tags, err := chain.resolve(ctx, deps)
				if err != nil {
					return err
				}
				b.Clear()
				for _, t := range tags {
					b.Add(t)
				}
				info, err := b.Info()
				if err != nil {
					return err
				}
				printPreview(cmd.OutOrStdout(), info)
				return nil
			}

			if err := refresh(); err != nil {
				return err
			}
			if !watchF {
				return nil
			}

			s, err := deps.Store(ctx)
			if err != nil {
				return err
			}
			paths := []string{s.Dir}
			if deps.ConfigPath != "" {
				paths = append(paths, deps.ConfigPath)
			}
			lg := log.FromContext(ctx)
			lg.Info("watching for changes", "paths", paths)
			return watch.Watch(ctx, paths, watch.DefaultDebounce, func(ev watch.Event) {
				fmt.Fprintln(cmd.OutOrStdout())
				if err := refresh(); err != nil {
					lg.Warn("preview rebuild failed", "error", err, "changed", ev.Paths)
					fmt.Fprintf(deps.Streams.Err, "warning: %v\n", err)
				}
			})
		},
	}

	chain.bind(cmd)
	cflags.bind(cmd)
	cmd.Flags().BoolVarP(&watchF, "watch", "w", false, "rebuild on catalog or config changes")

	return cmd
}

func printPreview(w io.Writer, info pathchain.PathInfo) {
	fmt.Fprintf(w, "path:      %s\n", info.Path)
	fmt.Fprintf(w, "directory: %s\n", info.Directory)
	fmt.Fprintf(w, "filename:  %s\n", info.Filename)
	if info.Version != "" {
		fmt.Fprintf(w, "version:   %s\n", info.Version)
	}
	fmt.Fprintf(w, "tags:      %d\n", info.TagCount)
	if info.Valid {
		fmt.Fprintln(w, "valid:     yes")
		return
	}
	fmt.Fprintln(w, "valid:     no")
	for _, issue := range info.Issues {
		fmt.Fprintf(w, "  - %s\n", issue)
	}
}
