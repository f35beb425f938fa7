package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jlrickert/cli-toolkit/toolkit"
	"github.com/jlrickert/renderpath/pkg/config"
	"github.com/jlrickert/renderpath/pkg/internal"
	"github.com/jlrickert/renderpath/pkg/log"
	"github.com/jlrickert/renderpath/pkg/pathchain"
	"github.com/jlrickert/renderpath/pkg/store"
	"github.com/jlrickert/renderpath/pkg/version"
	"github.com/spf13/cobra"
)

// Deps carries flag values and the services built from them. Services are
// created lazily so commands that never touch the store do not create one.
type Deps struct {
	Streams Streams

	ConfigPath string
	StoreDir   string
	LogFile    string
	LogLevel   string
	LogJSON    bool

	Config   *config.Config
	Resolver *version.Resolver

	// Runtime supplies the environment for path expansion and the editor.
	Runtime *toolkit.Runtime

	store   *store.Store
	logFile *os.File
}

// closeLog releases the log file opened for this run, if any.
func (d *Deps) closeLog() {
	if d.logFile != nil {
		_ = d.logFile.Close()
	}
}

// Store opens the storage directory on first use.
func (d *Deps) Store(ctx context.Context) (*store.Store, error) {
	if d.store != nil {
		return d.store, nil
	}
	explicit := d.StoreDir
	if explicit == "" {
		explicit = d.Config.StoragePath()
	}
	dir, err := store.ResolveDir(ctx, d.env(), explicit, d.BaseContext().Get(pathchain.KeyProjectPath))
	if err != nil {
		return nil, err
	}
	s, err := store.Open(ctx, dir)
	if err != nil {
		return nil, err
	}
	d.store = s
	return s, nil
}

func (d *Deps) env() toolkit.Env {
	if d.Runtime == nil {
		return nil
	}
	return d.Runtime
}

// BaseContext is the configured build context.
func (d *Deps) BaseContext() pathchain.Context {
	return d.Config.BaseContext()
}

func NewRootCmd(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = &Deps{Streams: OSStreams()}
	}

	cmd := &cobra.Command{
		Use:           "rpath",
		Short:         "build and version render output paths",
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Respect an existing context (tests install a test logger).
			ctx := cmd.Context()

			if deps.Runtime == nil {
				rt, err := toolkit.NewRuntime(toolkit.WithRuntimeStream(&toolkit.Stream{
					In:      deps.Streams.In,
					Out:     deps.Streams.Out,
					Err:     deps.Streams.Err,
					IsPiped: internal.IsPipe(deps.Streams.In),
					IsTTY:   internal.IsTerminal(deps.Streams.Out),
				}))
				if err != nil {
					return fmt.Errorf("init runtime: %w", err)
				}
				deps.Runtime = rt
			}

			path := deps.ConfigPath
			if path == "" {
				var err error
				if path, err = config.DefaultPath(deps.Runtime); err != nil {
					return err
				}
				deps.ConfigPath = path
			}
			cfg, err := config.Read(ctx, path)
			if err != nil {
				return err
			}
			deps.Config = cfg

			if !log.HasLogger(ctx) {
				level := cfg.Log.Level
				if cmd.Flags().Changed("log-level") {
					level = deps.LogLevel
				}
				asJSON := cfg.Log.JSON || deps.LogJSON
				logFile := deps.LogFile
				if logFile == "" {
					logFile = config.ExpandPath(deps.Runtime, cfg.Log.File)
				}
				var out io.Writer = deps.Streams.Err
				if logFile != "" {
					f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
					if err != nil {
						return fmt.Errorf("open log file: %w", err)
					}
					deps.logFile = f
					out = f
				}
				lg := log.NewLogger(log.LoggerConfig{
					Out:     out,
					Level:   log.ParseLevel(level),
					JSON:    asJSON,
					Version: Version,
				})
				ctx = log.ContextWithLogger(ctx, lg)
			}
			if deps.Resolver == nil {
				deps.Resolver = version.NewResolver(nil)
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&deps.ConfigPath, "config", "c", "", "path to config file (default $RPATH_CONFIG or the user config dir)")
	cmd.PersistentFlags().StringVar(&deps.StoreDir, "store", "", "storage directory for tags and presets")
	cmd.PersistentFlags().StringVar(&deps.LogFile, "log-file", "", "write logs to file (default stderr)")
	cmd.PersistentFlags().StringVar(&deps.LogLevel, "log-level", "info", "minimum log level")
	cmd.PersistentFlags().BoolVar(&deps.LogJSON, "log-json", false, "output logs as JSON")

	cmd.AddCommand(
		NewBuildCmd(deps),
		NewValidateCmd(deps),
		NewVersionCmd(deps),
		NewPresetCmd(deps),
		NewTagCmd(deps),
		NewCategoryCmd(deps),
		NewBatchCmd(deps),
		NewPreviewCmd(deps),
		NewConfigCmd(deps),
		NewStoreCmd(deps),
		NewMCPCmd(deps),
	)

	return cmd
}
