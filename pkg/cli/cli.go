package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Version is stamped at build time.
var Version = "dev"

// Streams are the IO endpoints a command run reads from and writes to.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// OSStreams returns the process stdin, stdout, and stderr.
func OSStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Run executes the rpath command line and returns the process exit code.
// Cancellation (an interrupt, or ctx ending) yields 130.
func Run(ctx context.Context, args []string, streams Streams) (int, error) {
	return run(ctx, args, &Deps{Streams: streams})
}

func run(ctx context.Context, args []string, deps *Deps) (int, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	// Persistent post-run hooks are skipped when a command fails.
	defer deps.closeLog()

	streams := deps.Streams
	cmd := NewRootCmd(deps)
	cmd.SetArgs(args)
	cmd.SetIn(streams.In)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.Err)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 130, err
		}
		fmt.Fprintln(streams.Err, "error:", renderUserError(err, deps))
		return 1, err
	}
	return 0, nil
}
