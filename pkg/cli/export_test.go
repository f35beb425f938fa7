package cli

import (
	"context"
	"os"
)

// RunDeps runs the command line with caller-owned deps so tests can inspect
// them afterwards.
func RunDeps(ctx context.Context, deps *Deps, args ...string) (int, error) {
	return run(ctx, args, deps)
}

// LogFileOf returns the log file opened for the last run, or nil.
func LogFileOf(d *Deps) *os.File {
	return d.logFile
}
