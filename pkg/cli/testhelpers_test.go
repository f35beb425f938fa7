package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jlrickert/renderpath/pkg/cli"
	"github.com/jlrickert/renderpath/pkg/log"
	"github.com/stretchr/testify/require"
)

// Fixture is an isolated config file and storage directory with a capturing
// logger installed on Ctx.
type Fixture struct {
	Ctx        context.Context
	Dir        string
	Project    string
	StoreDir   string
	ConfigPath string
	Logger     *log.TestHandler
}

// NewFixture writes a config whose context points project_path at a temp
// project directory and sets a fixed user_name.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	lg, th := log.NewTestLogger(t)
	dir := t.TempDir()
	f := &Fixture{
		Ctx:        log.ContextWithLogger(context.Background(), lg),
		Dir:        dir,
		Project:    filepath.Join(dir, "proj"),
		StoreDir:   filepath.Join(dir, "store"),
		ConfigPath: filepath.Join(dir, "config.yaml"),
		Logger:     th,
	}
	cfg := "# test config\ncontext:\n  project_path: " + f.Project + "\n  user_name: artist\n"
	require.NoError(t, os.WriteFile(f.ConfigPath, []byte(cfg), 0o644))
	return f
}

// Result captures one command run.
type Result struct {
	Code   int
	Err    error
	Stdout string
	Stderr string
}

// Run executes rpath with the fixture's --config and --store prepended.
func (f *Fixture) Run(t *testing.T, args ...string) Result {
	t.Helper()
	return f.RunWithInput(t, "", args...)
}

func (f *Fixture) RunWithInput(t *testing.T, stdin string, args ...string) Result {
	t.Helper()
	return f.RunContext(t, f.Ctx, stdin, args...)
}

func (f *Fixture) RunContext(t *testing.T, ctx context.Context, stdin string, args ...string) Result {
	t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--config", f.ConfigPath, "--store", f.StoreDir}, args...)
	code, err := cli.Run(ctx, full, cli.Streams{
		In:  strings.NewReader(stdin),
		Out: &out,
		Err: &errOut,
	})
	return Result{Code: code, Err: err, Stdout: out.String(), Stderr: errOut.String()}
}

// Touch creates empty files under the project directory.
func (f *Fixture) Touch(t *testing.T, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(f.Project, n)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
