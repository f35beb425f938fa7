package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jlrickert/cli-toolkit/toolkit"
	"github.com/jlrickert/renderpath/pkg/config"
	"github.com/jlrickert/renderpath/pkg/log"
	"github.com/jlrickert/renderpath/pkg/pathchain"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	lg, _ := log.NewTestLogger(t)
	return log.ContextWithLogger(context.Background(), lg)
}

func TestReadMissingReturnsDefaults(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)

	cfg, err := config.Read(ctx, filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, "exr", cfg.DefaultFormat)
	require.Equal(t, "%04d", cfg.Padding)
	require.True(t, cfg.AutoIncrement)
	require.Equal(t, "Default", cfg.DefaultPreset)
	require.NoError(t, cfg.Validate())
}

func TestReadOverlaysDefaults(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `default_format: dpx
auto_increment: false
context:
  project_path: /jobs/show
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := config.Read(ctx, path)
	require.NoError(t, err)
	require.Equal(t, "dpx", cfg.DefaultFormat)
	require.Equal(t, "%04d", cfg.Padding)
	require.False(t, cfg.AutoIncrement)
	require.Equal(t, "/jobs/show", cfg.Context["project_path"])
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestReadMalformed(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("context: [unclosed"), 0o644))

	_, err := config.Read(ctx, path)
	require.Error(t, err)
	require.True(t, config.IsInvalidConfig(err))
	require.Contains(t, err.Error(), path)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"dotted format", func(c *config.Config) { c.DefaultFormat = ".exr" }, "default_format"},
		{"bad padding", func(c *config.Config) { c.Padding = "%s" }, "padding"},
		{"hash padding", func(c *config.Config) { c.Padding = "####" }, ""},
		{"no preset", func(c *config.Config) { c.DefaultPreset = " " }, "default_preset"},
		{"bad level", func(c *config.Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.want == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, config.ErrInvalidConfig)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestWritePreservesCommentsAndTemplates(t *testing.T) {
	t.Parallel()
	ctx := testContext(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	raw := `# renderpath settings
storage_dir: $HOME/.rpath # per-user store
default_format: exr
context:
  project_path: /jobs/show
`
	cfg, err := config.Parse([]byte(raw))
	require.NoError(t, err)
	cfg.DefaultFormat = "dpx"
	cfg.Context["department"] = "comp"
	require.NoError(t, config.Write(ctx, path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	require.Contains(t, out, "# renderpath settings")
	require.Contains(t, out, "# per-user store")
	require.Contains(t, out, "storage_dir: $HOME/.rpath")
	require.Contains(t, out, "default_format: dpx")

	again, err := config.Read(ctx, path)
	require.NoError(t, err)
	require.Equal(t, "comp", again.Context["department"])
	require.Equal(t, "$HOME/.rpath", again.StorageDir)

	bad := config.Default()
	bad.Padding = "x"
	require.True(t, config.IsInvalidConfig(config.Write(ctx, path, bad)))
}

func TestExpansion(t *testing.T) {
	t.Setenv("RPATH_TEST_SHOW", "/jobs/demo")
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.StorageDir = "~/rpath"
	cfg.Context = map[string]string{
		pathchain.KeyProjectPath: "$RPATH_TEST_SHOW/shots",
		pathchain.KeyUserName:    "artist",
	}
	require.Equal(t, filepath.Join(home, "rpath"), cfg.StoragePath())

	base := cfg.BaseContext()
	require.Equal(t, "/jobs/demo/shots", base.Get(pathchain.KeyProjectPath))
	require.Equal(t, "artist", base.Get(pathchain.KeyUserName))

	delete(cfg.Context, pathchain.KeyUserName)
	require.NotEmpty(t, cfg.BaseContext().Get(pathchain.KeyUserName))
}

func TestDefaultPathFromEnv(t *testing.T) {
	t.Setenv(config.EnvKey, "/etc/rpath.yaml")
	got, err := config.DefaultPath(nil)
	require.NoError(t, err)
	require.Equal(t, "/etc/rpath.yaml", got)
}

func TestDefaultPathUsesEnv(t *testing.T) {
	t.Parallel()
	home := filepath.Join(t.TempDir(), "home", "artist")
	env := toolkit.NewTestEnv("", home, "artist")
	require.NoError(t, env.Set("XDG_CONFIG_HOME", filepath.Join(home, "cfg")))

	got, err := config.DefaultPath(env)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "cfg", config.AppDirName, config.FileName), got)

	require.NoError(t, env.Set(config.EnvKey, "~/rpath/alt.yaml"))
	got, err = config.DefaultPath(env)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "rpath", "alt.yaml"), got)
}

func TestExpandPathUsesEnv(t *testing.T) {
	t.Parallel()
	home := filepath.Join(t.TempDir(), "home", "artist")
	env := toolkit.NewTestEnv("", home, "artist")
	require.NoError(t, env.Set("SHOW", "/jobs/demo"))

	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"~", home},
		{"~/renders", filepath.Join(home, "renders")},
		{"$SHOW/shots", "/jobs/demo/shots"},
		{"${SHOW}/~/x", "/jobs/demo/~/x"},
		{"/abs/path", "/abs/path"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, config.ExpandPath(env, tc.in), tc.in)
	}
}
