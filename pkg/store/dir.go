package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jlrickert/cli-toolkit/toolkit"
	"github.com/jlrickert/renderpath/pkg/log"
)

const (
	// HomeEnvKey overrides the storage directory.
	HomeEnvKey = "RPATH_HOME"

	// ProjectDirName is the per-project storage directory.
	ProjectDirName = ".rpath"

	appDirName = "renderpath"
)

// ResolveDir picks the storage directory using the order:
// 1) explicit, when non-empty
// 2) RPATH_HOME
// 3) <projectPath>/.rpath, when it can be written
// 4) <user data dir>/renderpath
// 5) <temp dir>/renderpath
//
// Variables and "~" come from env; a nil env reads the process environment.
// The chosen directory exists when ResolveDir returns.
func ResolveDir(ctx context.Context, env toolkit.Env, explicit, projectPath string) (string, error) {
	lg := log.FromContext(ctx)

	if explicit != "" {
		if err := os.MkdirAll(explicit, 0o755); err != nil {
			return "", fmt.Errorf("create store dir %s: %w", explicit, err)
		}
		return explicit, nil
	}

	if env == nil {
		env = &toolkit.OsEnv{}
	}

	var candidates []string
	if v := env.Get(HomeEnvKey); v != "" {
		v = toolkit.ExpandEnv(env, v)
		if p, err := toolkit.ExpandPath(env, v); err == nil {
			v = p
		}
		candidates = append(candidates, v)
	}
	if projectPath != "" {
		candidates = append(candidates, filepath.Join(projectPath, ProjectDirName))
	}
	if data, err := toolkit.UserDataPath(env); err == nil {
		candidates = append(candidates, filepath.Join(data, appDirName))
	}
	if tmp := env.GetTempDir(); tmp != "" {
		candidates = append(candidates, filepath.Join(tmp, appDirName))
	}

	for _, dir := range candidates {
		if writable(dir) {
			lg.Debug("resolved store dir", "dir", dir)
			return dir, nil
		}
		lg.Debug("store dir not writable", "dir", dir)
	}
	return "", fmt.Errorf("no writable store directory: %w", ErrInvalid)
}

// writable creates dir if needed and checks a file can be written in it.
func writable(dir string) bool {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}
	f, err := os.CreateTemp(dir, ".rpath-write-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}
