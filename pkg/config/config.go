// Package config reads and writes the renderpath YAML configuration.
//
// Values are stored as written. Environment variables and a leading "~" in
// storage_dir and context values are expanded only when read through
// StoragePath and BaseContext, so a round trip through Write keeps them.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jlrickert/cli-toolkit/toolkit"
	"github.com/jlrickert/renderpath/pkg/log"
	"github.com/jlrickert/renderpath/pkg/pathchain"
	"gopkg.in/yaml.v3"
)

const (
	// EnvKey names the environment variable overriding the config path.
	EnvKey = "RPATH_CONFIG"

	FileName   = "config.yaml"
	AppDirName = "renderpath"
)

// LogConfig controls the logger installed by the CLI.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
	File  string `yaml:"file,omitempty"`
}

// Config is the user configuration.
type Config struct {
	StorageDir        string            `yaml:"storage_dir"`
	DefaultFormat     string            `yaml:"default_format"`
	Padding           string            `yaml:"padding"`
	AutoIncrement     bool              `yaml:"auto_increment"`
	CreateDirectories bool              `yaml:"create_directories"`
	DefaultPreset     string            `yaml:"default_preset"`
	Context           map[string]string `yaml:"context,omitempty"`
	Log               LogConfig         `yaml:"log"`

	// node is the parsed document, kept so Write preserves comments.
	node *yaml.Node
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultFormat: pathchain.DefaultFormat,
		Padding:       pathchain.DefaultPadding,
		AutoIncrement: true,
		DefaultPreset: "Default",
		Context:       map[string]string{},
		Log:           LogConfig{Level: "info"},
	}
}

// DefaultPath is $RPATH_CONFIG, or config.yaml under the user config
// directory. A nil env reads the process environment.
func DefaultPath(env toolkit.Env) (string, error) {
	if p := toolkit.GetDefault(orOsEnv(env), EnvKey, ""); p != "" {
		return ExpandPath(env, p), nil
	}
	dir, err := toolkit.UserConfigPath(env)
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	return filepath.Join(dir, AppDirName, FileName), nil
}

// Parse decodes raw YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &InvalidConfigError{Msg: "parse", Err: err}
	}
	if err := node.Decode(cfg); err != nil {
		return nil, &InvalidConfigError{Msg: "decode", Err: err}
	}
	if cfg.Context == nil {
		cfg.Context = map[string]string{}
	}
	cfg.node = &node
	return cfg, nil
}

// Read loads the config at path. A missing file yields Default.
func Read(ctx context.Context, path string) (*Config, error) {
	lg := log.FromContext(ctx)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		lg.Debug("config not found, using defaults", "path", path)
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		var ice *InvalidConfigError
		if errors.As(err, &ice) {
			ice.Path = path
		}
		lg.Error("failed to parse config", "path", path, "err", err)
		return nil, err
	}
	lg.Debug("config read", "path", path)
	return cfg, nil
}

// Write validates cfg and writes it to path atomically, creating parent
// directories. Comments from a previously read document are kept.
func Write(ctx context.Context, path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write config: %w", err)
	}
	log.FromContext(ctx).Info("config written", "path", path)
	return nil
}

// Marshal encodes cfg as YAML, merging into the original document when cfg
// was parsed from one.
func (c *Config) Marshal() ([]byte, error) {
	var fresh yaml.Node
	if err := fresh.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	out := &fresh
	if c.node != nil && len(c.node.Content) > 0 {
		doc := c.node.Content[0]
		if doc.Kind == yaml.MappingNode {
			mergeMapping(doc, &fresh)
			out = c.node
		}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// mergeMapping copies the values of src into dst in place. Keys already in
// dst keep their position and comments; new keys are appended.
func mergeMapping(dst, src *yaml.Node) {
	for i := 0; i+1 < len(src.Content); i += 2 {
		key, val := src.Content[i], src.Content[i+1]
		j := mappingIndex(dst, key.Value)
		if j < 0 {
			dst.Content = append(dst.Content, key, val)
			continue
		}
		cur := dst.Content[j+1]
		switch {
		case cur.Kind == yaml.MappingNode && val.Kind == yaml.MappingNode:
			mergeMapping(cur, val)
		case cur.Kind == yaml.ScalarNode && val.Kind == yaml.ScalarNode:
			cur.Value, cur.Tag, cur.Style = val.Value, val.Tag, val.Style
		default:
			val.HeadComment, val.LineComment = cur.HeadComment, cur.LineComment
			dst.Content[j+1] = val
		}
	}
}

func mappingIndex(m *yaml.Node, key string) int {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return i
		}
	}
	return -1
}

var (
	formatRe  = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	paddingRe = regexp.MustCompile(`^(%0?\d*d|#+|@+)$`)
)

// Validate reports every problem found as a single *InvalidConfigError.
func (c *Config) Validate() error {
	var problems []string
	if !formatRe.MatchString(c.DefaultFormat) {
		problems = append(problems, fmt.Sprintf("default_format %q must be a bare extension", c.DefaultFormat))
	}
	if !paddingRe.MatchString(c.Padding) {
		problems = append(problems, fmt.Sprintf("padding %q must look like %%04d, #### or @@@@", c.Padding))
	}
	if strings.TrimSpace(c.DefaultPreset) == "" {
		problems = append(problems, "default_preset is empty")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q is not a level", c.Log.Level))
	}
	if len(problems) == 0 {
		return nil
	}
	return &InvalidConfigError{Msg: strings.Join(problems, "; ")}
}

// StoragePath is StorageDir with variables and "~" expanded.
func (c *Config) StoragePath() string {
	return ExpandPath(nil, c.StorageDir)
}

// BaseContext returns the configured context with values expanded. user_name
// falls back to the OS user.
func (c *Config) BaseContext() pathchain.Context {
	out := pathchain.Context{}
	for k, v := range c.Context {
		out[k] = ExpandPath(nil, v)
	}
	if out.Get(pathchain.KeyUserName) == "" {
		out[pathchain.KeyUserName] = osUser()
	}
	return out
}

func osUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	return "user"
}

// ExpandPath expands environment variables and a leading "~" using env. A
// nil env reads the process environment. Paths whose home cannot be found are
// returned with only variables expanded.
func ExpandPath(env toolkit.Env, p string) string {
	if p == "" {
		return p
	}
	expanded := toolkit.ExpandEnv(env, p)
	if out, err := toolkit.ExpandPath(env, expanded); err == nil {
		return out
	}
	return expanded
}

func orOsEnv(env toolkit.Env) toolkit.Env {
	if env == nil {
		return &toolkit.OsEnv{}
	}
	return env
}
