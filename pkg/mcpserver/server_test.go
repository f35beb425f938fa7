package mcpserver_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jlrickert/renderpath/pkg/log"
	"github.com/jlrickert/renderpath/pkg/mcpserver"
	"github.com/jlrickert/renderpath/pkg/pathchain"
	"github.com/jlrickert/renderpath/pkg/store"
	"github.com/jlrickert/renderpath/pkg/version"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx     context.Context
	fs      *version.MemoryFS
	session *mcp.ClientSession
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	lg, _ := log.NewTestLogger(t)
	ctx := log.ContextWithLogger(context.Background(), lg)

	s, err := store.Open(ctx, t.TempDir())
	require.NoError(t, err)
	fs := version.NewMemoryFS()
	server := mcpserver.New(mcpserver.Deps{
		Store:    s,
		Resolver: version.NewResolver(fs),
		Base:     pathchain.Context{pathchain.KeyProjectPath: "proj"},
		Version:  "test",
	})

	st, ct := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})
	return &fixture{ctx: ctx, fs: fs, session: cs}
}

// call invokes a tool and decodes its JSON text output into out.
func (f *fixture) call(t *testing.T, name string, args map[string]any, out any) *mcp.CallToolResult {
	t.Helper()
	res, err := f.session.CallTool(f.ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	if out != nil && !res.IsError {
		require.NotEmpty(t, res.Content)
		text, ok := res.Content[0].(*mcp.TextContent)
		require.True(t, ok)
		require.NoError(t, json.Unmarshal([]byte(text.Text), out))
	}
	return res
}

func TestListTools(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	res, err := f.session.ListTools(f.ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"build_path", "validate_path", "extract_version", "next_version", "version_history",
	}, names)
}

func TestBuildPathTool(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	var out mcpserver.BuildOutput
	f.call(t, "build_path", map[string]any{
		"preset":  "Default",
		"context": map[string]any{"shot_name": "SH010"},
	}, &out)
	require.Equal(t, "proj/SH010_v01.%04d.exr", out.Path)
	require.True(t, out.Valid)
	require.Equal(t, "v01", out.Version)

	out = mcpserver.BuildOutput{}
	f.call(t, "build_path", map[string]any{
		"tags":    []string{"shot name", "_", "version", "ghost"},
		"format":  "png",
		"context": map[string]any{"shot_name": "SH020", "frame": "12"},
		"live":    true,
	}, &out)
	require.Equal(t, "SH020_v01.0012.png", out.Path)
	require.Equal(t, []string{"ghost"}, out.Missing)

	res := f.call(t, "build_path", map[string]any{}, nil)
	require.True(t, res.IsError)
}

func TestVersionTools(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fs.AddFile("/r/shot_v01.exr")
	f.fs.AddFile("/r/shot_v02.exr")

	var v struct {
		Found   bool   `json:"found"`
		Version string `json:"version"`
		Number  int    `json:"number"`
	}
	f.call(t, "extract_version", map[string]any{"path": "shot.v003.exr"}, &v)
	require.True(t, v.Found)
	require.Equal(t, "v03", v.Version)
	require.Equal(t, 3, v.Number)

	var next mcpserver.NextOutput
	f.call(t, "next_version", map[string]any{"path": "/r/shot_v01.exr"}, &next)
	require.Equal(t, "/r/shot_v03.exr", next.Path)
	require.Equal(t, "v03", next.Version)
	require.Empty(t, next.Warning)

	var hist mcpserver.HistoryOutput
	f.call(t, "version_history", map[string]any{"path": "/r/shot_v05.exr"}, &hist)
	require.Equal(t, []string{"/r/shot_v01.exr", "/r/shot_v02.exr"}, hist.Versions)

	var val mcpserver.ValidateOutput
	f.call(t, "validate_path", map[string]any{"path": "/r/shot.exr"}, &val)
	require.False(t, val.Valid)
	require.Equal(t, []string{pathchain.IssueNoVersion}, val.Issues)
}
