// Package mcpserver exposes path building and version lookups as MCP tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/jlrickert/renderpath/pkg/log"
	"github.com/jlrickert/renderpath/pkg/pathchain"
	"github.com/jlrickert/renderpath/pkg/store"
	"github.com/jlrickert/renderpath/pkg/version"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Deps are the services the tools run against. Store may be nil, in which
// case build_path rejects preset and catalog lookups.
type Deps struct {
	Store    *store.Store
	Resolver *version.Resolver
	Base     pathchain.Context
	Version  string
}

type handlers struct {
	deps Deps
}

// New builds a server with every tool registered.
func New(deps Deps) *mcp.Server {
	if deps.Resolver == nil {
		deps.Resolver = version.NewResolver(nil)
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "rpath", Version: deps.Version}, nil)
	h := &handlers{deps: deps}

	mcp.AddTool(s, &mcp.Tool{
		Name:        "build_path",
		Description: "Build a render output path from a preset or a list of catalog tag names.",
	}, h.buildPath)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "validate_path",
		Description: "Check a render path for emptiness, invalid characters, length, extension, and version.",
	}, h.validatePath)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "extract_version",
		Description: "Extract the normalized version token (vNN) from a path.",
	}, h.extractVersion)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "next_version",
		Description: "Return the path with the next version not yet present on disk.",
	}, h.nextVersion)
	mcp.AddTool(s, &mcp.Tool{
		Name:        "version_history",
		Description: "List the files on disk sharing the path's versioned pattern, oldest first.",
	}, h.versionHistory)
	return s
}

// Serve runs s over stdin and stdout until ctx is done or the client
// disconnects.
func Serve(ctx context.Context, s *mcp.Server) error {
	log.FromContext(ctx).Info("serving mcp over stdio")
	if err := s.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

type BuildInput struct {
	Preset  string            `json:"preset,omitempty" jsonschema:"preset name; takes precedence over tags"`
	Tags    []string          `json:"tags,omitempty" jsonschema:"catalog tag names in order"`
	Format  string            `json:"format,omitempty" jsonschema:"file extension override"`
	Context map[string]string `json:"context,omitempty" jsonschema:"context variables such as project_path and shot_name"`
	Live    bool              `json:"live,omitempty" jsonschema:"substitute the frame from context for the padding"`
}

type BuildOutput struct {
	Path      string   `json:"path"`
	Valid     bool     `json:"is_valid"`
	Issues    []string `json:"issues,omitempty"`
	TagCount  int      `json:"tags_count"`
	Directory string   `json:"directory,omitempty"`
	Filename  string   `json:"filename,omitempty"`
	Version   string   `json:"version,omitempty"`
	Missing   []string `json:"missing,omitempty"`
}

func (h *handlers) buildPath(ctx context.Context, _ *mcp.CallToolRequest, in BuildInput) (*mcp.CallToolResult, BuildOutput, error) {
	if h.deps.Store == nil {
		return nil, BuildOutput{}, errors.New("no store configured")
	}
	var (
		tags    []pathchain.Tag
		missing []string
	)
	switch {
	case in.Preset != "":
		res, err := h.deps.Store.ResolvePreset(ctx, in.Preset, in.Format)
		if err != nil {
			return nil, BuildOutput{}, err
		}
		tags, missing = res.Tags, res.Missing
	case len(in.Tags) > 0:
		hasFormat := false
		for _, name := range in.Tags {
			t, err := h.deps.Store.Tags.Get(ctx, name)
			if store.IsNotFound(err) {
				missing = append(missing, name)
				continue
			}
			if err != nil {
				return nil, BuildOutput{}, err
			}
			hasFormat = hasFormat || t.Kind == pathchain.KindFormat
			tags = append(tags, t)
		}
		if !hasFormat {
			tags = append(tags, pathchain.FormatTag(in.Format, ""))
		}
	default:
		return nil, BuildOutput{}, errors.New("one of preset or tags is required")
	}

	c := h.deps.Base.Merge(in.Context)
	path, err := pathchain.Build(tags, c, in.Live)
	if err != nil {
		return nil, BuildOutput{}, err
	}
	info := pathchain.Describe(path, len(tags), c)
	return nil, BuildOutput{
		Path:      info.Path,
		Valid:     info.Valid,
		Issues:    info.Issues,
		TagCount:  info.TagCount,
		Directory: info.Directory,
		Filename:  info.Filename,
		Version:   info.Version,
		Missing:   missing,
	}, nil
}

type PathInput struct {
	Path string `json:"path" jsonschema:"file path to inspect"`
}

type ValidateOutput struct {
	Valid  bool     `json:"is_valid"`
	Issues []string `json:"issues,omitempty"`
}

func (h *handlers) validatePath(_ context.Context, _ *mcp.CallToolRequest, in PathInput) (*mcp.CallToolResult, ValidateOutput, error) {
	valid, issues := pathchain.Validate(in.Path)
	return nil, ValidateOutput{Valid: valid, Issues: issues}, nil
}

type VersionOutput struct {
	Found   bool   `json:"found"`
	Version string `json:"version,omitempty"`
	Number  int    `json:"number,omitempty"`
}

func (h *handlers) extractVersion(_ context.Context, _ *mcp.CallToolRequest, in PathInput) (*mcp.CallToolResult, VersionOutput, error) {
	v, ok := version.Extract(in.Path)
	if !ok {
		return nil, VersionOutput{}, nil
	}
	n, _ := version.Number(in.Path)
	return nil, VersionOutput{Found: true, Version: v, Number: n}, nil
}

type NextOutput struct {
	Path    string `json:"path"`
	Version string `json:"version,omitempty"`
	Warning string `json:"warning,omitempty"`
}

func (h *handlers) nextVersion(ctx context.Context, _ *mcp.CallToolRequest, in PathInput) (*mcp.CallToolResult, NextOutput, error) {
	if in.Path == "" {
		return nil, NextOutput{}, errors.New("path is required")
	}
	next, err := h.deps.Resolver.NextAvailable(ctx, in.Path)
	out := NextOutput{Path: next}
	out.Version, _ = version.Extract(next)
	if err != nil {
		out.Warning = err.Error()
	}
	return nil, out, nil
}

type HistoryOutput struct {
	Versions []string `json:"versions,omitempty"`
}

func (h *handlers) versionHistory(ctx context.Context, _ *mcp.CallToolRequest, in PathInput) (*mcp.CallToolResult, HistoryOutput, error) {
	names, err := h.deps.Resolver.History(ctx, in.Path)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	return nil, HistoryOutput{Versions: names}, nil
}
