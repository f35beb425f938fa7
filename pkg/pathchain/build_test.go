package pathchain_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jlrickert/renderpath/pkg/pathchain"
	"github.com/stretchr/testify/require"
)

func roundTripChain() []pathchain.Tag {
	return []pathchain.Tag{
		pathchain.Dynamic("project path"),
		pathchain.Separator("/"),
		pathchain.Dynamic("shot name"),
		pathchain.VersionTag("v01"),
		pathchain.FormatTag("exr", "%04d"),
	}
}

func TestBuildRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := pathchain.Context{"project_path": "proj", "shot_name": "SH010"}

	got, err := pathchain.Build(roundTripChain(), ctx, false)
	require.NoError(t, err)
	require.Equal(t, "proj/SH010_v01.%04d.exr", got)
}

func TestBuildFallbacks(t *testing.T) {
	t.Parallel()
	got, err := pathchain.Build(roundTripChain(), nil, false)
	require.NoError(t, err)
	require.Equal(t, "/project/path/shot_name_v01.%04d.exr", got)
}

func TestBuildTagKinds(t *testing.T) {
	t.Parallel()

	ctx := pathchain.Context{
		"read_name":  "bg",
		"frame":      "12",
		"scene":      "SH010_comp_v03",
		"script_dir": "/jobs/scripts",
		"render":     "/mnt/out",
	}

	cases := []struct {
		name string
		tags []pathchain.Tag
		live bool
		want string
	}{
		{"text default", []pathchain.Tag{pathchain.Text("x", "beauty")}, false, "beauty"},
		{"text name fallback", []pathchain.Tag{pathchain.Text("beauty", "")}, false, "beauty"},
		{"text read_name", []pathchain.Tag{pathchain.Text("read", "[read_name]")}, false, "bg"},
		{"separator default", []pathchain.Tag{pathchain.Text("a", ""), {Name: "s", Kind: pathchain.KindSeparator}, pathchain.Text("b", "")}, false, "a/b"},
		{"dash separator", []pathchain.Tag{pathchain.Text("a", ""), pathchain.Separator("-"), pathchain.Text("b", "")}, false, "a-_b"},
		{"dynamic bracketed default", []pathchain.Tag{{Name: "root", Kind: pathchain.KindDynamic, Default: "[render]"}}, false, "/mnt/out"},
		{"dynamic default", []pathchain.Tag{{Name: "root", Kind: pathchain.KindDynamic, Default: "fallback"}}, false, "fallback"},
		{"dynamic name", []pathchain.Tag{pathchain.Dynamic("mystery")}, false, "mystery"},
		{"video", []pathchain.Tag{pathchain.Text("a", ""), pathchain.FormatTag("mov", "")}, false, "a.mov"},
		{"live frame", []pathchain.Tag{pathchain.Text("a", ""), pathchain.FormatTag("exr", "%04d")}, true, "a.0012.exr"},
		{"live hash padding", []pathchain.Tag{pathchain.Text("a", ""), pathchain.FormatTag("dpx", "######")}, true, "a.000012.dpx"},
		{"non-live keeps padding", []pathchain.Tag{pathchain.Text("a", ""), pathchain.FormatTag("exr", "####")}, false, "a.####.exr"},
		{"empty version", []pathchain.Tag{pathchain.Text("a", ""), {Name: "v", Kind: pathchain.KindVersion}}, false, "a_v01"},
		{"expression verbatim", []pathchain.Tag{pathchain.Expression("f", "[value root.frame]")}, false, "[value root.frame]"},
		{"expression live", []pathchain.Tag{pathchain.Expression("f", "[file dirname [value root.name]]/[file rootname [value root.name]]")}, true, "/jobs/scripts/SH010_comp_v03"},
		{"expression unset key", []pathchain.Tag{pathchain.Expression("f", "[value root.last_frame]")}, true, "[value root.last_frame]"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := pathchain.Build(tc.tags, ctx, tc.live)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestBuildUnknownKind(t *testing.T) {
	t.Parallel()
	tags := []pathchain.Tag{pathchain.Text("a", ""), {Name: "odd", Kind: pathchain.Kind(42)}}
	_, err := pathchain.Build(tags, nil, false)
	require.Error(t, err)
	require.True(t, errors.Is(err, pathchain.ErrUnknownKind))
	require.Contains(t, err.Error(), "tag 1")
}

func TestBuildNeverDoublesSeparators(t *testing.T) {
	t.Parallel()
	empty := pathchain.Text("", "")
	tags := []pathchain.Tag{
		pathchain.Text("root", "/jobs/"),
		pathchain.Separator("/"),
		empty,
		pathchain.Separator("/"),
		pathchain.Text("u", "_"),
		empty,
		pathchain.Text("u", "_"),
		pathchain.Text("shot", "SH010"),
		pathchain.Separator("_"),
		pathchain.Separator("_"),
		pathchain.VersionTag(""),
		pathchain.FormatTag("", ""),
	}
	got, err := pathchain.Build(tags, nil, false)
	require.NoError(t, err)
	require.NotContains(t, got, "__")
	require.NotContains(t, got, "//")
	require.Equal(t, "/jobs/SH010_v01.%04d.exr", got)
}

func TestClean(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"a__b", "a_b"},
		{"a//b", "a/b"},
		{`a\\\b`, `a\b`},
		{"a_/b", "a/b"},
		{"a/_b", "a/b"},
		{`a_\_b`, `a\b`},
		{"a_.exr", "a.exr"},
		{"a___.exr", "a.exr"},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, pathchain.Clean(tc.in), "input: %q", tc.in)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	ok, issues := pathchain.Validate("/jobs/SH010_v01.%04d.exr")
	require.True(t, ok)
	require.Empty(t, issues)

	ok, issues = pathchain.Validate("")
	require.False(t, ok)
	if diff := cmp.Diff([]string{pathchain.IssueEmpty, pathchain.IssueExtension, pathchain.IssueNoVersion}, issues); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}

	ok, issues = pathchain.Validate("/jobs/SH*?_v01.txt")
	require.False(t, ok)
	require.Equal(t, []string{pathchain.IssueInvalidChars, pathchain.IssueExtension}, issues)

	long := "/" + strings.Repeat("é", 260) + "_v01.EXR"
	ok, issues = pathchain.Validate(long)
	require.False(t, ok)
	require.Equal(t, []string{pathchain.IssueTooLong}, issues)
}

func TestValidateIsIdempotent(t *testing.T) {
	t.Parallel()
	for _, p := range []string{"", "a.exr", "/x/y_v02.mov", "<bad>|path"} {
		ok1, issues1 := pathchain.Validate(p)
		ok2, issues2 := pathchain.Validate(p)
		require.Equal(t, ok1, ok2)
		require.Equal(t, issues1, issues2)
	}
}
