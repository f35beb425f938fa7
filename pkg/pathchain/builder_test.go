package pathchain_test

import (
	"testing"

	"github.com/jlrickert/renderpath/pkg/pathchain"
	"github.com/stretchr/testify/require"
)

func names(tags []pathchain.Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.Name
	}
	return out
}

func TestBuilderEditing(t *testing.T) {
	t.Parallel()
	b := pathchain.NewBuilder(nil)

	require.Equal(t, 0, b.Add(pathchain.Text("a", "")))
	require.Equal(t, 1, b.Add(pathchain.Text("c", "")))
	b.Insert(1, pathchain.Text("b", ""))
	b.Insert(99, pathchain.Text("d", ""))
	b.Insert(-5, pathchain.Text("z", ""))
	require.Equal(t, []string{"z", "a", "b", "c", "d"}, names(b.Tags()))

	require.True(t, b.Move(0, 4))
	require.Equal(t, []string{"a", "b", "c", "d", "z"}, names(b.Tags()))
	require.False(t, b.Move(0, 5))

	require.True(t, b.Remove(4))
	require.False(t, b.Remove(4))
	require.Equal(t, 4, b.Len())

	tags := b.Tags()
	tags[0].Name = "mutated"
	require.Equal(t, "a", b.Tags()[0].Name)

	b.Clear()
	got, err := b.Build(false)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestBuilderContext(t *testing.T) {
	t.Parallel()
	seed := pathchain.Context{"project_path": "proj"}
	b := pathchain.NewBuilder(seed, roundTripChain()...)
	seed["project_path"] = "changed"

	b.UpdateContext(pathchain.Context{"shot_name": "SH010"})
	got, err := b.Build(false)
	require.NoError(t, err)
	require.Equal(t, "proj/SH010_v01.%04d.exr", got)

	b.SetContext(pathchain.Context{"frame": "7"})
	got, err = b.Build(true)
	require.NoError(t, err)
	require.Equal(t, "/project/path/shot_name_v01.0007.exr", got)
	require.Equal(t, pathchain.Context{"frame": "7"}, b.Context())
}

func TestBuilderInfo(t *testing.T) {
	t.Parallel()
	b := pathchain.NewBuilder(pathchain.Context{"project_path": "/jobs", "shot_name": "SH010"}, roundTripChain()...)

	info, err := b.Info()
	require.NoError(t, err)
	require.Equal(t, "/jobs/SH010_v01.%04d.exr", info.Path)
	require.True(t, info.Valid)
	require.Empty(t, info.Issues)
	require.Equal(t, 5, info.TagCount)
	require.Equal(t, "/jobs", info.Directory)
	require.Equal(t, "SH010_v01.%04d.exr", info.Filename)
	require.Equal(t, "v01", info.Version)

	b.Add(pathchain.Tag{Name: "odd", Kind: pathchain.Kind(99)})
	_, err = b.Info()
	require.ErrorIs(t, err, pathchain.ErrUnknownKind)
}
