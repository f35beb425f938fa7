package store_test

import (
	"testing"

	"github.com/jlrickert/renderpath/pkg/store"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)

	tags, err := f.Store.Tags.Search(f.Ctx, "shot")
	require.NoError(t, err)
	require.NotEmpty(t, tags)
	require.Equal(t, "shot name", tags[0].Name)

	all, err := f.Store.Tags.Search(f.Ctx, " ")
	require.NoError(t, err)
	require.Len(t, all, len(store.DefaultTags()))

	none, err := f.Store.Tags.Search(f.Ctx, "zzqx")
	require.NoError(t, err)
	require.Empty(t, none)

	presets, err := f.Store.Presets.Search(f.Ctx, "dailies")
	require.NoError(t, err)
	require.NotEmpty(t, presets)
	require.Equal(t, "Dailies", presets[0].Name)
}
