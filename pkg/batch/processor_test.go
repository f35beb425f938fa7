package batch_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jlrickert/renderpath/pkg/batch"
	"github.com/jlrickert/renderpath/pkg/log"
	"github.com/jlrickert/renderpath/pkg/pathchain"
	"github.com/jlrickert/renderpath/pkg/store"
	"github.com/jlrickert/renderpath/pkg/version"
	"github.com/stretchr/testify/require"
)

func TestCreateWriteDefaultTemplate(t *testing.T) {
	t.Parallel()
	f := NewFixture(t, pathchain.Context{pathchain.KeyProjectPath: "/jobs/show"})
	f.FS.AddFile("/jobs/show/render_bg_v01.1001.exr")
	f.FS.AddFile("/jobs/show/render_bg_v02.1001.exr")

	res := f.Processor.Process(f.Ctx, batch.Operation{
		Type:          batch.CreateWrite,
		Sources:       []batch.Source{{Name: "bg"}, {Name: "bg"}, {Name: "fg"}},
		AutoIncrement: true,
	}, nil)

	want := []string{
		"/jobs/show/render_bg_v03.%04d.exr",
		"/jobs/show/render_bg_v04.%04d.exr",
		"/jobs/show/render_fg_v01.%04d.exr",
	}
	if diff := cmp.Diff(want, outputs(res)); diff != "" {
		t.Fatalf("outputs mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 3, res.SuccessCount())
	require.Len(t, res.Warnings(), 1)
	require.Contains(t, res.Warnings()[0], "already used in this run")

	_, err := uuid.Parse(res.ID)
	require.NoError(t, err)
	require.False(t, res.End.Before(res.Start))
}

func TestCreateWriteUsesSceneAndFormat(t *testing.T) {
	t.Parallel()
	f := NewFixture(t, pathchain.Context{
		pathchain.KeyProjectPath: "/jobs/show/",
		pathchain.KeyScene:       "SH010_comp",
	})

	res := f.Processor.Process(f.Ctx, batch.Operation{
		Type:    batch.CreateWrite,
		Sources: []batch.Source{{Path: "/plates/bg_plate_v002.1001.exr"}},
		Format:  "dpx",
	}, nil)
	require.Equal(t, []string{"/jobs/show/SH010_comp_bg_plate_v01.%04d.dpx"}, outputs(res))
	require.Equal(t, "bg_plate", res.Results[0].SourceName)
}

func TestCreateWriteFromPreset(t *testing.T) {
	t.Parallel()
	f := NewFixture(t, pathchain.Context{pathchain.KeyProjectPath: "proj"})

	res := f.Processor.Process(f.Ctx, batch.Operation{
		Type:       batch.CreateWrite,
		PresetName: "Default",
		Sources:    []batch.Source{{Path: "/plates/SH020.1001.exr"}},
	}, nil)
	require.Equal(t, []string{"proj/SH020_v01.%04d.exr"}, outputs(res))

	res = f.Processor.Process(f.Ctx, batch.Operation{
		Type:       batch.CreateWrite,
		PresetName: "Nope",
		Sources:    []batch.Source{{Name: "a"}, {Name: "b"}},
	}, nil)
	require.Equal(t, 2, res.FailedCount())
	require.Contains(t, res.Errors()[0], "generate base path")
	log.RequireEntry(t, f.Logger, func(e log.LoggedEntry) bool {
		return e.Msg == "batch item failed" && e.Attrs["source"] == "a"
	}, 0)
}

func TestCreateWritePresetWithUnknownTags(t *testing.T) {
	t.Parallel()
	f := NewFixture(t, pathchain.Context{pathchain.KeyProjectPath: "proj"})
	require.NoError(t, f.Store.Presets.Save(f.Ctx, store.Preset{
		Name: "Gappy",
		Tags: []string{"shot name", "ghost", "version", "phantom"},
	}))

	res := f.Processor.Process(f.Ctx, batch.Operation{
		Type:       batch.CreateWrite,
		PresetName: "Gappy",
		Sources:    []batch.Source{{Path: "/plates/SH020.1001.exr"}, {Path: "/plates/SH030.1001.exr"}},
	}, nil)

	require.Equal(t, 2, res.SuccessCount())
	for _, r := range res.Results {
		require.Equal(t, []string{`preset "Gappy" references unknown tags: ghost, phantom`}, r.Warnings)
	}
	require.Len(t, res.Warnings(), 2)
}

func TestCreateWriteWithoutBasePath(t *testing.T) {
	t.Parallel()
	f := NewFixture(t, nil)

	res := f.Processor.Process(f.Ctx, batch.Operation{
		Type:    batch.CreateWrite,
		Sources: []batch.Source{{Name: "bg"}},
	}, nil)
	require.Equal(t, 1, res.FailedCount())
	require.Contains(t, res.Errors()[0], batch.ErrNoBasePath.Error())
	require.Zero(t, res.SuccessRate())
}

func TestCreateWriteDirectories(t *testing.T) {
	t.Parallel()
	f := NewFixture(t, nil)

	res := f.Processor.Process(f.Ctx, batch.Operation{
		Type:              batch.CreateWrite,
		CustomPath:        "/out/[read_name]/[read_name]_v01.exr",
		Sources:           []batch.Source{{Name: "bg"}},
		CreateDirectories: true,
	}, nil)
	require.Equal(t, []string{"/out/bg/bg_v01.exr"}, outputs(res))
	ok, err := f.FS.Exists(f.Ctx, "/out/bg")
	require.NoError(t, err)
	require.True(t, ok)

	res = f.Processor.Process(f.Ctx, batch.Operation{
		Type:              batch.CreateWrite,
		CustomPath:        "/dry/[read_name]/x_v01.exr",
		Sources:           []batch.Source{{Name: "bg"}},
		CreateDirectories: true,
		DryRun:            true,
	}, nil)
	require.Equal(t, 1, res.SuccessCount())
	ok, err = f.FS.Exists(f.Ctx, "/dry/bg")
	require.NoError(t, err)
	require.False(t, ok)

	broken := version.NewMemoryFS()
	broken.Fail = errors.New("read-only volume")
	p := batch.NewProcessor(f.Store, version.NewResolver(f.FS), nil, batch.WithDirMaker(broken))
	res = p.Process(f.Ctx, batch.Operation{
		Type:              batch.CreateWrite,
		CustomPath:        "/out/[read_name]_v01.exr",
		Sources:           []batch.Source{{Name: "bg"}},
		CreateDirectories: true,
	}, nil)
	require.Equal(t, 1, res.FailedCount())
	require.Contains(t, res.Errors()[0], "create directory")
}

func TestCreateWriteDegradedLookup(t *testing.T) {
	t.Parallel()
	f := NewFixture(t, nil)
	fs := version.NewMemoryFS()
	fs.Fail = errors.New("mount offline")
	p := batch.NewProcessor(f.Store, version.NewResolver(fs), nil)

	res := p.Process(f.Ctx, batch.Operation{
		Type:          batch.CreateWrite,
		CustomPath:    "/mnt/[read_name]_v01.exr",
		Sources:       []batch.Source{{Name: "bg"}},
		AutoIncrement: true,
	}, nil)
	require.Equal(t, []string{"/mnt/bg_v01.exr"}, outputs(res))
	require.Equal(t, 1, res.SuccessCount())
	require.Len(t, res.Warnings(), 1)
	require.Contains(t, res.Warnings()[0], "version lookup degraded")
}

func TestUpdateVersions(t *testing.T) {
	t.Parallel()
	f := NewFixture(t, nil)
	f.FS.AddFile("/r/shot_v01.exr")
	f.FS.AddFile("/r/shot_v02.exr")

	res := f.Processor.Process(f.Ctx, batch.Operation{
		Type: batch.UpdateVersions,
		Sources: []batch.Source{
			{Path: "/r/shot_v01.exr"},
			{Path: "/r/shot_v02.exr"},
			{Path: "/missing/a_v01.exr"},
			{Name: "empty"},
		},
	}, nil)

	want := []string{"/r/shot_v03.exr", "/r/shot_v04.exr", "/missing/a_v01.exr", ""}
	if diff := cmp.Diff(want, outputs(res)); diff != "" {
		t.Fatalf("outputs mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 3, res.SuccessCount())
	require.Equal(t, 1, res.FailedCount())
	require.Equal(t, []string{"empty: no file path found"}, res.Errors())
	require.Len(t, res.Warnings(), 2)
	require.Contains(t, res.Results[2].Warnings, "no version update needed")
	require.InDelta(t, 75.0, res.SuccessRate(), 0.001)
}

func TestProcessProgressAndStats(t *testing.T) {
	t.Parallel()
	f := NewFixture(t, pathchain.Context{pathchain.KeyProjectPath: "/p"})

	type call struct {
		Current, Total int
	}
	var calls []call
	progress := func(current, total int, _ string) {
		calls = append(calls, call{current, total})
	}
	op := batch.Operation{Type: batch.CreateWrite, Sources: []batch.Source{{Name: "a"}, {Name: "b"}}}
	f.Processor.Process(f.Ctx, op, progress)
	require.Equal(t, []call{{0, 2}, {1, 2}, {1, 2}, {2, 2}}, calls)

	f.Processor.Process(f.Ctx, batch.Operation{Type: "render_writes", Sources: []batch.Source{{Name: "c"}}}, nil)

	stats := f.Processor.Stats()
	require.Equal(t, 2, stats.Operations)
	require.Equal(t, 2, stats.Succeeded)
	require.Equal(t, 1, stats.Failed)
	require.InDelta(t, 66.666, stats.SuccessRate(), 0.01)

	f.Processor.ResetStats()
	require.Equal(t, batch.Stats{}, f.Processor.Stats())
}

func TestProcessCanceled(t *testing.T) {
	t.Parallel()
	f := NewFixture(t, pathchain.Context{pathchain.KeyProjectPath: "/p"})
	ctx, cancel := context.WithCancel(f.Ctx)
	cancel()

	res := f.Processor.Process(ctx, batch.Operation{
		Type:    batch.CreateWrite,
		Sources: []batch.Source{{Name: "a"}},
	}, nil)
	require.Equal(t, 1, res.FailedCount())
	require.Contains(t, res.Errors()[0], context.Canceled.Error())
}

func TestParseOperationType(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want batch.OperationType
		ok   bool
	}{
		{"create", batch.CreateWrite, true},
		{"create_write", batch.CreateWrite, true},
		{" Update ", batch.UpdateVersions, true},
		{"render_writes", "", false},
	}
	for _, tc := range cases {
		got, err := batch.ParseOperationType(tc.in)
		if !tc.ok {
			require.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got)
	}
}
