package log_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/jlrickert/renderpath/pkg/log"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	require.Equal(t, slog.LevelDebug, log.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, log.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, log.ParseLevel(" error "))
	require.Equal(t, slog.LevelInfo, log.ParseLevel("bogus"))
}

func TestNewLoggerJSONRespectsLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	lg := log.NewLogger(log.LoggerConfig{Out: &buf, Level: slog.LevelWarn, JSON: true, Version: "test"})

	lg.Info("hidden")
	lg.Warn("shown", "path", "/tmp/a_v01.exr")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, `"msg":"shown"`)
	require.Contains(t, out, `"version":"test"`)
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()
	lg, th := log.NewTestLogger(t)
	ctx := log.ContextWithLogger(context.Background(), lg)

	log.FromContext(ctx).With("op", "next").Warn("degraded", "dir", "/missing")

	require.True(t, log.HasLogger(ctx))
	require.False(t, log.HasLogger(context.Background()))

	entries := log.FindEntries(th, func(e log.LoggedEntry) bool { return e.Msg == "degraded" })
	require.Len(t, entries, 1)
	require.Equal(t, "next", entries[0].Attrs["op"])
	require.Equal(t, "/missing", entries[0].Attrs["dir"])
}

func TestGetLoggerPrefersInjected(t *testing.T) {
	t.Parallel()
	injected := log.NewNopLogger()
	require.Same(t, injected, log.GetLogger(context.Background(), injected))
	require.NotNil(t, log.GetLogger(context.Background(), nil))
}
