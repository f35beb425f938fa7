package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jlrickert/renderpath/pkg/log"
	"github.com/jlrickert/renderpath/pkg/watch"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func start(t *testing.T, paths ...string) (chan watch.Event, context.CancelFunc, chan error) {
	t.Helper()
	lg, _ := log.NewTestLogger(t)
	ctx, cancel := context.WithCancel(log.ContextWithLogger(context.Background(), lg))

	w, err := watch.New(paths...)
	require.NoError(t, err)

	events := make(chan watch.Event, 8)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, 50*time.Millisecond, func(e watch.Event) { events <- e })
	}()
	return events, cancel, done
}

func next(t *testing.T, events chan watch.Event) watch.Event {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change event")
		return watch.Event{}
	}
}

func stop(t *testing.T, cancel context.CancelFunc, done chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchDebouncesBurst(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	events, cancel, done := start(t, dir)

	for _, name := range []string{"a.json", "b.json", "c.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.tmp"), []byte("x"), 0o644))

	e := next(t, events)
	require.Equal(t, []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.json"),
		filepath.Join(dir, "c.json"),
	}, e.Paths)
	require.False(t, e.Time.IsZero())

	stop(t, cancel, done)
}

func TestWatchSingleFile(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "presets.json")
	require.NoError(t, os.WriteFile(target, []byte("{}"), 0o644))
	events, cancel, done := start(t, target)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(target, []byte(`{"presets":{}}`), 0o644))

	e := next(t, events)
	require.Equal(t, []string{target}, e.Paths)

	stop(t, cancel, done)
}

func TestWatchMissingPath(t *testing.T) {
	defer goleak.VerifyNone(t)
	_, err := watch.New(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	_, err = watch.New()
	require.Error(t, err)
}
