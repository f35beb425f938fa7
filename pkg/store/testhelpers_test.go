package store_test

import (
	"context"
	"testing"

	"github.com/jlrickert/renderpath/pkg/log"
	"github.com/jlrickert/renderpath/pkg/store"
	"github.com/stretchr/testify/require"
)

// Fixture bundles a temp-dir store with a capturing logger.
type Fixture struct {
	Ctx    context.Context
	Dir    string
	Store  *store.Store
	Logger *log.TestHandler
}

func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	lg, th := log.NewTestLogger(t)
	ctx := log.ContextWithLogger(context.Background(), lg)
	dir := t.TempDir()
	s, err := store.Open(ctx, dir)
	require.NoError(t, err)
	return &Fixture{Ctx: ctx, Dir: dir, Store: s, Logger: th}
}
