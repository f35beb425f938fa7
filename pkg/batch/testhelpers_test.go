package batch_test

import (
	"context"
	"testing"

	"github.com/jlrickert/renderpath/pkg/batch"
	"github.com/jlrickert/renderpath/pkg/log"
	"github.com/jlrickert/renderpath/pkg/pathchain"
	"github.com/jlrickert/renderpath/pkg/store"
	"github.com/jlrickert/renderpath/pkg/version"
	"github.com/stretchr/testify/require"
)

// Fixture wires a processor over an in-memory filesystem and a temp store.
type Fixture struct {
	Ctx       context.Context
	FS        *version.MemoryFS
	Store     *store.Store
	Processor *batch.Processor
	Logger    *log.TestHandler
}

func NewFixture(t *testing.T, base pathchain.Context) *Fixture {
	t.Helper()
	lg, th := log.NewTestLogger(t)
	ctx := log.ContextWithLogger(context.Background(), lg)
	s, err := store.Open(ctx, t.TempDir())
	require.NoError(t, err)
	fs := version.NewMemoryFS()
	return &Fixture{
		Ctx:       ctx,
		FS:        fs,
		Store:     s,
		Processor: batch.NewProcessor(s, version.NewResolver(fs), base),
		Logger:    th,
	}
}

func outputs(r *batch.OperationResult) []string {
	out := make([]string, len(r.Results))
	for i, res := range r.Results {
		out[i] = res.OutputPath
	}
	return out
}
