package internal_test

import (
	"os"
	"strings"
	"testing"

	"github.com/jlrickert/renderpath/pkg/internal"
	"github.com/stretchr/testify/require"
)

func TestIsPipe(t *testing.T) {
	t.Parallel()
	require.True(t, internal.IsPipe(strings.NewReader("a\n")))
	require.False(t, internal.IsPipe(nil))

	f, err := os.CreateTemp(t.TempDir(), "in")
	require.NoError(t, err)
	defer f.Close()
	require.True(t, internal.IsPipe(f))
	require.False(t, internal.IsTerminal(f))
	require.False(t, internal.IsTerminal(&strings.Builder{}))
}
