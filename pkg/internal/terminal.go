package internal

import (
	"io"
	"os"
)

// IsPipe reports whether r is redirected input rather than a terminal.
// Readers that are not files (buffers in tests) count as piped.
func IsPipe(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice == 0
}

// IsTerminal reports whether w is a terminal. Writers that are not files are
// never terminals.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
