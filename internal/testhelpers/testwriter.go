package testhelpers

import (
	"io"
	"strings"
	"sync/atomic"
	"testing"
)

// Writer implements io.Writer and writes to t.Log so that logs are only shown for failed tests.
type Writer struct {
	tb   testing.TB
	done atomic.Bool
}

// NewWriter creates a new Writer that writes to tb.Log until the test finishes.
func NewWriter(tb testing.TB) io.Writer {
	w := &Writer{tb: tb} //nolint:exhaustruct // done starts false.
	tb.Cleanup(func() {
		w.done.Store(true)
	})
	return w
}

// Write implements io.Writer by writing to t.Log.
func (w *Writer) Write(p []byte) (int, error) {
	if w.done.Load() {
		// Writing after completion means a goroutine outlived the test, usually a server that wasn't shut down.
		panic("testwriter: attempted to write after test completion. Did you remember to t.Cleanup(server.Shutdown)?")
	}
	// Remove trailing newlines to avoid double-spacing in test output.
	if output := strings.TrimSuffix(string(p), "\n"); output != "" {
		w.tb.Log(output)
	}
	return len(p), nil
}
