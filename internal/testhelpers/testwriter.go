package testhelpers

import (
	"io"
	"strings"
	"sync"
	"testing"
)

// Writer forwards writes to t.Log so that logs only show up for failing tests.
type Writer struct {
	t    testing.TB
	mu   sync.Mutex
	done bool
}

// NewWriter creates a Writer bound to the lifetime of t.
func NewWriter(t testing.TB) io.Writer {
	w := &Writer{t: t}
	t.Cleanup(func() {
		w.mu.Lock()
		w.done = true
		w.mu.Unlock()
	})
	return w
}

func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		panic("testhelpers: write after test completion, is the server shut down in t.Cleanup?")
	}
	if output := strings.TrimSuffix(string(p), "\n"); output != "" {
		w.t.Log(output)
	}
	return len(p), nil
}
