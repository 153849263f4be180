package executor

import (
	"io"
	"sync"
)

// lockedWriter serializes writes from concurrent workers
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// SyncWriter wraps w so concurrent Write calls do not interleave
func SyncWriter(w io.Writer) io.Writer {
	if _, ok := w.(*lockedWriter); ok {
		return w
	}
	return &lockedWriter{w: w}
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
