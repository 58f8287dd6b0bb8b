package superdoc

import (
	"bytes"
	"sync"
)

// outputBuffer collects the runtime's combined stdout and stderr. The
// process writes from its own goroutines while the supervisor may read
// during startup failure handling, so access is mutex-guarded.
type outputBuffer struct {
	m   sync.Mutex
	buf bytes.Buffer
}

func (b *outputBuffer) Write(p []byte) (int, error) {
	b.m.Lock()
	defer b.m.Unlock()
	return b.buf.Write(p)
}

func (b *outputBuffer) String() string {
	b.m.Lock()
	defer b.m.Unlock()
	return b.buf.String()
}
