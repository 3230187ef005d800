package migrate

import (
	"fmt"
	"sync"
)

// Trace records the planned mutations of a dry run, one entry per write the
// real path would perform, in the same order.
type Trace struct {
	mu      sync.Mutex
	entries []string
}

func (t *Trace) Add(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, fmt.Sprintf(format, args...))
}

func (t *Trace) Entries() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Trace) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
