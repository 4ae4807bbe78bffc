package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates deterministic 24-character hex ids for tests.
//
// The first call to Generate returns "000000000000000000000001". Unlike
// model.FixedGenerator it never runs out, and it can be reset for test reuse.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu  sync.Mutex
	seq int64
}

// NewSequentialIDs creates a generator starting at 0.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// Generate increments the counter and returns it as a zero-padded hex id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%024x", g.seq)
}

// Count returns how many ids have been generated since the last reset.
func (g *SequentialIDs) Count() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence. The next Generate returns id 1 again.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
