package model

import (
	"encoding/hex"
	"sync"

	"github.com/google/uuid"
)

// IDLength is the length of an external id in characters.
const IDLength = 24

// IDGenerator generates external ids for new entities.
// Implemented by ObjectIDGenerator (production) and FixedGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// ObjectIDGenerator generates 24-character hex ids that sort by creation
// time.
//
// The id is the 48-bit millisecond timestamp of a UUIDv7 followed by its
// last 48 random bits.
//
// Thread-safety: ObjectIDGenerator is stateless and safe for concurrent use.
type ObjectIDGenerator struct{}

// Generate creates a new id.
//
// Panics if UUID generation fails (should never happen in practice).
func (ObjectIDGenerator) Generate() string {
	u := uuid.Must(uuid.NewV7())
	var b [12]byte
	copy(b[:6], u[:6])
	copy(b[6:], u[10:])
	return hex.EncodeToString(b[:])
}

// FixedGenerator returns predetermined ids for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics if all ids have been consumed, to catch a test creating more
// entities than it declared.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
