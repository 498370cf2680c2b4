package tree

import (
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces identities for new Items.
type IDGenerator interface {
	Generate() uuid.UUID
}

// UUIDv7Generator generates time-sortable UUIDv7 identities.
//
// Panics if UUID generation fails (should never happen in practice).
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7.
func (UUIDv7Generator) Generate() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// FixedGenerator returns predetermined identities, for deterministic tests
// and golden files.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []uuid.UUID
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...uuid.UUID) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// SequentialGenerator returns a FixedGenerator with n ids of the form
// 00000000-0000-7000-8000-00000000000N, starting at 1.
func SequentialGenerator(n int) *FixedGenerator {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = SequentialID(i + 1)
	}
	return NewFixedGenerator(ids...)
}

// SequentialID returns the n-th id of SequentialGenerator.
func SequentialID(n int) uuid.UUID {
	var id uuid.UUID
	id[6] = 0x70
	id[8] = 0x80
	for i := 15; i >= 10 && n > 0; i-- {
		id[i] = byte(n)
		n >>= 8
	}
	return id
}

// Generate returns the next predetermined id.
//
// Panics when all ids have been consumed so a test that creates more items
// than expected fails loudly.
func (g *FixedGenerator) Generate() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("tree: FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
