package tree

import (
	"testing"

	"github.com/google/uuid"
)

// recorder collects every notification a Store sends.
type recorder struct {
	items   []Item
	changes []Change
}

func (r *recorder) Notify(it Item, c Change) {
	r.items = append(r.items, it)
	r.changes = append(r.changes, c)
}

// newTestStore creates a store with sequential ids; the root takes id 1.
func newTestStore(t *testing.T, opts ...Option) (*Store, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]Option{
		WithIDGenerator(SequentialGenerator(64)),
		WithNotifier(rec),
	}, opts...)
	return New(opts...), rec
}

func id(n int) uuid.UUID { return SequentialID(n) }
