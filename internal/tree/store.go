package tree

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
)

// Store owns the root Folder, the identity index and the change log.
type Store struct {
	root      *Folder
	byID      map[uuid.UUID]Item
	log       []Change
	positions map[uuid.UUID][]int // subject -> indexes into log, ascending

	clock     *Clock
	notifier  Notifier
	collation *Collation
	ids       IDGenerator
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets the collaborator told about every Change.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithClock sets the clock stamping Changes, e.g. one resumed from a
// persisted log with NewClockAt.
func WithClock(c *Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithCollation sets the ordering of folder children.
func WithCollation(c *Collation) Option {
	return func(s *Store) { s.collation = c }
}

// WithIDGenerator sets the generator used by NewFolder and NewRecording
// and for the default root.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// WithLogger sets the logger. Pass nil for slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithRoot makes root the Store's root instead of a new empty folder.
// root must be detached.
func WithRoot(root *Folder) Option {
	return func(s *Store) { s.root = root }
}

// New creates a Store. Attaching the root records no Change.
func New(opts ...Option) *Store {
	s := &Store{
		byID:      make(map[uuid.UUID]Item),
		positions: make(map[uuid.UUID][]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = NewClock()
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.collation == nil {
		s.collation = defaultCollation
	}
	if s.ids == nil {
		s.ids = UUIDv7Generator{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "tree")
	if s.root == nil {
		s.root = NewFolder("", s.ids.Generate())
	}
	s.attachRoot(s.root)
	return s
}

func (s *Store) attachRoot(root *Folder) {
	if root.container != nil || root.store != nil {
		panic(fmt.Sprintf("tree: root %s is already attached", root.id))
	}
	rebind(root, s)
}

// Root returns the root Folder.
func (s *Store) Root() *Folder { return s.root }

// Clock returns the Store's clock.
func (s *Store) Clock() *Clock { return s.clock }

// Collation returns the ordering used by attached folders.
func (s *Store) Collation() *Collation { return s.collation }

// NewFolder creates a detached folder with a generated identity.
func (s *Store) NewFolder(name string) *Folder {
	return NewFolder(name, s.ids.Generate())
}

// NewRecording creates a detached recording with a generated identity.
func (s *Store) NewRecording(name string) *Recording {
	return NewRecording(name, s.ids.Generate())
}

// Lookup returns the attached item with the given identity.
func (s *Store) Lookup(id uuid.UUID) (Item, bool) {
	it, ok := s.byID[id]
	return it, ok
}

// Len returns the number of attached items, the root included.
func (s *Store) Len() int { return len(s.byID) }

// Resolve follows a full identity path, starting with the root's id.
func (s *Store) Resolve(path []uuid.UUID) Item {
	if len(path) == 0 || path[0] != s.root.id {
		return nil
	}
	return s.root.Resolve(path[1:])
}

// Reload replaces the whole tree with root, as the sync layer does after
// fetching a fresh copy. The old tree is detached and a single reloaded
// Change is recorded for the new root.
func (s *Store) Reload(root *Folder) Change {
	old := s.root
	if root == old {
		panic(fmt.Sprintf("tree: root %s is already the store root", root.id))
	}
	if root.container != nil || root.store != nil {
		panic(fmt.Sprintf("tree: root %s is already attached", root.id))
	}
	rebind(old, nil)
	s.root = root
	rebind(root, s)
	return s.save(root, Change{
		Reason:   Reloaded,
		OldIndex: NoIndex,
		NewIndex: NoIndex,
	})
}

// save stamps c, appends it to the log and notifies exactly once.
func (s *Store) save(it Item, c Change) Change {
	c.Seq = s.clock.Next()
	c.Subject = it.ID()
	if c.Path == nil {
		c.Path = it.IdentityPath()
	}
	s.log = append(s.log, c)
	s.positions[c.Subject] = append(s.positions[c.Subject], len(s.log)-1)

	s.logger.Debug("change recorded",
		"seq", c.Seq,
		"reason", c.Reason,
		"subject", c.Subject,
		"container", c.Container)

	s.notifier.Notify(it, c.clone())
	return c.clone()
}

// LatestChange returns the most recent Change whose subject is id.
// History survives detaching, so removed items can still be queried.
func (s *Store) LatestChange(id uuid.UUID) (Change, bool) {
	pos := s.positions[id]
	if len(pos) == 0 {
		return Change{}, false
	}
	return s.log[pos[len(pos)-1]].clone(), true
}

// FirstChange returns the oldest Change whose subject is id.
func (s *Store) FirstChange(id uuid.UUID) (Change, bool) {
	pos := s.positions[id]
	if len(pos) == 0 {
		return Change{}, false
	}
	return s.log[pos[0]].clone(), true
}

// NextChange returns the first Change for id with a sequence number
// greater than after. A sync walker starts from after = 0 (or a persisted
// cursor) and advances with the returned Change's Seq.
func (s *Store) NextChange(id uuid.UUID, after int64) (Change, bool) {
	pos := s.positions[id]
	i := sort.Search(len(pos), func(i int) bool {
		return s.log[pos[i]].Seq > after
	})
	if i == len(pos) {
		return Change{}, false
	}
	return s.log[pos[i]].clone(), true
}

// Changes returns every Change for id in order.
func (s *Store) Changes(id uuid.UUID) []Change {
	pos := s.positions[id]
	out := make([]Change, len(pos))
	for i, p := range pos {
		out[i] = s.log[p].clone()
	}
	return out
}

// ChangesSince returns every Change with a sequence number greater than
// after, in order.
func (s *Store) ChangesSince(after int64) []Change {
	i := sort.Search(len(s.log), func(i int) bool {
		return s.log[i].Seq > after
	})
	out := make([]Change, 0, len(s.log)-i)
	for _, c := range s.log[i:] {
		out = append(out, c.clone())
	}
	return out
}

func (s *Store) index(it Item) {
	if existing, ok := s.byID[it.ID()]; ok && existing != it {
		panic(fmt.Sprintf("tree: duplicate identity %s in store", it.ID()))
	}
	s.byID[it.ID()] = it
}

func (s *Store) unindex(id uuid.UUID) {
	delete(s.byID, id)
}
