package tree

import (
	"github.com/google/uuid"
)

// Kind discriminates the closed set of node kinds.
type Kind int

const (
	KindRecording Kind = iota
	KindFolder
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindRecording:
		return "recording"
	case KindFolder:
		return "folder"
	default:
		return "unknown"
	}
}

// Item is a node of the tree: a *Folder or a *Recording.
//
// The interface is sealed; switch on the concrete type or on Kind.
type Item interface {
	ID() uuid.UUID
	Name() string
	Kind() Kind

	// Container returns the owning Folder, nil when detached or root.
	Container() *Folder
	// Store returns the owning Store, nil when detached.
	Store() *Store

	// SetName renames the item. When attached it re-sorts the container and
	// records a renamed Change, which is returned with true.
	SetName(name string) (Change, bool)
	// Remove detaches the item from its container. No-op when detached.
	Remove() (Change, bool)

	// IdentityPath returns the ids from the tree root down to this item.
	IdentityPath() []uuid.UUID
	// Resolve follows path below this item; an empty path returns the item.
	Resolve(path []uuid.UUID) Item

	// LatestChange returns the most recent Change recorded for this item by
	// its current Store.
	LatestChange() (Change, bool)
	// NextChange returns the first Change recorded for this item after seq.
	NextChange(after int64) (Change, bool)

	base() *node
}

// node holds the state shared by both kinds.
type node struct {
	id        uuid.UUID
	name      string
	container *Folder
	store     *Store
	self      Item
}

func (n *node) base() *node { return n }

// ID returns the item's immutable identity.
func (n *node) ID() uuid.UUID { return n.id }

// Name returns the display name.
func (n *node) Name() string { return n.name }

// Container returns the owning Folder.
func (n *node) Container() *Folder { return n.container }

// Store returns the owning Store.
func (n *node) Store() *Store { return n.store }

// SetName implements Item.
func (n *node) SetName(name string) (Change, bool) {
	n.name = name
	parent := n.container
	if parent == nil {
		return Change{}, false
	}
	oldIndex, newIndex := parent.reSort(n.self)
	if n.store == nil {
		return Change{}, false
	}
	return n.store.save(n.self, Change{
		Reason:    Renamed,
		Container: parent.id,
		OldIndex:  oldIndex,
		NewIndex:  newIndex,
	}), true
}

// Remove implements Item.
func (n *node) Remove() (Change, bool) {
	if n.container == nil {
		return Change{}, false
	}
	return n.container.RemoveChild(n.self)
}

// deleted is called by the container after it dropped the item.
func (n *node) deleted() {
	n.setContainer(nil)
}

// setContainer re-parents the item and re-derives the store of its subtree.
func (n *node) setContainer(f *Folder) {
	n.container = f
	var s *Store
	if f != nil {
		s = f.store
	}
	rebind(n.self, s)
}

// IdentityPath implements Item.
func (n *node) IdentityPath() []uuid.UUID {
	if n.container == nil {
		return []uuid.UUID{n.id}
	}
	return append(n.container.IdentityPath(), n.id)
}

// LatestChange implements Item.
func (n *node) LatestChange() (Change, bool) {
	if n.store == nil {
		return Change{}, false
	}
	return n.store.LatestChange(n.id)
}

// NextChange implements Item.
func (n *node) NextChange(after int64) (Change, bool) {
	if n.store == nil {
		return Change{}, false
	}
	return n.store.NextChange(n.id, after)
}

// rebind sets the store of it and its subtree to s, keeping the indexes
// of the old and new store current.
func rebind(it Item, s *Store) {
	n := it.base()
	if n.store == s {
		return
	}
	if n.store != nil {
		n.store.unindex(n.id)
	}
	n.store = s
	if s != nil {
		s.index(it)
	}
	if f, ok := it.(*Folder); ok {
		if s != nil {
			f.sortChildren()
		}
		for _, child := range f.children {
			rebind(child, s)
		}
	}
}
