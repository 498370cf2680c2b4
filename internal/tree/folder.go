package tree

import (
	"fmt"
	"slices"
	"sort"

	"github.com/google/uuid"
)

var (
	_ Item = (*Folder)(nil)
	_ Item = (*Recording)(nil)
)

// Folder is an ordered container of Items.
type Folder struct {
	node
	children []Item
}

// NewFolder creates a detached, empty folder.
func NewFolder(name string, id uuid.UUID) *Folder {
	f := &Folder{node: node{id: id, name: name}}
	f.self = f
	return f
}

// Kind returns KindFolder.
func (f *Folder) Kind() Kind { return KindFolder }

// Len returns the number of children.
func (f *Folder) Len() int { return len(f.children) }

// Children returns a copy of the children in order.
func (f *Folder) Children() []Item {
	return slices.Clone(f.children)
}

// Child returns the child at index i.
func (f *Folder) Child(i int) Item {
	return f.children[i]
}

// Index returns the position of the child with the given id, or -1.
func (f *Folder) Index(id uuid.UUID) int {
	return slices.IndexFunc(f.children, func(it Item) bool { return it.ID() == id })
}

// Names returns the children's names in order.
func (f *Folder) Names() []string {
	names := make([]string, len(f.children))
	for i, it := range f.children {
		names[i] = it.Name()
	}
	return names
}

// Walk calls fn for f and every item below it, parents before children.
// Returning false from fn skips the item's subtree.
func (f *Folder) Walk(fn func(Item) bool) {
	if !fn(f) {
		return
	}
	for _, child := range f.children {
		if sub, ok := child.(*Folder); ok {
			sub.Walk(fn)
		} else {
			fn(child)
		}
	}
}

// Resolve implements Item: path[0] names a child, the rest is resolved by
// that child.
func (f *Folder) Resolve(path []uuid.UUID) Item {
	if len(path) == 0 {
		return f
	}
	i := f.Index(path[0])
	if i < 0 {
		return nil
	}
	return f.children[i].Resolve(path[1:])
}

// Add re-parents it into f at its sorted position and records an added
// Change. An item attached elsewhere is removed from its old container
// first. Adding a current child is a no-op.
//
// Panics if it is f or an ancestor of f, if it is the root of a Store, or if
// its subtree carries an identity already present in f's Store.
func (f *Folder) Add(it Item) (Change, bool) {
	n := it.base()
	if n.container == f {
		return Change{}, false
	}
	f.checkAdd(it)

	if n.container != nil {
		n.container.RemoveChild(it)
	}
	i := f.insertionIndex(it)
	f.children = slices.Insert(f.children, i, it)
	n.setContainer(f)

	if f.store == nil {
		return Change{}, false
	}
	return f.store.save(it, Change{
		Reason:    Added,
		Container: f.id,
		OldIndex:  NoIndex,
		NewIndex:  i,
	}), true
}

func (f *Folder) checkAdd(it Item) {
	n := it.base()
	if n.container == nil && n.store != nil {
		panic(fmt.Sprintf("tree: cannot add root %s of a store", n.id))
	}
	if sub, ok := it.(*Folder); ok {
		for p := f; p != nil; p = p.container {
			if p == sub {
				panic(fmt.Sprintf("tree: cannot add folder %s beneath itself", sub.id))
			}
		}
	}
	if f.store == nil {
		if i := f.Index(n.id); i >= 0 {
			panic(fmt.Sprintf("tree: duplicate identity %s in folder %s", n.id, f.id))
		}
		return
	}
	walkItem(it, func(x Item) {
		if existing, ok := f.store.byID[x.ID()]; ok && existing != x {
			panic(fmt.Sprintf("tree: duplicate identity %s in store", x.ID()))
		}
	})
}

// RemoveChild detaches it from f and records a removed Change. No-op if it is
// not a child of f.
func (f *Folder) RemoveChild(it Item) (Change, bool) {
	i := f.Index(it.ID())
	if i < 0 {
		return Change{}, false
	}
	removed := f.children[i]
	path := removed.IdentityPath()
	s := f.store
	var rec map[string]any
	if s != nil {
		rec = Record(removed)
	}

	f.children = slices.Delete(f.children, i, i+1)
	removed.base().deleted()

	if s == nil {
		return Change{}, false
	}
	return s.save(removed, Change{
		Reason:    Removed,
		Path:      path,
		Container: f.id,
		OldIndex:  i,
		NewIndex:  NoIndex,
		Record:    rec,
	}), true
}

// reSort moves changed to its sorted position and returns its index before
// and after. Equal indices mean the order did not visibly change.
func (f *Folder) reSort(changed Item) (oldIndex, newIndex int) {
	oldIndex = f.Index(changed.ID())
	if oldIndex < 0 {
		panic(fmt.Sprintf("tree: %s is not a child of folder %s", changed.ID(), f.id))
	}
	f.children = slices.Delete(f.children, oldIndex, oldIndex+1)
	newIndex = f.insertionIndex(changed)
	f.children = slices.Insert(f.children, newIndex, changed)
	return oldIndex, newIndex
}

func (f *Folder) insertionIndex(it Item) int {
	c := f.collation()
	return sort.Search(len(f.children), func(i int) bool {
		return c.Less(it, f.children[i])
	})
}

func (f *Folder) sortChildren() {
	c := f.collation()
	slices.SortStableFunc(f.children, func(a, b Item) int {
		switch {
		case c.Less(a, b):
			return -1
		case c.Less(b, a):
			return 1
		}
		return 0
	})
}

func (f *Folder) collation() *Collation {
	if f.store != nil {
		return f.store.collation
	}
	return defaultCollation
}

// walkItem calls fn for it and its descendants.
func walkItem(it Item, fn func(Item)) {
	if f, ok := it.(*Folder); ok {
		f.Walk(func(x Item) bool {
			fn(x)
			return true
		})
		return
	}
	fn(it)
}
