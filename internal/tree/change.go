package tree

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Reason classifies a Change.
type Reason string

const (
	Added    Reason = "added"
	Removed  Reason = "removed"
	Renamed  Reason = "renamed"
	Reloaded Reason = "reloaded" // full-tree refresh, only emitted by Store.Reload
)

// Valid reports whether r is one of the known reasons.
func (r Reason) Valid() bool {
	switch r {
	case Added, Removed, Renamed, Reloaded:
		return true
	}
	return false
}

// NoIndex marks an index that does not apply to a Change's reason.
const NoIndex = -1

// Payload keys, part of the notification contract with the sync layer.
const (
	ReasonKey       = "reason"
	OldValueKey     = "oldValue"
	NewValueKey     = "newValue"
	ParentFolderKey = "parentFolder"
)

// Change records one mutation of the tree. Changes are values: once
// returned by a Store nothing in this package modifies them.
//
// Index semantics per reason:
//
//	renamed   OldIndex, NewIndex: position in Container before and after re-sort
//	added     NewIndex: insertion position in Container
//	removed   OldIndex: position the item held in Container; Record is the
//	          detached node as serialized at removal
//	reloaded  no indices; Subject is the new root
type Change struct {
	Seq       int64
	Reason    Reason
	Subject   uuid.UUID
	Path      []uuid.UUID // identity path of Subject when the change was made
	Container uuid.UUID   // affected folder; uuid.Nil for reloaded
	OldIndex  int
	NewIndex  int
	Record    map[string]any // set for removed only
}

// Payload returns the notification form of the change, keyed by the
// payload constants. For removed the old value is the record of the node
// taken when it was removed.
func (c Change) Payload() map[string]any {
	p := map[string]any{ReasonKey: string(c.Reason)}
	if c.Container != uuid.Nil {
		p[ParentFolderKey] = c.Container.String()
	}
	switch c.Reason {
	case Renamed:
		p[OldValueKey] = c.OldIndex
		p[NewValueKey] = c.NewIndex
	case Added:
		p[NewValueKey] = c.NewIndex
	case Removed:
		if c.Record != nil {
			p[OldValueKey] = cloneRecord(c.Record)
		} else {
			p[OldValueKey] = c.OldIndex
		}
	}
	return p
}

// String renders a short description for logs.
func (c Change) String() string {
	switch c.Reason {
	case Renamed:
		return fmt.Sprintf("#%d renamed %s %d->%d", c.Seq, c.Subject, c.OldIndex, c.NewIndex)
	case Added:
		return fmt.Sprintf("#%d added %s at %d", c.Seq, c.Subject, c.NewIndex)
	case Removed:
		return fmt.Sprintf("#%d removed %s from %d", c.Seq, c.Subject, c.OldIndex)
	default:
		return fmt.Sprintf("#%d %s %s", c.Seq, c.Reason, c.Subject)
	}
}

func (c Change) clone() Change {
	c.Path = slices.Clone(c.Path)
	c.Record = cloneRecord(c.Record)
	return c
}

// Notifier receives every Change a Store records, exactly once, on the
// Store's goroutine. Implementations must not mutate the tree.
type Notifier interface {
	Notify(item Item, change Change)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(item Item, change Change)

// Notify calls f.
func (f NotifierFunc) Notify(item Item, change Change) {
	f(item, change)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Item, Change) {}
