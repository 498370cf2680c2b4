// Package tree provides the identity-addressed, ordered, change-tracked
// document tree of folders and recordings.
//
// The tree is made of two node kinds behind the sealed Item interface:
//   - Folder: an ordered container of Items
//   - Recording: a leaf
//
// A Store owns the root Folder. Every Item reachable from the root is
// indexed by its UUID and every mutation made on an attached Item produces
// exactly one Change, stamped with a sequence number from the Store's Clock,
// appended to the Store's log and handed to the Store's Notifier.
//
// # Ownership
//
// Folders own their children and the Store owns the root. The upward links
// (Item.Container, Item.Store) are back-references; Item.Store is never set
// directly and is re-derived from the container whenever an Item is
// re-parented, for the Item and its whole subtree.
//
// # Ordering
//
// Folder children are kept sorted by a locale-aware Collation of their
// names. Ties fall back to the raw name bytes and then to the UUID, so the
// order is total. A rename re-sorts only the renamed child and reports its
// old and new index.
//
// # Concurrency
//
// A Store and its tree must be used from a single goroutine or under
// external serialization. Nothing in this package blocks.
//
// # Errors
//
// Recoverable conditions are reported as absent results: Load returns
// (nil, false) for malformed records, Remove and Resolve report not-found as
// a no-op. Breaking the attach/detach lifecycle (duplicate identities, adding
// a folder beneath itself) is a programmer error and panics.
package tree
