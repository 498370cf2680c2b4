// Package journal persists a tree Store's change log in SQLite.
//
// The journal is the persistence side of the sync collaborator: a Recorder
// is installed as the Store's tree.Notifier and appends every Change it is
// told about. The log is append-only and keyed by the Change's sequence
// number, so replay order never depends on wall time.
//
// # Tables
//
//   - changes: one row per Change (reason, subject, identity path, affected
//     folder, indices and the canonical record of the subject)
//   - snapshots: canonical documents with the last sequence number they
//     include, unique by digest
//
// # Ordering
//
// Every query that returns more than one change orders by seq ASC.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package journal
