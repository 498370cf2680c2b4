// Package notify composes tree.Notifier implementations.
//
//   - Fanout hands each change to several notifiers in order
//   - LogNotifier logs each change through slog
//   - Broadcaster delivers changes to in-process subscribers over channels
//
// A Store calls its notifier once per change on the Store's goroutine.
// Broadcaster is the only type here that other goroutines touch, and it
// synchronizes internally.
package notify
