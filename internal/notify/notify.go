package notify

import (
	"log/slog"

	"github.com/roach88/recordings/internal/tree"
)

// Fanout calls each notifier in order.
type Fanout []tree.Notifier

// Notify implements tree.Notifier.
func (f Fanout) Notify(it tree.Item, c tree.Change) {
	for _, n := range f {
		n.Notify(it, c)
	}
}

// LogNotifier logs every change at debug level.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. Pass nil for slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notify")}
}

// Notify implements tree.Notifier.
func (l *LogNotifier) Notify(it tree.Item, c tree.Change) {
	l.logger.Debug("tree changed",
		"seq", c.Seq,
		"reason", c.Reason,
		"item", it.ID(),
		"name", it.Name(),
		"kind", it.Kind(),
		"parent_folder", c.Container)
}
