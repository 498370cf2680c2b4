package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/recordings/internal/tree"
)

// createTestJournal opens a journal in a temp directory.
func createTestJournal(t *testing.T) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

// createJournaledStore returns a store whose changes go to j.
func createJournaledStore(t *testing.T, j *Journal) (*tree.Store, *Recorder) {
	t.Helper()
	rec := j.Recorder(context.Background())
	s := tree.New(
		tree.WithIDGenerator(tree.SequentialGenerator(32)),
		tree.WithNotifier(rec),
	)
	return s, rec
}
