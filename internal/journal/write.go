package journal

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/recordings/internal/canonical"
	"github.com/roach88/recordings/internal/tree"
)

// WriteEntry appends an entry. Uses ON CONFLICT(seq) DO NOTHING, so
// writing the same entry twice is a no-op.
func (j *Journal) WriteEntry(ctx context.Context, e Entry) error {
	path, err := encodePath(e.Path)
	if err != nil {
		return fmt.Errorf("write entry %d: %w", e.Seq, err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO changes
		(seq, reason, subject, subject_path, container, old_index, new_index, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`,
		e.Seq,
		string(e.Reason),
		e.Subject.String(),
		path,
		containerValue(e.Container),
		indexValue(e.OldIndex),
		indexValue(e.NewIndex),
		e.Record,
	)
	if err != nil {
		return fmt.Errorf("write entry %d: %w", e.Seq, err)
	}
	return nil
}

// Snapshot is a persisted document.
type Snapshot struct {
	ID       int64
	LastSeq  int64
	Digest   string
	Document []byte
}

// WriteSnapshot stores the canonical document of root together with the
// last sequence number it reflects. A document identical to a stored one
// is not stored again; inserted reports whether a row was added.
func (j *Journal) WriteSnapshot(ctx context.Context, root *tree.Folder, lastSeq int64) (digest string, inserted bool, err error) {
	doc, err := tree.Encode(root)
	if err != nil {
		return "", false, fmt.Errorf("write snapshot: %w", err)
	}
	digest = canonical.DigestBytes(canonical.DomainDocument, doc)

	result, err := j.db.ExecContext(ctx, `
		INSERT INTO snapshots (last_seq, digest, document)
		VALUES (?, ?, ?)
		ON CONFLICT(digest) DO NOTHING
	`, lastSeq, digest, string(doc))
	if err != nil {
		return "", false, fmt.Errorf("write snapshot: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("write snapshot: rows affected: %w", err)
	}
	return digest, n > 0, nil
}

// Recorder is a tree.Notifier appending every Change to a Journal.
//
// Notify cannot return an error, so the first failure is logged and kept;
// later changes are still attempted. Check Err after a batch of mutations.
type Recorder struct {
	j   *Journal
	ctx context.Context

	mu  sync.Mutex
	err error
}

// Recorder returns a notifier writing under ctx.
func (j *Journal) Recorder(ctx context.Context) *Recorder {
	return &Recorder{j: j, ctx: ctx}
}

// Notify implements tree.Notifier.
func (r *Recorder) Notify(it tree.Item, c tree.Change) {
	e, err := NewEntry(it, c)
	if err == nil {
		err = r.j.WriteEntry(r.ctx, e)
	}
	if err == nil {
		return
	}

	r.j.logger.Error("journal write failed", "seq", c.Seq, "reason", c.Reason, "error", err)
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.mu.Unlock()
}

// Err returns the first write failure.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
