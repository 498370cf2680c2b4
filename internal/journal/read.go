package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/recordings/internal/tree"
)

const entryColumns = `seq, reason, subject, subject_path, container, old_index, new_index, record`

// ReadEntries returns every entry for subject ordered by seq.
// Returns an empty slice (not nil) if there are none.
func (j *Journal) ReadEntries(ctx context.Context, subject uuid.UUID) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM changes
		WHERE subject = ?
		ORDER BY seq ASC
	`, subject.String())
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	return collectEntries(rows)
}

// ReadSince returns every entry with seq greater than after, ordered by
// seq. A sync walker persists the last seq it handled and resumes here.
func (j *Journal) ReadSince(ctx context.Context, after int64) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM changes
		WHERE seq > ?
		ORDER BY seq ASC
	`, after)
	if err != nil {
		return nil, fmt.Errorf("read since %d: %w", after, err)
	}
	return collectEntries(rows)
}

// LatestEntry returns the most recent entry for subject.
// Returns sql.ErrNoRows if the subject never changed.
func (j *Journal) LatestEntry(ctx context.Context, subject uuid.UUID) (Entry, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM changes
		WHERE subject = ?
		ORDER BY seq DESC
		LIMIT 1
	`, subject.String())
	return scanEntry(row)
}

// NextEntry returns the first entry for subject with seq greater than
// after. Returns sql.ErrNoRows at the end of the subject's history.
func (j *Journal) NextEntry(ctx context.Context, subject uuid.UUID, after int64) (Entry, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM changes
		WHERE subject = ? AND seq > ?
		ORDER BY seq ASC
		LIMIT 1
	`, subject.String(), after)
	return scanEntry(row)
}

// LastSeq returns the highest seq in the journal, 0 when empty. A Store
// resumes its clock from here with tree.NewClockAt.
func (j *Journal) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := j.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM changes
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// LatestSnapshot returns the most recently written snapshot.
// Returns sql.ErrNoRows if none was written.
func (j *Journal) LatestSnapshot(ctx context.Context) (Snapshot, error) {
	var (
		snap Snapshot
		doc  string
	)
	err := j.db.QueryRowContext(ctx, `
		SELECT id, last_seq, digest, document
		FROM snapshots
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&snap.ID, &snap.LastSeq, &snap.Digest, &doc)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Document = []byte(doc)
	return snap, nil
}

// IsNotFound reports whether err means a cursor or lookup found nothing.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e         Entry
		reason    string
		subject   string
		path      string
		container string
		oldIndex  sql.NullInt64
		newIndex  sql.NullInt64
	)
	if err := row.Scan(&e.Seq, &reason, &subject, &path, &container, &oldIndex, &newIndex, &e.Record); err != nil {
		return Entry{}, err
	}

	e.Reason = tree.Reason(reason)
	id, err := uuid.Parse(subject)
	if err != nil {
		return Entry{}, fmt.Errorf("scan entry %d: subject: %w", e.Seq, err)
	}
	e.Subject = id
	if container != "" {
		id, err := uuid.Parse(container)
		if err != nil {
			return Entry{}, fmt.Errorf("scan entry %d: container: %w", e.Seq, err)
		}
		e.Container = id
	}
	if e.Path, err = decodePath(path); err != nil {
		return Entry{}, fmt.Errorf("scan entry %d: %w", e.Seq, err)
	}
	e.OldIndex = nullIndex(oldIndex)
	e.NewIndex = nullIndex(newIndex)
	return e, nil
}

func collectEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func nullIndex(n sql.NullInt64) int {
	if !n.Valid {
		return tree.NoIndex
	}
	return int(n.Int64)
}
