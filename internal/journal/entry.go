package journal

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/recordings/internal/canonical"
	"github.com/roach88/recordings/internal/tree"
)

// Entry is the persisted form of a tree.Change.
type Entry struct {
	Seq       int64       `json:"seq"`
	Reason    tree.Reason `json:"reason"`
	Subject   uuid.UUID   `json:"subject"`
	Path      []uuid.UUID `json:"path"`
	Container uuid.UUID   `json:"container"`
	OldIndex  int         `json:"old_index"` // tree.NoIndex when not applicable
	NewIndex  int         `json:"new_index"`
	Record    string      `json:"record"` // canonical record of the subject when the change was made
}

// NewEntry converts a Change made on it. For removed changes the record is
// the one the change captured at removal.
func NewEntry(it tree.Item, c tree.Change) (Entry, error) {
	var record []byte
	var err error
	if c.Record != nil {
		record, err = canonical.Marshal(c.Record)
	} else {
		record, err = tree.Encode(it)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("entry %d: %w", c.Seq, err)
	}
	return Entry{
		Seq:       c.Seq,
		Reason:    c.Reason,
		Subject:   c.Subject,
		Path:      c.Path,
		Container: c.Container,
		OldIndex:  c.OldIndex,
		NewIndex:  c.NewIndex,
		Record:    string(record),
	}, nil
}

// Payload returns the notification payload of the entry, matching
// tree.Change.Payload.
func (e Entry) Payload() map[string]any {
	c := tree.Change{
		Seq:       e.Seq,
		Reason:    e.Reason,
		Subject:   e.Subject,
		Path:      e.Path,
		Container: e.Container,
		OldIndex:  e.OldIndex,
		NewIndex:  e.NewIndex,
	}
	if e.Reason == tree.Removed {
		var rec map[string]any
		if err := json.Unmarshal([]byte(e.Record), &rec); err == nil {
			c.Record = rec
		}
	}
	return c.Payload()
}

func encodePath(path []uuid.UUID) (string, error) {
	ids := make([]string, len(path))
	for i, id := range path {
		ids[i] = id.String()
	}
	data, err := canonical.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodePath(s string) ([]uuid.UUID, error) {
	var ids []string
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return nil, fmt.Errorf("decode path: %w", err)
	}
	path := make([]uuid.UUID, len(ids))
	for i, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("decode path[%d]: %w", i, err)
		}
		path[i] = id
	}
	return path, nil
}

func indexValue(i int) any {
	if i == tree.NoIndex {
		return nil
	}
	return i
}

func containerValue(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
