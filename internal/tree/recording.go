package tree

import "github.com/google/uuid"

// Recording is a leaf item.
type Recording struct {
	node
}

// NewRecording creates a detached recording.
func NewRecording(name string, id uuid.UUID) *Recording {
	r := &Recording{node: node{id: id, name: name}}
	r.self = r
	return r
}

// Kind returns KindRecording.
func (r *Recording) Kind() Kind { return KindRecording }

// Resolve returns r for an empty path; a recording has nothing below it.
func (r *Recording) Resolve(path []uuid.UUID) Item {
	if len(path) == 0 {
		return r
	}
	return nil
}
