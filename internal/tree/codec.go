package tree

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/roach88/recordings/internal/canonical"
)

// Record field names, the wire contract of the serialized schema.
const (
	NameKey     = "name"
	UUIDKey     = "uuid"
	IsFolderKey = "isFolder"
	ChildrenKey = "children"
)

// Record serializes it to a generic record. Folders embed their children
// in order.
func Record(it Item) map[string]any {
	rec := map[string]any{
		NameKey:     it.Name(),
		UUIDKey:     it.ID().String(),
		IsFolderKey: it.Kind() == KindFolder,
	}
	if f, ok := it.(*Folder); ok {
		children := make([]any, len(f.children))
		for i, child := range f.children {
			children[i] = Record(child)
		}
		rec[ChildrenKey] = children
	}
	return rec
}

// cloneRecord deep-copies a record built by Record.
func cloneRecord(rec map[string]any) map[string]any {
	if rec == nil {
		return nil
	}
	out := maps.Clone(rec)
	if children, ok := rec[ChildrenKey].([]any); ok {
		copied := make([]any, len(children))
		for i, child := range children {
			if m, ok := child.(map[string]any); ok {
				copied[i] = cloneRecord(m)
			} else {
				copied[i] = child
			}
		}
		out[ChildrenKey] = copied
	}
	return out
}

// Encode returns the canonical JSON of the item's record.
func Encode(it Item) ([]byte, error) {
	data, err := canonical.Marshal(Record(it))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", it.ID(), err)
	}
	return data, nil
}

// LoadReport describes what a load kept and dropped.
type LoadReport struct {
	Loaded     int // nodes constructed, root included
	Skipped    int // child records dropped, duplicates included
	Duplicates int // child records dropped because their uuid was already loaded
}

// Load builds a detached item from a generic record, as produced by
// json.Unmarshal into an any. It returns (nil, false) if the record lacks a
// string name, a parsable uuid or a boolean isFolder.
func Load(record any) (Item, bool) {
	it, _ := LoadWithReport(record)
	return it, it != nil
}

// LoadWithReport is Load returning what was skipped.
//
// A malformed child record is skipped and its siblings are still loaded.
// So is a record whose uuid repeats one loaded earlier in the same
// document, since identities must be unique within a store. A folder whose
// children field is present but not a list is itself malformed.
func LoadWithReport(record any) (Item, LoadReport) {
	l := loader{seen: make(map[uuid.UUID]bool)}
	it := l.load(record)
	return it, l.report
}

type loader struct {
	seen   map[uuid.UUID]bool
	report LoadReport
}

func (l *loader) load(record any) Item {
	dict, ok := record.(map[string]any)
	if !ok {
		return nil
	}
	name, ok := dict[NameKey].(string)
	if !ok {
		return nil
	}
	idString, ok := dict[UUIDKey].(string)
	if !ok {
		return nil
	}
	id, err := parseID(idString)
	if err != nil {
		return nil
	}
	isFolder, ok := dict[IsFolderKey].(bool)
	if !ok {
		return nil
	}
	if l.seen[id] {
		l.report.Duplicates++
		return nil
	}

	if !isFolder {
		l.seen[id] = true
		l.report.Loaded++
		return NewRecording(name, id)
	}

	var children []any
	if raw, present := dict[ChildrenKey]; present && raw != nil {
		children, ok = raw.([]any)
		if !ok {
			return nil
		}
	}
	l.seen[id] = true
	f := NewFolder(name, id)
	for _, rec := range children {
		child := l.load(rec)
		if child == nil {
			l.report.Skipped++
			continue
		}
		f.Add(child)
	}
	l.report.Loaded++
	return f
}

// parseID accepts only the hyphenated 36-character form that Record
// writes; uuid.Parse alone would also take urn: and braced forms.
func parseID(s string) (uuid.UUID, error) {
	if len(s) != 36 {
		return uuid.Nil, fmt.Errorf("uuid %q: not in hyphenated form", s)
	}
	return uuid.Parse(s)
}

// Decode parses JSON and loads the top-level node.
func Decode(data []byte) (Item, LoadReport, error) {
	var record any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, LoadReport{}, fmt.Errorf("decode: %w", err)
	}
	it, report := LoadWithReport(record)
	if it == nil {
		return nil, report, ErrMalformed
	}
	return it, report, nil
}

// DecodeFolder is Decode for documents whose top-level node must be a
// folder, such as a Store root.
func DecodeFolder(data []byte) (*Folder, LoadReport, error) {
	it, report, err := Decode(data)
	if err != nil {
		return nil, report, err
	}
	f, ok := it.(*Folder)
	if !ok {
		return nil, report, fmt.Errorf("decode %s: %w", it.ID(), ErrNotFolder)
	}
	return f, report, nil
}
