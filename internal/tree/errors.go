package tree

import "errors"

var (
	// ErrMalformed is returned by Decode when the top-level record is not a
	// valid node.
	ErrMalformed = errors.New("tree: malformed node record")

	// ErrNotFolder is returned when a folder was required.
	ErrNotFolder = errors.New("tree: not a folder")
)
