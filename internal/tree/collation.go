package tree

import (
	"bytes"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collation orders item names for a language.
//
// A collate.Collator keeps internal buffers, so Compare serializes on a
// mutex; detached folders share the default Collation across goroutines.
type Collation struct {
	mu  sync.Mutex
	tag language.Tag
	col *collate.Collator
}

// NewCollation returns a Collation for tag. With no options it compares
// case-insensitively with numeric ordering of digit runs ("Take 2" before
// "Take 10").
func NewCollation(tag language.Tag, opts ...collate.Option) *Collation {
	if len(opts) == 0 {
		opts = []collate.Option{collate.IgnoreCase, collate.Numeric}
	}
	return &Collation{tag: tag, col: collate.New(tag, opts...)}
}

var defaultCollation = NewCollation(language.Und)

// DefaultCollation returns the root-locale Collation used by folders that
// are not attached to a Store.
func DefaultCollation() *Collation {
	return defaultCollation
}

// Tag returns the collation's language.
func (c *Collation) Tag() language.Tag {
	return c.tag
}

// Compare compares two names: negative if a sorts first, zero if the
// collator treats them as equal.
func (c *Collation) Compare(a, b string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.col.CompareString(a, b)
}

// Less reports whether a sorts before b. The order is total: names equal
// under the collator are ordered by their bytes, then by identity.
func (c *Collation) Less(a, b Item) bool {
	an, bn := a.Name(), b.Name()
	if r := c.Compare(an, bn); r != 0 {
		return r < 0
	}
	if an != bn {
		return an < bn
	}
	ai, bi := a.ID(), b.ID()
	return bytes.Compare(ai[:], bi[:]) < 0
}
