// Package canonical produces deterministic JSON for serialized tree records.
//
// Node records are plain Go values (string, bool, integers, []any and
// map[string]any). Marshal writes them with:
//   - object keys sorted by UTF-16 code units (RFC 8785)
//   - strings NFC normalized
//   - no HTML escaping and no insignificant whitespace
//   - floats and nulls rejected
//
// The same bytes feed Digest, so two documents with the same names,
// identities and structure always hash identically.
package canonical
