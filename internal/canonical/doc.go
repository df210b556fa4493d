// Package canonical renders deterministic JSON for snapshot references.
//
// Two values that are equal after encoding/json always render to identical
// bytes, so references stay stable across runs, map iteration orders and
// Unicode normalization forms. Key order and string escaping follow
// RFC 8785; unlike RFC 8785 the output is indented for readable diffs and
// numbers are kept as encoding/json wrote them.
package canonical
