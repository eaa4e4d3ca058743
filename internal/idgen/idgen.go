// Package idgen mints destination primary keys for rows merged in from
// secondary sources.
//
// The merge engine never interprets primary keys as data (spec.md §3); any
// opaque string would satisfy its invariants. prismerge mints UUIDs
// specifically to aid debugging — a fresh UUID on a non-primary-source row
// makes it visually obvious, in the destination data, that the row did not
// originate from the source that won the primary-key tiebreak (spec.md §9).
package idgen

import "github.com/google/uuid"

// New returns a freshly minted UUID string.
func New() string {
	return uuid.New().String()
}
