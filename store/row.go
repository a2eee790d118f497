package store

import (
	"math"
)

// NoPosition is the cursor value used when there is no row to point at
// (empty store, or nothing delivered since the last Replace).
const NoPosition int64 = math.MinInt64

// Row is one entry of the tail: a unique position in the series plus an
// arbitrary set of named field values. Fields maps are treated as immutable
// once a row has been handed to a Store or to a sink; corrections swap the
// whole map instead of mutating it, so row values can be copied and shared
// across goroutines without extra locking.
type Row struct {
	Index  int64          `json:"index"` // position in the series, used as ID
	Fields map[string]any `json:"fields"`
}

// Less returns true if the row is less than the other row.
// This is required for the btree ordering.
func (r *Row) Less(than *Row) bool {
	return r.Index < than.Index
}
