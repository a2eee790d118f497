// Package sink contains the delivery side of the engine: consumers that
// mirror the windowed row tail (terminal tables, NDJSON streams) plus
// decorators to filter or project deliveries per consumer.
package sink

import (
	"github.com/fulldump/livetail/store"
)

// Sink receives windowed deliveries. All methods are driven from a single
// goroutine (the consumer loop), so implementations do not need to be
// reentrant, but they must never call back into the engine. Row field maps
// are shared snapshots: read them, never mutate them.
type Sink interface {

	// ApplySchema declares the full column set of the current dataset and
	// resets the sink content. It is always called before any rows of a
	// resynced dataset are streamed.
	ApplySchema(columns []string)

	// StreamRows appends a batch of rows in ascending index order. After
	// applying it the sink keeps at most retain rows, dropping the oldest
	// ones first.
	StreamRows(rows []store.Row, retain int)

	// PatchRow overwrites a row already present in the sink. It returns
	// false when the index is outside the retained window, in which case
	// the engine re-expresses the correction as a one-row stream.
	PatchRow(row store.Row) bool
}
