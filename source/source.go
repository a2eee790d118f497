// Package source contains the feed side of the engine: where rows come
// from. The engine polls a Source from its worker goroutine.
package source

import (
	"github.com/fulldump/livetail/store"
)

// Source feeds the engine with time-indexed rows. Returned rows are handed
// over: a source must not keep mutating their field maps afterwards.
type Source interface {

	// FetchInitial returns up to back rows from the tail of what the
	// source already has, ascending by index. Returning none is fine.
	FetchInitial(back int) ([]store.Row, error)

	// FetchSince returns the rows that are new or changed after the given
	// position was observed, ascending, possibly empty. A source may
	// legally re-emit an index it served before when its fields changed
	// (an in-progress bar that keeps updating); the engine classifies
	// every returned row again on arrival, so duplicates are harmless.
	FetchSince(position int64) ([]store.Row, error)
}
