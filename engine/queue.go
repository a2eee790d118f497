package engine

import (
	"sync"

	"github.com/fulldump/livetail/store"
)

// queue accumulates what the next flushes must deliver: a single append
// flag (one pending flush batches any number of appends) and the
// corrections observed since the last patches flush, in arrival order.
// Correction rows are value snapshots taken at classification time, so a
// correction survives the eviction of its row from the store.
type queue struct {
	mutex       sync.Mutex
	appendFlag  bool
	corrections []store.Row
}

// MarkAppendPending sets the append flag. Idempotent.
func (q *queue) MarkAppendPending() {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.appendFlag = true
}

// ConsumeAppendFlag returns the append flag and clears it.
func (q *queue) ConsumeAppendFlag() bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	pending := q.appendFlag
	q.appendFlag = false
	return pending
}

func (q *queue) EnqueueCorrection(row store.Row) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.corrections = append(q.corrections, row)
}

// DrainCorrections returns the pending corrections in arrival order and
// empties the list atomically.
func (q *queue) DrainCorrections() []store.Row {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	drained := q.corrections
	q.corrections = nil
	return drained
}

// Reset discards everything pending. Used on a full resync: stale
// corrections are superseded by the fresh stream that follows.
func (q *queue) Reset() {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.appendFlag = false
	q.corrections = nil
}
