package engine

import (
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/livetail/store"
)

func TestQueueAppendFlagIsConsumedOnce(t *testing.T) {

	// Setup
	q := &queue{}

	// Run: many marks, one flush
	q.MarkAppendPending()
	q.MarkAppendPending()
	q.MarkAppendPending()

	// Check
	AssertTrue(q.ConsumeAppendFlag())
	AssertFalse(q.ConsumeAppendFlag())
}

func TestQueueCorrectionsKeepArrivalOrder(t *testing.T) {

	// Setup
	q := &queue{}
	q.EnqueueCorrection(store.Row{Index: 7})
	q.EnqueueCorrection(store.Row{Index: 3})
	q.EnqueueCorrection(store.Row{Index: 7})

	// Run
	corrections := q.DrainCorrections()

	// Check: order preserved, duplicates preserved, queue empty after
	AssertEqual(len(corrections), 3)
	AssertEqual(corrections[0].Index, int64(7))
	AssertEqual(corrections[1].Index, int64(3))
	AssertEqual(corrections[2].Index, int64(7))
	AssertEqual(len(q.DrainCorrections()), 0)
}

func TestQueueResetDiscardsEverything(t *testing.T) {

	// Setup
	q := &queue{}
	q.MarkAppendPending()
	q.EnqueueCorrection(store.Row{Index: 1})

	// Run
	q.Reset()

	// Check
	AssertFalse(q.ConsumeAppendFlag())
	AssertEqual(len(q.DrainCorrections()), 0)
}
