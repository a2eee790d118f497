package sink

import (
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/livetail/store"
)

func TestFilterForwardsMatchingRows(t *testing.T) {

	// Setup
	r := &recorder{}
	f := NewFilter(r, map[string]interface{}{"symbol": "BTC"})
	eth := store.Row{Index: 2, Fields: map[string]any{"close": 2.0, "symbol": "ETH"}}

	// Run
	f.StreamRows([]store.Row{barRow(1, 1), eth, barRow(3, 3)}, 3)

	// Check
	AssertEqual(len(r.streams), 1)
	AssertEqual(len(r.streams[0]), 2)
	AssertEqual(r.streams[0][0].Index, int64(1))
	AssertEqual(r.streams[0][1].Index, int64(3))
	AssertEqual(r.retains[0], 3)
}

func TestFilterSkipsEmptyBatches(t *testing.T) {

	// Setup
	r := &recorder{}
	f := NewFilter(r, map[string]interface{}{"symbol": "DOGE"})

	// Run
	f.StreamRows([]store.Row{barRow(1, 1), barRow(2, 2)}, 2)

	// Check
	AssertEqual(len(r.streams), 0)
}

func TestFilterOperators(t *testing.T) {

	// Setup
	r := &recorder{}
	f := NewFilter(r, map[string]interface{}{
		"close": map[string]interface{}{"$gt": 100.0},
	})

	// Run
	f.StreamRows([]store.Row{barRow(1, 99), barRow(2, 101)}, 2)

	// Check
	AssertEqual(len(r.streams), 1)
	AssertEqual(len(r.streams[0]), 1)
	AssertEqual(r.streams[0][0].Index, int64(2))
}

func TestFilterPatchNotMatchingIsHandled(t *testing.T) {

	// Setup
	r := &recorder{patchRet: true}
	f := NewFilter(r, map[string]interface{}{"symbol": "DOGE"})

	// Run
	handled := f.PatchRow(barRow(1, 1))

	// Check
	AssertTrue(handled)
	AssertEqual(len(r.patches), 0)
}

func TestFilterPatchMatchingIsForwarded(t *testing.T) {

	// Setup
	r := &recorder{patchRet: true}
	f := NewFilter(r, map[string]interface{}{"symbol": "BTC"})

	// Run
	handled := f.PatchRow(barRow(1, 1))

	// Check
	AssertTrue(handled)
	AssertEqual(len(r.patches), 1)
}

func TestFilterPatchReachesFormerlyMatchingRow(t *testing.T) {

	// Setup: row 1 was forwarded while it matched
	r := &recorder{patchRet: true}
	f := NewFilter(r, map[string]interface{}{
		"close": map[string]interface{}{"$gt": 100.0},
	})
	f.StreamRows([]store.Row{barRow(1, 150)}, 3)

	// Run: the correction drops it under the threshold
	handled := f.PatchRow(barRow(1, 50))

	// Check: the visible copy is patched, not left stale
	AssertTrue(handled)
	AssertEqual(len(r.patches), 1)
	AssertEqual(r.patches[0].Fields["close"], 50.0)
}

func TestFilterForgetsEvictedRows(t *testing.T) {

	// Setup: row 1 was forwarded, then two more rows pushed it out of a
	// window of two
	r := &recorder{patchRet: true}
	f := NewFilter(r, map[string]interface{}{"symbol": "BTC"})
	f.StreamRows([]store.Row{barRow(1, 1)}, 2)
	f.StreamRows([]store.Row{barRow(2, 2), barRow(3, 3)}, 2)

	// Run: a correction for the evicted row that no longer matches
	eth := store.Row{Index: 1, Fields: map[string]any{"close": 1.0, "symbol": "ETH"}}
	handled := f.PatchRow(eth)

	// Check: handled without bothering downstream
	AssertTrue(handled)
	AssertEqual(len(r.patches), 0)
}

func TestFilterSchemaPassesThrough(t *testing.T) {

	// Setup
	r := &recorder{}
	f := NewFilter(r, nil)

	// Run
	f.ApplySchema([]string{"close"})

	// Check
	AssertEqual(len(r.schemas), 1)
	AssertEqual(r.schemas[0], []string{"close"})
}

func TestFilterSchemaResetsTracking(t *testing.T) {

	// Setup: row 1 forwarded, then a resync replaces the schema
	r := &recorder{patchRet: true}
	f := NewFilter(r, map[string]interface{}{"symbol": "BTC"})
	f.StreamRows([]store.Row{barRow(1, 1)}, 3)
	f.ApplySchema([]string{"close", "symbol"})

	// Run: a correction for the forgotten row that no longer matches
	eth := store.Row{Index: 1, Fields: map[string]any{"close": 1.0, "symbol": "ETH"}}
	handled := f.PatchRow(eth)

	// Check
	AssertTrue(handled)
	AssertEqual(len(r.patches), 0)
}
