package sink

import (
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/livetail/store"
)

func TestProjectNarrowsSchema(t *testing.T) {

	// Setup
	r := &recorder{}
	p := NewProject(r, "close", "volume")

	// Run
	p.ApplySchema([]string{"close", "open", "symbol"})

	// Check
	AssertEqual(r.schemas[0], []string{"close"})
}

func TestProjectNarrowsRows(t *testing.T) {

	// Setup
	r := &recorder{}
	p := NewProject(r, "close")

	// Run
	p.StreamRows([]store.Row{barRow(7, 700)}, 5)

	// Check
	AssertEqual(len(r.streams), 1)
	row := r.streams[0][0]
	AssertEqual(row.Index, int64(7))
	AssertEqualJson(row.Fields, map[string]any{"close": 700.0})
}

func TestProjectPatchKeepsIndex(t *testing.T) {

	// Setup
	r := &recorder{patchRet: true}
	p := NewProject(r, "close")

	// Run
	handled := p.PatchRow(barRow(7, 700))

	// Check
	AssertTrue(handled)
	AssertEqual(r.patches[0].Index, int64(7))
	_, hasSymbol := r.patches[0].Fields["symbol"]
	AssertFalse(hasSymbol)
}

func TestProjectDoesNotMutateOriginal(t *testing.T) {

	// Setup
	r := &recorder{}
	p := NewProject(r, "close")
	original := barRow(1, 1)

	// Run
	p.StreamRows([]store.Row{original}, 1)

	// Check
	_, hasSymbol := original.Fields["symbol"]
	AssertTrue(hasSymbol)
}
