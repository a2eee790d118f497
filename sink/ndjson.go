package sink

import (
	"io"
	"sync"

	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/livetail/store"
)

// NDJSON writes every delivery as one JSON line, so a feed can be piped
// into jq, a file or another process:
//
//	{"op":"schema","columns":["close","open"]}
//	{"op":"stream","retain":10,"rows":[{"index":4,"fields":{...}}]}
//	{"op":"patch","row":{"index":3,"fields":{...}}}
//
// It mirrors the retained window by index so PatchRow can answer honestly
// whether the patched row is still visible downstream.
type NDJSON struct {
	mutex   sync.Mutex
	encoder *jsontext.Encoder
	window  []int64
	err     error
}

type ndjsonLine struct {
	Op      string      `json:"op"`
	Columns []string    `json:"columns,omitempty"`
	Retain  int         `json:"retain,omitempty"`
	Rows    []store.Row `json:"rows,omitempty"`
	Row     *store.Row  `json:"row,omitempty"`
}

func NewNDJSON(w io.Writer) *NDJSON {
	return &NDJSON{
		encoder: jsontext.NewEncoder(w),
	}
}

func (n *NDJSON) ApplySchema(columns []string) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	n.window = nil
	n.emit(ndjsonLine{Op: "schema", Columns: columns})
}

func (n *NDJSON) StreamRows(rows []store.Row, retain int) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	for _, row := range rows {
		if !n.contains(row.Index) {
			n.window = append(n.window, row.Index)
		}
	}
	if overflow := len(n.window) - retain; overflow > 0 {
		n.window = append([]int64{}, n.window[overflow:]...)
	}

	n.emit(ndjsonLine{Op: "stream", Retain: retain, Rows: rows})
}

func (n *NDJSON) PatchRow(row store.Row) bool {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if !n.contains(row.Index) {
		return false
	}
	n.emit(ndjsonLine{Op: "patch", Row: &row})
	return true
}

// Err returns the first write error, if any. Later deliveries after a
// failed write are dropped.
func (n *NDJSON) Err() error {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	return n.err
}

func (n *NDJSON) contains(index int64) bool {
	for _, i := range n.window {
		if i == index {
			return true
		}
	}
	return false
}

func (n *NDJSON) emit(line ndjsonLine) {
	if n.err != nil {
		return
	}
	n.err = json2.MarshalEncode(n.encoder, line)
}
