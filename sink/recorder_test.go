package sink

import (
	"github.com/fulldump/livetail/store"
)

// recorder captures every call for the decorator tests.
type recorder struct {
	schemas  [][]string
	streams  [][]store.Row
	retains  []int
	patches  []store.Row
	patchRet bool
}

func (r *recorder) ApplySchema(columns []string) {
	r.schemas = append(r.schemas, columns)
}

func (r *recorder) StreamRows(rows []store.Row, retain int) {
	r.streams = append(r.streams, rows)
	r.retains = append(r.retains, retain)
}

func (r *recorder) PatchRow(row store.Row) bool {
	r.patches = append(r.patches, row)
	return r.patchRet
}
