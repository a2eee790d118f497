package sink

import (
	"sync"

	"github.com/fulldump/livetail/store"
)

// Table is an in-memory mirror of the delivered window, the data model
// behind the terminal UI. Rows are kept in arrival order and trimmed to the
// retain value of the last stream, so its content is exactly what any
// downstream consumer of the protocol would hold.
type Table struct {
	mutex   sync.Mutex
	columns []string
	rows    []store.Row
}

func NewTable() *Table {
	return &Table{}
}

func (t *Table) ApplySchema(columns []string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.columns = append([]string{}, columns...)
	t.rows = nil
}

func (t *Table) StreamRows(rows []store.Row, retain int) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.rows = append(t.rows, rows...)
	if overflow := len(t.rows) - retain; overflow > 0 {
		t.rows = append([]store.Row{}, t.rows[overflow:]...)
	}
}

func (t *Table) PatchRow(row store.Row) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for i := range t.rows {
		if t.rows[i].Index == row.Index {
			t.rows[i].Fields = row.Fields
			return true
		}
	}
	return false
}

// Columns returns the current column set.
func (t *Table) Columns() []string {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return append([]string{}, t.columns...)
}

// Rows returns a copy of the mirrored window in arrival order.
func (t *Table) Rows() []store.Row {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return append([]store.Row{}, t.rows...)
}

func (t *Table) Len() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return len(t.rows)
}

// Last returns the most recently arrived row, false if the table is empty.
func (t *Table) Last() (store.Row, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if len(t.rows) == 0 {
		return store.Row{}, false
	}
	return t.rows[len(t.rows)-1], true
}
