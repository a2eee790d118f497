package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/btree"

	"github.com/fulldump/livetail/utils"
)

var ErrorUnknownColumn = errors.New("column is not defined in the schema")

// Store keeps the last rows of a growing, time-indexed row set, ordered by
// index and bounded by a lookback window. It also tracks the column schema
// of the current dataset and a delivered cursor marking which rows have
// already been handed downstream.
type Store struct {
	mutex sync.Mutex

	tree     *btree.BTreeG[*Row]
	lookback int

	columns     map[string]struct{}
	schemaDirty bool

	// delivered is the highest index already handed downstream, NoPosition
	// until the first delivery after a Replace.
	delivered int64
}

func NewStore(lookback int) *Store {
	if lookback < 1 {
		lookback = 1
	}
	return &Store{
		tree:      newTree(),
		lookback:  lookback,
		columns:   map[string]struct{}{},
		delivered: NoPosition,
	}
}

func newTree() *btree.BTreeG[*Row] {
	return btree.NewG(32, func(a, b *Row) bool { return a.Less(b) })
}

// Replace swaps the whole content atomically: rows are deduplicated by
// index (last one wins) and trimmed to the highest lookback indexes, the
// column schema is derived again from the kept rows, and the delivered
// cursor is reset so the next flush treats all content as fresh.
func (s *Store) Replace(rows []Row) {
	tree := newTree()
	for _, row := range rows {
		tree.ReplaceOrInsert(&Row{Index: row.Index, Fields: row.Fields})
	}
	for tree.Len() > s.lookback {
		tree.DeleteMin()
	}

	columns := map[string]struct{}{}
	tree.Ascend(func(r *Row) bool {
		for name := range r.Fields {
			columns[name] = struct{}{}
		}
		return true
	})

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.tree = tree
	s.columns = columns
	s.schemaDirty = true
	s.delivered = NoPosition
}

// Upsert routes one incoming row:
//   - a row whose index is already present overwrites it in place and is
//     reported as a correction (appended == false)
//   - a row whose index is at or below the delivered cursor is reported as
//     a correction without touching the store (it can never be re-appended,
//     the flush re-expresses it downstream)
//   - anything else is appended, evicting the oldest rows until the store
//     fits the lookback window again
//
// A row carrying a column the current schema does not define is rejected
// without touching the store. The exception is an empty schema (nothing
// fetched yet): the first row to arrive establishes it.
func (s *Store) Upsert(row Row) (appended bool, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(s.columns) == 0 && len(row.Fields) > 0 {
		// Empty start: the first row establishes the schema.
		for name := range row.Fields {
			s.columns[name] = struct{}{}
		}
		s.schemaDirty = true
	}

	for name := range row.Fields {
		if _, known := s.columns[name]; !known {
			return false, fmt.Errorf("column '%s': %w", name, ErrorUnknownColumn)
		}
	}

	if current, exists := s.tree.Get(&Row{Index: row.Index}); exists {
		current.Fields = row.Fields
		return false, nil
	}

	if s.delivered != NoPosition && row.Index <= s.delivered {
		return false, nil
	}

	s.tree.ReplaceOrInsert(&Row{Index: row.Index, Fields: row.Fields})
	for s.tree.Len() > s.lookback {
		s.tree.DeleteMin()
	}

	return true, nil
}

// PositionOfLastAppended returns the current tail index, false if the store
// is empty.
func (s *Store) PositionOfLastAppended() (int64, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	max, exists := s.tree.Max()
	if !exists {
		return NoPosition, false
	}
	return max.Index, true
}

// DeliveredPosition returns the highest index already handed downstream,
// false when nothing was delivered since the last Replace.
func (s *Store) DeliveredPosition() (int64, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.delivered == NoPosition {
		return NoPosition, false
	}
	return s.delivered, true
}

func (s *Store) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.tree.Len()
}

// Columns returns the current schema as a sorted column name list.
func (s *Store) Columns() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return utils.GetKeys(s.columns)
}

// Snapshot returns a copy of the whole window in ascending index order.
func (s *Store) Snapshot() []Row {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rows := make([]Row, 0, s.tree.Len())
	s.tree.Ascend(func(r *Row) bool {
		rows = append(rows, Row{Index: r.Index, Fields: r.Fields})
		return true
	})
	return rows
}

// TakeSchema returns the current columns and whether they changed since
// the last take, consuming the flag. It is meant for the initial schema
// application, before any consumer loop is draining.
func (s *Store) TakeSchema() ([]string, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	dirty := s.schemaDirty
	s.schemaDirty = false
	return utils.GetKeys(s.columns), dirty
}

// TakeUndelivered returns the rows that have not been delivered yet, in
// ascending index order, and advances the delivered cursor past them.
// Retain is how many rows the consumer should keep after applying the
// batch: min(lookback, current size). A true schema return means a Replace
// changed the column set and the consumer must re-apply it before anything
// else; the flag is consumed. An empty batch with schema == false means the
// consumer must not be touched at all.
func (s *Store) TakeUndelivered() (rows []Row, retain int, columns []string, schema bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	retain = s.tree.Len()
	if retain > s.lookback {
		retain = s.lookback
	}

	if s.schemaDirty {
		schema = true
		columns = utils.GetKeys(s.columns)
		s.schemaDirty = false
	}

	s.tree.Ascend(func(r *Row) bool {
		if s.delivered != NoPosition && r.Index <= s.delivered {
			return true
		}
		rows = append(rows, Row{Index: r.Index, Fields: r.Fields})
		return true
	})
	if len(rows) > 0 {
		s.delivered = rows[len(rows)-1].Index
	}

	return
}
