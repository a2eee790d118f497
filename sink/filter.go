package sink

import (
	"github.com/SierraSoftworks/connor"

	"github.com/fulldump/livetail/store"
)

// Filter forwards to the next sink only the rows whose fields match the
// given conditions (same mongo style operators as the database filters:
// {"symbol": "BTC"}, {"close": {"$gt": 100}}...). A row that fails to
// evaluate never matches. It remembers which indexes it forwarded, so a
// correction that stops matching still reaches the copy already visible
// downstream instead of leaving it stale; corrections for rows never
// forwarded are reported as handled without being delivered.
type Filter struct {
	next       Sink
	conditions map[string]interface{}
	forwarded  []int64
}

func NewFilter(next Sink, conditions map[string]interface{}) *Filter {
	return &Filter{
		next:       next,
		conditions: conditions,
	}
}

func (f *Filter) ApplySchema(columns []string) {
	f.forwarded = nil
	f.next.ApplySchema(columns)
}

func (f *Filter) StreamRows(rows []store.Row, retain int) {
	matched := make([]store.Row, 0, len(rows))
	for _, row := range rows {
		if f.match(row) {
			matched = append(matched, row)
		}
	}
	if len(matched) == 0 {
		return
	}

	for _, row := range matched {
		if !f.isForwarded(row.Index) {
			f.forwarded = append(f.forwarded, row.Index)
		}
	}
	if overflow := len(f.forwarded) - retain; overflow > 0 {
		f.forwarded = append([]int64{}, f.forwarded[overflow:]...)
	}

	f.next.StreamRows(matched, retain)
}

func (f *Filter) PatchRow(row store.Row) bool {
	if f.match(row) || f.isForwarded(row.Index) {
		return f.next.PatchRow(row)
	}
	return true
}

func (f *Filter) isForwarded(index int64) bool {
	for _, i := range f.forwarded {
		if i == index {
			return true
		}
	}
	return false
}

func (f *Filter) match(row store.Row) bool {
	match, err := connor.Match(f.conditions, row.Fields)
	if err != nil {
		return false
	}
	return match
}
