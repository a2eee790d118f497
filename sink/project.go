package sink

import (
	"github.com/fulldump/livetail/store"
)

// Project narrows deliveries to a subset of columns, so each consumer can
// mirror only the fields it draws. Row indexes are always preserved.
type Project struct {
	next    Sink
	columns map[string]struct{}
}

func NewProject(next Sink, columns ...string) *Project {
	selected := map[string]struct{}{}
	for _, name := range columns {
		selected[name] = struct{}{}
	}
	return &Project{
		next:    next,
		columns: selected,
	}
}

func (p *Project) ApplySchema(columns []string) {
	subset := make([]string, 0, len(p.columns))
	for _, name := range columns {
		if _, ok := p.columns[name]; ok {
			subset = append(subset, name)
		}
	}
	p.next.ApplySchema(subset)
}

func (p *Project) StreamRows(rows []store.Row, retain int) {
	projected := make([]store.Row, len(rows))
	for i, row := range rows {
		projected[i] = p.project(row)
	}
	p.next.StreamRows(projected, retain)
}

func (p *Project) PatchRow(row store.Row) bool {
	return p.next.PatchRow(p.project(row))
}

func (p *Project) project(row store.Row) store.Row {
	fields := make(map[string]any, len(p.columns))
	for name, value := range row.Fields {
		if _, ok := p.columns[name]; ok {
			fields[name] = value
		}
	}
	return store.Row{
		Index:  row.Index,
		Fields: fields,
	}
}
