package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fulldump/livetail/engine"
	"github.com/fulldump/livetail/sink"
	"github.com/fulldump/livetail/utils"
)

type keyMap struct {
	Bottom key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Bottom: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end", "newest"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

var styles = struct {
	Title  lipgloss.Style
	Feed   lipgloss.Style
	Status lipgloss.Style
}{
	Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1),
	Feed:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Status: lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
}

// bar is the shape of a simulated feed row, for the status line.
type bar struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type addsMsg struct{}

type patchesMsg struct{}

// waitAdds blocks until the engine arms an append flush. The flush itself
// runs in Update, on the program goroutine, which is the single consumer
// the engine requires.
func waitAdds(eng *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		<-eng.Adds()
		return addsMsg{}
	}
}

func waitPatches(eng *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		<-eng.Patches()
		return patchesMsg{}
	}
}

type model struct {
	engine *engine.Engine
	mirror *sink.Table
	table  table.Model
	keys   keyMap

	symbol string
	feed   string

	adds     int
	patches  int
	width    int
	height   int
	quitting bool
}

func newModel(eng *engine.Engine, mirror *sink.Table, symbol, feed string) model {

	t := table.New(
		table.WithColumns([]table.Column{{Title: "index", Width: 8}}),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return model{
		engine: eng,
		mirror: mirror,
		table:  t,
		keys:   defaultKeyMap(),
		symbol: symbol,
		feed:   feed,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitAdds(m.engine), waitPatches(m.engine))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {

	switch msg := msg.(type) {

	case addsMsg:
		m.engine.FlushAdds()
		m.adds++
		m.reload()
		return m, waitAdds(m.engine)

	case patchesMsg:
		m.engine.FlushPatches()
		m.patches++
		m.reload()
		return m, waitPatches(m.engine)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		height := msg.Height - 4
		if height < 3 {
			height = 3
		}
		m.table.SetHeight(height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Bottom):
			m.table.GotoBottom()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// reload rebuilds the table from the mirror after a flush and keeps the
// newest row in view.
func (m *model) reload() {

	names := m.mirror.Columns()
	rows := m.mirror.Rows()

	columns := make([]table.Column, 0, len(names)+1)
	columns = append(columns, table.Column{Title: "index", Width: 8})
	for _, name := range names {
		width := len(name) + 2
		if width < 12 {
			width = 12
		}
		columns = append(columns, table.Column{Title: name, Width: width})
	}

	view := make([]table.Row, len(rows))
	for i, row := range rows {
		cells := make(table.Row, 0, len(columns))
		cells = append(cells, strconv.FormatInt(row.Index, 10))
		for _, name := range names {
			cells = append(cells, formatValue(row.Fields[name]))
		}
		view[i] = cells
	}

	m.table.SetColumns(columns)
	m.table.SetRows(view)
	m.table.GotoBottom()
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		styles.Title.Render("livetail "+m.symbol),
		styles.Feed.Render("feed "+m.feed),
	)

	return header + "\n" + m.table.View() + "\n" + styles.Status.Render(m.statusLine()) + "\n"
}

func (m model) statusLine() string {

	last, exists := m.mirror.Last()
	if !exists {
		return "waiting for data | q quit"
	}

	b := bar{}
	utils.Remarshal(last.Fields, &b)

	return fmt.Sprintf("%d rows | index %d | close %.2f | %d adds | %d patches | q quit",
		m.mirror.Len(), last.Index, b.Close, m.adds, m.patches)
}
