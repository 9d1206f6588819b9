package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/grid"
	"github.com/JonMunkholm/gridview/internal/render"
	"github.com/JonMunkholm/gridview/internal/render/text"
)

/* ----------------------------------------
	MESSAGES
---------------------------------------- */

// openedMsg carries the first view of a grid.
type openedMsg struct {
	key  string
	view core.View
}

// viewMsg carries the view after a grid operation.
type viewMsg struct {
	view   core.View
	status string
	focus  int // Grid index to move the cursor to, -1 to stay
}

type ErrMsg struct{ Err error }

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

/* ----------------------------------------
	MODEL
---------------------------------------- */

type inputMode int

const (
	modeNone inputMode = iota
	modeTyping
	modeSearch
)

// gridScreen is the state of an open grid.
type gridScreen struct {
	key    string
	view   core.View
	report *render.Snapshot
	row    int // Display position of the cursor
	field  int // Column position of the cursor
	query  string
	mode   inputMode
	input  textinput.Model
}

// Model is the bubbletea model of the terminal front end.
type Model struct {
	service *core.Service
	ctx     context.Context

	menu   *Menu
	cursor int
	grid   *gridScreen // nil while the menu is shown

	status string
	err    error
	width  int
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	helpStyle   = lipgloss.NewStyle().Faint(true).MarginTop(1)
)

// New returns the front end for service. ctx bounds every grid operation.
func New(ctx context.Context, service *core.Service) *Model {
	m := &Model{service: service, ctx: ctx}
	m.menu = buildMenuTree(m)
	return m
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case openedMsg:
		input := textinput.New()
		input.Prompt = "> "
		input.CharLimit = 256
		m.grid = &gridScreen{key: msg.key, input: input}
		m.applyView(msg.view, -1)
		m.status, m.err = "", nil
		return m, nil

	case viewMsg:
		if m.grid != nil {
			m.applyView(msg.view, msg.focus)
		}
		m.status, m.err = msg.status, nil
		return m, nil

	case ErrMsg:
		m.err = msg.Err
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.grid != nil {
			return m, m.gridKey(msg)
		}
		return m, m.menuKey(msg)
	}

	if m.grid != nil && m.grid.mode != modeNone {
		var cmd tea.Cmd
		m.grid.input, cmd = m.grid.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) menuKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.menu.Items)-1 {
			m.cursor++
		}
	case "esc", "backspace":
		if m.menu.Parent != nil {
			m.menu, m.cursor = m.menu.Parent, 0
		}
	case "enter":
		if len(m.menu.Items) == 0 {
			return nil
		}
		item := m.menu.Items[m.cursor]
		switch {
		case item.Submenu != nil:
			m.menu, m.cursor = item.Submenu, 0
		case item.Action != nil:
			return item.Action()
		}
	}
	return nil
}

// openGrid loads the first view of a grid.
func (m *Model) openGrid(key string) tea.Cmd {
	service, ctx := m.service, m.ctx
	return func() tea.Msg {
		v, err := service.View(ctx, key, "")
		if err != nil {
			return ErrMsg{Err: err}
		}
		return openedMsg{key: key, view: v}
	}
}

// applyView stores v and keeps the cursor on the grid.
func (m *Model) applyView(v core.View, focus int) {
	g := m.grid
	g.view = v
	g.report = v.Report
	if focus >= 0 {
		for pos, r := range v.Table.Rows {
			if r.Index == focus {
				g.row = pos
			}
		}
	}
	g.row = min(g.row, len(v.Table.Rows)-1)
	g.row = max(g.row, 0)
	g.field = min(g.field, len(v.Table.Columns)-1)
	g.field = max(g.field, 0)
}

// current returns the row and column under the cursor.
func (g *gridScreen) current() (grid.RowView, grid.Column, bool) {
	rows, cols := g.view.Table.Rows, g.view.Table.Columns
	if len(rows) == 0 || len(cols) == 0 {
		return grid.RowView{}, grid.Column{}, false
	}
	return rows[g.row], cols[g.field], true
}

// run performs fn against the open grid, then reloads the view.
func (m *Model) run(fn func(ctx context.Context, key string) (string, int, error)) tea.Cmd {
	service, ctx := m.service, m.ctx
	key, query := m.grid.key, m.grid.query
	return func() tea.Msg {
		status, focus, err := fn(ctx, key)
		if err != nil {
			return ErrMsg{Err: err}
		}
		v, err := service.View(ctx, key, query)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return viewMsg{view: v, status: status, focus: focus}
	}
}

// click sends target to the grid and reports the outcome.
func (m *Model) click(target grid.Target) tea.Cmd {
	return m.run(func(ctx context.Context, key string) (string, int, error) {
		out, err := m.service.Click(ctx, key, target)
		if err != nil {
			return "", -1, err
		}
		if out.Href != "" {
			return "link: " + out.Href, -1, nil
		}
		return out.Message, -1, nil
	})
}

func (m *Model) gridKey(msg tea.KeyMsg) tea.Cmd {
	g := m.grid
	switch g.mode {
	case modeTyping, modeSearch:
		return m.inputKey(msg)
	}

	row, col, ok := g.current()
	switch msg.String() {
	case "q":
		m.grid, m.status, m.err = nil, "", nil
		return nil
	case "esc":
		if !ok || !row.Editing {
			m.grid, m.status, m.err = nil, "", nil
			return nil
		}
	case "up", "k":
		g.row = max(g.row-1, 0)
	case "down", "j":
		g.row = min(g.row+1, max(len(g.view.Table.Rows)-1, 0))
	case "left", "h":
		g.field = max(g.field-1, 0)
	case "right", "l":
		g.field = min(g.field+1, max(len(g.view.Table.Columns)-1, 0))
	case "/":
		g.mode = modeSearch
		g.input.SetValue(g.query)
		return g.input.Focus()
	case "r":
		return m.run(func(ctx context.Context, key string) (string, int, error) {
			m.service.Reload(key)
			return "reloaded", -1, nil
		})
	case "a":
		return m.click(grid.Target{Role: grid.RoleSelectAll})
	case "d":
		return m.click(grid.Target{Role: grid.RoleRowAction, Action: grid.DeleteActionCode})
	case "n":
		return m.run(func(ctx context.Context, key string) (string, int, error) {
			index, err := m.service.Create(ctx, key)
			return "new row", index, err
		})
	case "o":
		if !ok || !col.Orderable {
			return nil
		}
		dir := grid.Asc
		if d, sorted := g.view.Table.Direction(col.Code); sorted && d == grid.Asc {
			dir = grid.Desc
		}
		keys := []grid.SortKey{{Field: col.Code, Dir: dir}}
		return m.run(func(ctx context.Context, key string) (string, int, error) {
			return "", -1, m.service.Order(ctx, key, keys)
		})
	}
	if !ok {
		return nil
	}

	index := row.Index
	switch s := msg.String(); s {
	case " ":
		return m.click(grid.Target{Role: grid.RoleCheckbox, Row: index})
	case "y":
		text := row.Cells[col.Code].Text
		if err := writeClipboard(text); err != nil {
			m.err = err
			return nil
		}
		m.status, m.err = fmt.Sprintf("copied %q", text), nil
		return nil
	case "e":
		return m.run(func(ctx context.Context, key string) (string, int, error) {
			return "", -1, m.service.Edit(ctx, key, index)
		})
	case "s":
		return m.run(func(ctx context.Context, key string) (string, int, error) {
			res, err := m.service.Save(ctx, key, index)
			if err != nil || !res.Success {
				return res.Message, -1, err
			}
			return "saved", -1, nil
		})
	case "esc":
		return m.run(func(ctx context.Context, key string) (string, int, error) {
			return "", -1, m.service.Cancel(ctx, key, index)
		})
	case "p":
		pinned := !row.Pinned
		return m.run(func(ctx context.Context, key string) (string, int, error) {
			return "", -1, m.service.Pin(ctx, key, index, pinned)
		})
	case "enter":
		cell := row.Cells[col.Code]
		switch {
		case cell.Input != nil:
			g.mode = modeTyping
			g.input.SetValue(cell.Input.Text)
			g.input.CursorEnd()
			return g.input.Focus()
		case cell.Href != "":
			return m.click(grid.Target{Role: grid.RoleFieldFollow, Row: index, Field: col.Code})
		case cell.Clickable:
			return m.click(grid.Target{Role: grid.RoleFieldClick, Row: index, Field: col.Code})
		}
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		n := int(s[0] - '1')
		if n < len(row.Buttons) {
			return m.click(grid.Target{Role: grid.RoleRowButton, Row: index, Action: row.Buttons[n].Code})
		}
	}
	return nil
}

// inputKey handles keys while the text input has focus.
func (m *Model) inputKey(msg tea.KeyMsg) tea.Cmd {
	g := m.grid
	switch msg.String() {
	case "esc":
		g.mode = modeNone
		g.input.Blur()
		return nil
	case "enter":
		mode := g.mode
		g.mode = modeNone
		g.input.Blur()
		value := g.input.Value()
		if mode == modeSearch {
			g.query = value
			return m.run(func(context.Context, string) (string, int, error) { return "", -1, nil })
		}
		row, col, ok := g.current()
		if !ok {
			return nil
		}
		return m.run(func(ctx context.Context, key string) (string, int, error) {
			res, err := m.service.Input(ctx, key, row.Index, col.Code, value)
			return res.Message, -1, err
		})
	}
	var cmd tea.Cmd
	g.input, cmd = g.input.Update(msg)
	return cmd
}

/* ----------------------------------------
	VIEW
---------------------------------------- */

func (m *Model) View() string {
	var b strings.Builder
	if m.grid != nil {
		m.gridView(&b)
	} else {
		m.menuView(&b)
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(core.FormatUserError(m.err)))
	} else if m.status != "" {
		b.WriteString("\n" + statusStyle.Render(m.status))
	}
	return b.String()
}

func (m *Model) menuView(b *strings.Builder) {
	b.WriteString(titleStyle.Render(m.menu.Title) + "\n")
	if len(m.menu.Items) == 0 {
		b.WriteString("  no grids configured\n")
	}
	for i, item := range m.menu.Items {
		prefix := "  "
		if i == m.cursor {
			prefix = "> "
		}
		b.WriteString(prefix + item.Label + "\n")
	}
	b.WriteString(helpStyle.Render("enter: open  esc: back  q: quit"))
}

func (m *Model) gridView(b *strings.Builder) {
	g := m.grid
	v := g.view
	title := v.Info.Label
	if g.query != "" {
		title += fmt.Sprintf("  [search: %s]", g.query)
	}
	b.WriteString(titleStyle.Render(title) + "\n")

	field := ""
	if _, col, ok := g.current(); ok {
		field = col.Code
	}
	b.WriteString(text.Table(v.Table, text.Options{Cursor: g.row, Field: field}) + "\n")
	fmt.Fprintf(b, "%d of %d rows, %d selected\n", len(v.Table.Rows), v.Total, v.Selected)

	var actions []string
	for _, a := range v.Toolbar.RowActions {
		actions = append(actions, a.Label)
	}
	for _, a := range v.Toolbar.TableActions {
		actions = append(actions, a.Label)
	}
	if len(actions) > 0 {
		b.WriteString("actions: " + strings.Join(actions, ", ") + "\n")
	}

	for _, n := range v.Notices {
		if n.Outcome.Message == "" {
			continue
		}
		style := statusStyle
		if !n.Outcome.Success {
			style = errorStyle
		}
		b.WriteString(style.Render(n.Outcome.Message) + "\n")
	}
	if g.report != nil {
		b.WriteString("\n" + text.Report("Delete report", *g.report) + "\n")
	}

	switch g.mode {
	case modeTyping:
		b.WriteString("\nedit: " + g.input.View() + "\n")
	case modeSearch:
		b.WriteString("\nsearch: " + g.input.View() + "\n")
	}

	b.WriteString(helpStyle.Render("space: select  a: all  e: edit  enter: input/open  s: save  esc: cancel/back\n" +
		"p: pin  n: new  d: delete  o: order  y: copy  /: search  r: reload  1-9: row buttons  q: back"))
}
