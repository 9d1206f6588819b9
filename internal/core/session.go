package core

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/JonMunkholm/gridview/internal/grid"
	"github.com/JonMunkholm/gridview/internal/render"
)

// Session is one live grid. A grid is single-threaded: every operation on
// it runs with the session lock held.
type Session struct {
	mu sync.Mutex

	def     GridDefinition
	table   *grid.Datatable[Record]
	model   *render.Model
	report  *render.Model // Most recent delete report, until viewed
	notices []grid.Notice
	opened  time.Time
}

func newSession(def GridDefinition) *Session {
	return &Session{def: def, model: render.NewModel(), opened: time.Now()}
}

// notify queues a notice for the next View.
func (sess *Session) notify(_ context.Context, n grid.Notice) {
	sess.notices = append(sess.notices, n)
}

// row resolves a grid index.
func (sess *Session) row(op string, index int) (*grid.Row[Record], error) {
	row, ok := sess.table.Row(index)
	if !ok {
		return nil, &grid.Error{Kind: grid.KindNotFound, Op: op, Label: fmt.Sprintf("row %d", index), Err: grid.ErrItemNotFound}
	}
	return row, nil
}

// editable resolves an editable field.
func (sess *Session) editable(op, code string) (grid.Editable[Record], error) {
	f, ok := sess.table.Field(code)
	if !ok {
		return nil, &grid.Error{Kind: grid.KindDispatch, Op: op, Field: code, Err: grid.ErrUnknownField}
	}
	ed, ok := f.Editable()
	if !ok {
		return nil, &grid.Error{Kind: grid.KindNotEditable, Op: op, Field: code, Err: grid.ErrNotEditable}
	}
	return ed, nil
}

// View is a render-ready copy of a session's state.
type View struct {
	Info        GridInfo
	State       grid.State
	Table       render.Snapshot
	Toolbar     grid.Toolbar
	Total       int
	Selected    int
	AllSelected bool
	CanCreate   bool
	Editable    bool // Some column takes input
	Query       string
	Notices     []grid.Notice
	Report      *render.Snapshot // Set once after a partially failed delete
}

// view copies the session's state and drains pending notices and report.
func (sess *Session) view(query string) View {
	v := View{
		Info:      sess.def.Info,
		State:     sess.table.State(),
		Table:     sess.model.Snapshot(query),
		Toolbar:   sess.table.Toolbar(),
		Total:     sess.table.Len(),
		Selected:  len(sess.table.SelectedItems()),
		CanCreate: sess.def.Create,
		Query:     query,
		Notices:   slices.Clone(sess.notices),
	}
	v.AllSelected = v.Total > 0 && v.Selected == v.Total
	for _, c := range sess.def.Columns {
		v.Editable = v.Editable || c.Editable || c.Creatable
	}
	if sess.report != nil {
		snap := sess.report.Snapshot("")
		v.Report = &snap
	}
	sess.notices = nil
	sess.report = nil
	return v
}
