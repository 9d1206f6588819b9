package web

import (
	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/form"
	"github.com/JonMunkholm/gridview/internal/grid"
	"github.com/JonMunkholm/gridview/internal/render"
)

// gridJSON is the API shape of a core.View.
type gridJSON struct {
	Grid        core.GridInfo  `json:"grid"`
	State       string         `json:"state"`
	Total       int            `json:"total"`
	Selected    int            `json:"selected"`
	AllSelected bool           `json:"all_selected"`
	CanCreate   bool           `json:"can_create"`
	Query       string         `json:"query,omitempty"`
	Columns     []columnJSON   `json:"columns"`
	Rows        []rowJSON      `json:"rows"`
	Order       []grid.SortKey `json:"order"`
	RowActions  []actionJSON   `json:"row_actions,omitempty"`
	Actions     []actionJSON   `json:"table_actions,omitempty"`
	Notices     []noticeJSON   `json:"notices,omitempty"`
	Report      []rowJSON      `json:"report,omitempty"`
}

type columnJSON struct {
	Code       string `json:"code"`
	Title      string `json:"title"`
	Type       string `json:"type"`
	Orderable  bool   `json:"orderable"`
	Searchable bool   `json:"searchable"`
}

type rowJSON struct {
	Index      int                 `json:"index"`
	ID         string              `json:"id,omitempty"`
	Selected   bool                `json:"selected,omitempty"`
	Selectable bool                `json:"selectable,omitempty"`
	Editing    bool                `json:"editing,omitempty"`
	Pinned     bool                `json:"pinned,omitempty"`
	Cells      map[string]cellJSON `json:"cells"`
	Buttons    []actionJSON        `json:"buttons,omitempty"`
}

type cellJSON struct {
	Text      string     `json:"text"`
	Href      string     `json:"href,omitempty"`
	Clickable bool       `json:"clickable,omitempty"`
	Input     *inputJSON `json:"input,omitempty"`
	Invalid   string     `json:"invalid,omitempty"`
}

type inputJSON struct {
	Type    string        `json:"type"`
	Text    string        `json:"text"`
	Options []form.Option `json:"options,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type actionJSON struct {
	Code    string `json:"code"`
	Label   string `json:"label"`
	Icon    string `json:"icon,omitempty"`
	Enabled bool   `json:"enabled"`
}

type noticeJSON struct {
	Source  string `json:"source,omitempty"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func newGridJSON(v core.View) gridJSON {
	out := gridJSON{
		Grid:        v.Info,
		State:       v.State.String(),
		Total:       v.Total,
		Selected:    v.Selected,
		AllSelected: v.AllSelected,
		CanCreate:   v.CanCreate,
		Query:       v.Query,
		Rows:        rowsJSON(v.Table),
		Order:       v.Table.Ordering.Keys,
	}
	for _, c := range v.Table.Columns {
		out.Columns = append(out.Columns, columnJSON{
			Code:       c.Code,
			Title:      c.Title,
			Type:       c.Input.String(),
			Orderable:  c.Orderable,
			Searchable: c.Searchable,
		})
	}
	for _, a := range v.Toolbar.RowActions {
		out.RowActions = append(out.RowActions, actionJSON(a))
	}
	for _, a := range v.Toolbar.TableActions {
		out.Actions = append(out.Actions, actionJSON(a))
	}
	for _, n := range v.Notices {
		out.Notices = append(out.Notices, noticeJSON{Source: n.Source, Success: n.Outcome.Success, Message: n.Outcome.Message})
	}
	if v.Report != nil {
		out.Report = rowsJSON(*v.Report)
	}
	return out
}

func rowsJSON(snap render.Snapshot) []rowJSON {
	rows := make([]rowJSON, 0, len(snap.Rows))
	for _, r := range snap.Rows {
		row := rowJSON{
			Index:      r.Index,
			ID:         r.ID,
			Selected:   r.Selected,
			Selectable: r.Selectable,
			Editing:    r.Editing,
			Pinned:     r.Pinned,
			Cells:      make(map[string]cellJSON, len(r.Cells)),
		}
		for code, c := range r.Cells {
			cell := cellJSON{Text: c.Text, Href: c.Href, Clickable: c.Clickable, Invalid: c.Invalid}
			if c.Input != nil {
				cell.Input = &inputJSON{Type: c.Input.Type.String(), Text: c.Input.Text, Options: c.Input.Options, Error: c.Input.Error}
			}
			row.Cells[code] = cell
		}
		for _, b := range r.Buttons {
			row.Buttons = append(row.Buttons, actionJSON{Code: b.Code, Label: b.Label, Icon: b.Icon, Enabled: b.Enabled})
		}
		rows = append(rows, row)
	}
	return rows
}
