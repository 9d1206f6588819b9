// Package templates holds the page and fragment components of the web UI.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/render/html"
)

// GridGroup is one dashboard section.
type GridGroup struct {
	Name  string
	Grids []core.GridInfo
}

// SidebarParams controls the navigation sidebar.
type SidebarParams struct {
	Groups []GridGroup
	Active string // Key of the grid being shown
}

func write(w io.Writer, parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(w, p); err != nil {
			return err
		}
	}
	return nil
}

var esc = templ.EscapeString[string]

// layout wraps body in the page shell.
func layout(title string, sidebar SidebarParams, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			"<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\">",
			"<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">",
			"<title>", esc(title), " - gridview</title>",
			"<link rel=\"stylesheet\" href=\"/static/grid.css\">",
			"<script src=\"/static/grid.js\" defer></script>",
			"</head><body><nav class=\"sidebar\"><a class=\"brand\" href=\"/\">gridview</a>",
		); err != nil {
			return err
		}
		for _, g := range sidebar.Groups {
			if err := write(w, "<h4>", esc(g.Name), "</h4><ul>"); err != nil {
				return err
			}
			for _, info := range g.Grids {
				class := ""
				if info.Key == sidebar.Active {
					class = " class=\"active\""
				}
				if err := write(w, "<li", class, "><a href=\"/grid/", esc(info.Key), "\">", esc(info.Label), "</a></li>"); err != nil {
					return err
				}
			}
			if err := write(w, "</ul>"); err != nil {
				return err
			}
		}
		if err := write(w, "</nav><main>"); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		return write(w, "</main></body></html>")
	})
}

// Dashboard lists every registered grid by group.
func Dashboard(groups []GridGroup) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, "<h1>Grids</h1>"); err != nil {
			return err
		}
		if len(groups) == 0 {
			return write(w, "<p class=\"empty\">No grids are configured.</p>")
		}
		for _, g := range groups {
			if err := write(w, "<section class=\"group\"><h2>", esc(g.Name), "</h2><div class=\"cards\">"); err != nil {
				return err
			}
			for _, info := range g.Grids {
				if err := write(w,
					"<a class=\"card\" href=\"/grid/", esc(info.Key), "\"><strong>", esc(info.Label),
					"</strong><span>", esc(info.Key), "</span></a>",
				); err != nil {
					return err
				}
			}
			if err := write(w, "</div></section>"); err != nil {
				return err
			}
		}
		return nil
	})
	return layout("Grids", SidebarParams{Groups: groups}, body)
}

// GridPage is the full page for one grid.
func GridPage(sidebar SidebarParams, v core.View) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w,
			"<header class=\"grid-header\"><h1>", esc(v.Info.Label), "</h1>",
			"<input type=\"search\" name=\"q\" placeholder=\"Search\" data-op=\"search\" value=\"", esc(v.Query), "\">",
		); err != nil {
			return err
		}
		if v.CanCreate {
			if err := write(w, "<button type=\"button\" data-op=\"create\">New row</button>"); err != nil {
				return err
			}
		}
		if err := write(w, "<a class=\"export\" href=\"/grid/", esc(v.Info.Key), "/export.csv\">Export CSV</a></header>"); err != nil {
			return err
		}
		return GridPartial(v).Render(ctx, w)
	})
	sidebar.Active = v.Info.Key
	return layout(v.Info.Label, sidebar, body)
}

// GridPartial is the part of a grid page that is swapped after every
// operation: notices, toolbar, table and the last delete report.
func GridPartial(v core.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, "<div class=\"grid-root\" data-grid=\"", esc(v.Info.Key), "\" data-state=\"", esc(v.State.String()), "\">"); err != nil {
			return err
		}
		if err := Notices(v).Render(ctx, w); err != nil {
			return err
		}
		if err := html.ToolbarComponent(v.Info.Key, v.Toolbar, v.Selected).Render(ctx, w); err != nil {
			return err
		}
		table := html.Table{
			Grid:        v.Info.Key,
			Snapshot:    v.Table,
			AllSelected: v.AllSelected,
			Editable:    v.Editable,
			Pinnable:    true,
		}
		if err := html.TableComponent(table).Render(ctx, w); err != nil {
			return err
		}
		if err := write(w, "<p class=\"grid-count\">", esc(fmt.Sprintf("%d of %d rows", len(v.Table.Rows), v.Total)), "</p>"); err != nil {
			return err
		}
		if v.Report != nil {
			if err := html.ReportComponent("Delete report", *v.Report).Render(ctx, w); err != nil {
				return err
			}
		}
		return write(w, "</div>")
	})
}

// Notices renders the outcomes queued since the last view.
func Notices(v core.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(v.Notices) == 0 {
			return nil
		}
		if err := write(w, "<div class=\"notices\">"); err != nil {
			return err
		}
		for _, n := range v.Notices {
			if n.Outcome.Message == "" {
				continue
			}
			class := "notice success"
			if !n.Outcome.Success {
				class = "notice error"
			}
			if err := write(w, "<div class=\"", class, "\" role=\"status\">", esc(n.Outcome.Message), "</div>"); err != nil {
				return err
			}
		}
		return write(w, "</div>")
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := write(w, "<div class=\"alert error\" role=\"alert\"><p>", esc(message), "</p>"); err != nil {
			return err
		}
		if action != "" {
			if err := write(w, "<p class=\"action\">", esc(action), "</p>"); err != nil {
				return err
			}
		}
		return write(w, "<small>Error code: ", esc(code), "</small></div>")
	})
}
