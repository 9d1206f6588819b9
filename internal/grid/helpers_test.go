package grid_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/gridview/internal/form"
	"github.com/JonMunkholm/gridview/internal/grid"
	"github.com/JonMunkholm/gridview/internal/render"
)

type person struct {
	ID   int
	Name string
	Age  int
	Team string
}

func samplePeople() []*person {
	return []*person{
		{ID: 1, Name: "carol", Age: 41, Team: "ops"},
		{ID: 2, Name: "alice", Age: 29, Team: "dev"},
		{ID: 3, Name: "bob", Age: 35, Team: "dev"},
	}
}

func personFields() []grid.FieldSpec[*person] {
	return []grid.FieldSpec[*person]{
		{
			Code:     "name",
			Title:    "Name",
			Editable: true,
			Value:    func(p *person) any { return p.Name },
			Set: func(p *person, v any) error {
				s, _ := v.(string)
				p.Name = s
				return nil
			},
			Validate: func(v any, _ *person) error {
				if v == nil {
					return errors.New("name is required")
				}
				return nil
			},
		},
		{
			Code:  "age",
			Title: "Age",
			Input: form.Numeric,
			Value: func(p *person) any { return p.Age },
			Order: func(p *person) any { return p.Age },
		},
	}
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// newTestGrid builds a ready grid over people backed by a render.Model.
func newTestGrid(t *testing.T, people []*person, configure ...func(*grid.Params[*person])) (*grid.Datatable[*person], *render.Model) {
	t.Helper()
	model := render.NewModel()
	p := grid.Params[*person]{
		Code:    "people",
		Items:   people,
		Fields:  personFields(),
		Label:   func(p *person) string { return p.Name },
		Adapter: model,
		Logger:  discard,
	}
	for _, fn := range configure {
		fn(&p)
	}
	tbl, err := grid.Open(context.Background(), p)
	require.NoError(t, err)
	return tbl, model
}

func names(people []*person) []string {
	out := make([]string, len(people))
	for i, p := range people {
		out[i] = p.Name
	}
	return out
}

// displayed returns the name column in display order.
func displayed(m *render.Model) []string {
	var out []string
	for _, r := range m.Rows() {
		out = append(out, r.Cells["name"].Text)
	}
	return out
}

// recorder collects events by kind.
type recorder struct {
	events map[grid.EventKind][][]*person
}

func record(tbl *grid.Datatable[*person], kinds ...grid.EventKind) *recorder {
	r := &recorder{events: make(map[grid.EventKind][][]*person)}
	for _, k := range kinds {
		tbl.Subscribe(k, func(e *grid.Event[*person]) {
			r.events[e.Kind] = append(r.events[e.Kind], e.Items)
		})
	}
	return r
}

func (r *recorder) count(k grid.EventKind) int { return len(r.events[k]) }
