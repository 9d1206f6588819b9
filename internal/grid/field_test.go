package grid_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/gridview/internal/grid"
)

func TestEditMode_NameScenario(t *testing.T) {
	people := samplePeople()
	tbl, model := newTestGrid(t, people)
	alice := people[1]

	f, ok := tbl.Field("name")
	require.True(t, ok)
	ed, ok := f.Editable()
	require.True(t, ok)

	require.NoError(t, ed.EnableEditMode(alice))

	cell, err := tbl.Cell(alice, "name")
	require.NoError(t, err)
	require.True(t, cell.Editing())
	assert.Equal(t, "alice", cell.Widget().Text())

	view, _ := model.Row(1)
	require.NotNil(t, view.Cells["name"].Input)
	assert.Equal(t, "alice", view.Cells["name"].Input.Text)
	inputs := 0
	for _, c := range view.Cells {
		if c.Input != nil {
			inputs++
		}
	}
	assert.Equal(t, 1, inputs, "exactly one live input in the row")

	require.NoError(t, ed.SetInput(alice, "alicia"))
	assert.Equal(t, "alicia", f.Value(alice, true))
	assert.Equal(t, "alice", f.Value(alice, false))

	require.NoError(t, ed.DisableEditMode(alice))
	assert.False(t, cell.Editing())
	view, _ = model.Row(1)
	assert.Nil(t, view.Cells["name"].Input)
	assert.Equal(t, f.Text(alice), view.Cells["name"].Text)
	assert.Equal(t, "alice", alice.Name)
}

func TestEditMode_EnableTwiceKeepsOneInput(t *testing.T) {
	people := samplePeople()
	tbl, _ := newTestGrid(t, people)
	f, _ := tbl.Field("name")

	require.NoError(t, f.EnableEditMode(people[0]))
	cell, _ := tbl.Cell(people[0], "name")
	w := cell.Widget()
	require.NoError(t, f.EnableEditMode(people[0]))
	assert.Same(t, w, cell.Widget())

	require.NoError(t, f.DisableEditMode(people[0]))
	assert.True(t, w.Disposed())
}

func TestEditMode_NotEditable(t *testing.T) {
	people := samplePeople()
	tbl, _ := newTestGrid(t, people)
	f, _ := tbl.Field("age")

	_, ok := f.Editable()
	assert.False(t, ok)

	err := f.EnableEditMode(people[0])
	require.ErrorIs(t, err, grid.ErrNotEditable)
	var gerr *grid.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, grid.KindNotEditable, gerr.Kind)
	assert.Equal(t, "age", gerr.Field)
	assert.Equal(t, "carol", gerr.Label)

	assert.ErrorIs(t, f.SetInput(people[0], "3"), grid.ErrNotEditing)
}

func TestCell_Memoized(t *testing.T) {
	people := samplePeople()
	tbl, _ := newTestGrid(t, people)

	a, err := tbl.Cell(people[0], "name")
	require.NoError(t, err)
	b, err := tbl.Cell(people[0], "name")
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = tbl.Cell(people[0], "nope")
	assert.ErrorIs(t, err, grid.ErrUnknownField)
}

func TestValidate(t *testing.T) {
	people := samplePeople()
	tbl, model := newTestGrid(t, people)
	name, _ := tbl.Field("name")
	age, _ := tbl.Field("age")

	assert.True(t, age.Validate(people[0]).Success, "non-editable fields always pass")
	assert.True(t, name.Validate(people[0]).Success)

	require.NoError(t, name.EnableEditMode(people[0]))
	require.NoError(t, name.SetInput(people[0], "   "))
	v := name.Validate(people[0])
	assert.False(t, v.Success)
	assert.Equal(t, "name is required", v.Message)

	view, _ := model.Row(0)
	assert.Equal(t, "name is required", view.Cells["name"].Invalid)
}

func TestSaveItem(t *testing.T) {
	people := samplePeople()
	tbl, model := newTestGrid(t, people)
	ev := record(tbl, grid.ItemEdited)
	ctx := context.Background()

	_, err := tbl.SaveItem(ctx, people[0])
	assert.ErrorIs(t, err, grid.ErrNotEditing)

	require.NoError(t, tbl.EnableEditMode(people[0]))
	name, _ := tbl.Field("name")
	require.NoError(t, name.SetInput(people[0], ""))

	v, err := tbl.SaveItem(ctx, people[0])
	require.NoError(t, err)
	assert.False(t, v.Success)
	assert.Contains(t, v.Message, "required")
	assert.Equal(t, "carol", people[0].Name, "invalid input is never written back")

	require.NoError(t, name.SetInput(people[0], "aaron"))
	v, err = tbl.SaveItem(ctx, people[0])
	require.NoError(t, err)
	assert.True(t, v.Success)
	assert.Equal(t, "aaron", people[0].Name)

	row, _ := tbl.RowOf(people[0])
	assert.False(t, row.Editing())
	assert.Equal(t, []string{"aaron", "alice", "bob"}, displayed(model))
	assert.Equal(t, 1, ev.count(grid.ItemEdited))
}

func TestSaveItem_FailedWriteRestoresRecord(t *testing.T) {
	people := samplePeople()
	tbl, model := newTestGrid(t, people, func(p *grid.Params[*person]) {
		p.Fields = append(p.Fields, grid.FieldSpec[*person]{
			Code:     "team",
			Title:    "Team",
			Editable: true,
			Value:    func(p *person) any { return p.Team },
			Set:      func(*person, any) error { return errors.New("team is read-only in store") },
		})
	})
	ev := record(tbl, grid.ItemEdited)
	ctx := context.Background()
	carol := people[0]

	require.NoError(t, tbl.EnableEditMode(carol))
	name, _ := tbl.Field("name")
	require.NoError(t, name.SetInput(carol, "zed"))

	v, err := tbl.SaveItem(ctx, carol)
	require.NoError(t, err)
	assert.False(t, v.Success)
	assert.Equal(t, "Team: team is read-only in store", v.Message)
	assert.Equal(t, "carol", carol.Name, "earlier writes are undone")
	assert.Equal(t, 0, ev.count(grid.ItemEdited))

	row, _ := tbl.RowOf(carol)
	assert.True(t, row.Editing(), "inputs stay open after a failed write")
	assert.Equal(t, "zed", name.Value(carol, true))

	require.NoError(t, tbl.DisableEditMode(carol))
	assert.Equal(t, "carol", carol.Name)
	view, _ := model.Row(0)
	assert.Equal(t, "carol", view.Cells["name"].Text)
}

func TestCreateItem_Draft(t *testing.T) {
	people := samplePeople()
	tbl, model := newTestGrid(t, people)
	ev := record(tbl, grid.ItemCreated)
	ctx := context.Background()

	draft := &person{ID: 10}
	row, err := tbl.CreateItem(draft)
	require.NoError(t, err)
	assert.True(t, row.Draft())
	assert.True(t, row.Editing())
	assert.Equal(t, 0, ev.count(grid.ItemCreated))

	name, _ := tbl.Field("name")
	require.NoError(t, name.SetInput(draft, "dana"))
	v, err := tbl.SaveItem(ctx, draft)
	require.NoError(t, err)
	require.True(t, v.Success)
	assert.False(t, row.Draft())
	assert.Equal(t, 1, ev.count(grid.ItemCreated))
	assert.Contains(t, displayed(model), "dana")

	discarded := &person{ID: 11}
	_, err = tbl.CreateItem(discarded)
	require.NoError(t, err)
	require.NoError(t, tbl.DisableEditMode(discarded))
	_, ok := tbl.Index(discarded)
	assert.False(t, ok, "canceling a draft removes it")
}

func TestCreatableField(t *testing.T) {
	people := samplePeople()
	tbl, _ := newTestGrid(t, people, func(p *grid.Params[*person]) {
		p.Fields = append(p.Fields, grid.FieldSpec[*person]{
			Code:      "team",
			Creatable: true,
			Value:     func(p *person) any { return p.Team },
			Set: func(p *person, v any) error {
				p.Team = fmt.Sprint(v)
				return nil
			},
		})
	})
	team, _ := tbl.Field("team")

	assert.ErrorIs(t, team.EnableEditMode(people[0]), grid.ErrNotEditable, "creatable fields edit drafts only")

	draft := &person{ID: 12}
	_, err := tbl.CreateItem(draft)
	require.NoError(t, err)
	cell, _ := tbl.Cell(draft, "team")
	assert.True(t, cell.Editing())
}

func TestIsClickable_FallbackChain(t *testing.T) {
	yes, no := true, false
	isBob := func(p *person) bool { return p.Name == "bob" }
	isCarol := func(p *person) bool { return p.Name == "carol" }

	tests := []struct {
		name      string
		field     grid.FieldSpec[*person]
		table     func(p *grid.Params[*person])
		wantCarol bool
		wantBob   bool
	}{
		{"nothing declared", grid.FieldSpec[*person]{}, nil, false, false},
		{"table flag", grid.FieldSpec[*person]{}, func(p *grid.Params[*person]) { p.Clickable = &yes }, true, true},
		{"table func", grid.FieldSpec[*person]{}, func(p *grid.Params[*person]) { p.ClickableFunc = isBob }, false, true},
		{"table flag beats table func", grid.FieldSpec[*person]{}, func(p *grid.Params[*person]) {
			p.Clickable = &no
			p.ClickableFunc = isBob
		}, false, false},
		{"field func beats table", grid.FieldSpec[*person]{ClickableFunc: isCarol}, func(p *grid.Params[*person]) { p.Clickable = &yes }, true, false},
		{"field flag beats everything", grid.FieldSpec[*person]{Clickable: &no, ClickableFunc: isCarol}, func(p *grid.Params[*person]) { p.Clickable = &yes }, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			people := samplePeople()
			spec := tt.field
			spec.Code = "link"
			spec.Value = func(p *person) any { return p.ID }
			tbl, _ := newTestGrid(t, people, func(p *grid.Params[*person]) {
				p.Fields = append(p.Fields, spec)
				if tt.table != nil {
					tt.table(p)
				}
			})
			f, _ := tbl.Field("link")
			assert.Equal(t, tt.wantCarol, f.IsClickable(people[0]), "carol")
			assert.Equal(t, tt.wantBob, f.IsClickable(people[2]), "bob")
		})
	}
}

func TestField_OrderAndSearchDefaultToText(t *testing.T) {
	people := samplePeople()
	tbl, _ := newTestGrid(t, people, func(p *grid.Params[*person]) {
		p.Fields = append(p.Fields, grid.FieldSpec[*person]{
			Code:   "label",
			Value:  func(p *person) any { return p.Name },
			Format: func(v any, p *person) string { return fmt.Sprintf("%s (%d)", v, p.Age) },
		})
	})
	f, _ := tbl.Field("label")

	assert.Equal(t, "carol (41)", f.Text(people[0]))
	assert.Equal(t, "carol (41)", f.OrderValue(people[0]))
	assert.Equal(t, "carol (41)", f.SearchValue(people[0]))

	age, _ := tbl.Field("age")
	assert.Equal(t, 41, age.OrderValue(people[0]))
}

func TestField_NoSearch(t *testing.T) {
	people := samplePeople()
	tbl, model := newTestGrid(t, people, func(p *grid.Params[*person]) {
		p.Fields = append(p.Fields, grid.FieldSpec[*person]{
			Code:     "team",
			Title:    "Team",
			Value:    func(p *person) any { return p.Team },
			NoSearch: true,
		})
	})
	f, _ := tbl.Field("team")
	assert.Equal(t, "", f.SearchValue(people[0]))
	assert.Equal(t, "ops", f.Text(people[0]))

	for _, c := range model.Columns() {
		if c.Code == "team" {
			assert.False(t, c.Searchable)
		}
	}
	view, _ := model.Row(0)
	assert.Equal(t, "", view.Cells["team"].Search)
	assert.Equal(t, "ops", view.Cells["team"].Text)

	assert.Empty(t, model.Filter("ops"))
	assert.Len(t, model.Filter("carol"), 1)
}

func TestField_Links(t *testing.T) {
	people := samplePeople()
	tbl, _ := newTestGrid(t, people, func(p *grid.Params[*person]) {
		p.RecordLink = func(p *person) string { return fmt.Sprintf("/people/%d", p.ID) }
		p.Fields = append(p.Fields,
			grid.FieldSpec[*person]{Code: "profile", Value: func(p *person) any { return "view" }, LinkToRecord: true},
			grid.FieldSpec[*person]{Code: "team", Value: func(p *person) any { return p.Team }, Link: func(p *person) string { return "/teams/" + p.Team }},
		)
	})

	profile, _ := tbl.Field("profile")
	l, ok := profile.Linkable()
	require.True(t, ok)
	assert.Equal(t, "/people/1", l.Href(people[0]))

	team, _ := tbl.Field("team")
	assert.Equal(t, "/teams/dev", team.Href(people[1]))

	name, _ := tbl.Field("name")
	_, ok = name.Linkable()
	assert.False(t, ok)
	assert.Empty(t, name.Href(people[0]))
}

type doc struct {
	vals map[string]any
}

func (d *doc) Attr(name string) any { return d.vals[name] }

func (d *doc) SetAttr(name string, v any) error {
	if name == "locked" {
		return errors.New("locked is read-only")
	}
	d.vals[name] = v
	return nil
}

func TestField_Attributes(t *testing.T) {
	d := &doc{vals: map[string]any{
		"title": "draft plan",
		"meta":  json.RawMessage(`{"pages": 3}`),
	}}
	tbl, err := grid.Open(context.Background(), grid.Params[*doc]{
		Items: []*doc{d},
		Fields: []grid.FieldSpec[*doc]{
			{Code: "title", Editable: true},
			{Code: "pages", Attr: "meta", API: true, FromJSON: func(raw []byte) (any, error) {
				var m struct{ Pages int }
				if err := json.Unmarshal(raw, &m); err != nil {
					return nil, err
				}
				return m.Pages, nil
			}},
		},
		Logger: discard,
	})
	require.NoError(t, err)

	title, _ := tbl.Field("title")
	assert.Equal(t, "draft plan", title.Value(d, false))
	pages, _ := tbl.Field("pages")
	assert.Equal(t, 3, pages.Value(d, false))

	require.NoError(t, tbl.EnableEditMode(d))
	require.NoError(t, title.SetInput(d, "final plan"))
	v, err := tbl.SaveItem(context.Background(), d)
	require.NoError(t, err)
	require.True(t, v.Success)
	assert.Equal(t, "final plan", d.vals["title"])
}
