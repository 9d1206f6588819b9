package grid_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/gridview/internal/grid"
)

func TestHandleClick(t *testing.T) {
	ctx := context.Background()
	people := samplePeople()
	var notices []grid.Notice
	var archived []string

	tbl, model := newTestGrid(t, people, func(p *grid.Params[*person]) {
		p.Notifier = grid.NotifierFunc(func(_ context.Context, n grid.Notice) { notices = append(notices, n) })
		p.RowButtons = []grid.RowButtonSpec[*person]{{
			Code:    "greet",
			Label:   grid.Dynamic(func(p *person) string { return "Greet " + p.Name }),
			Enabled: grid.Dynamic(func(p *person) bool { return p.Name != "bob" }),
			Handler: func(_ context.Context, items []*person) (string, error) {
				return "hello " + items[0].Name, nil
			},
		}}
		p.RowActions = []grid.RowActionSpec[*person]{{
			Code: "archive",
			Handler: func(_ context.Context, items []*person) (string, error) {
				archived = append(archived, names(items)...)
				return fmt.Sprintf("%d archived", len(items)), nil
			},
		}}
		p.TableActions = []grid.TableActionSpec[*person]{{
			Code: "export",
			Handler: func(_ context.Context, items []*person) (string, error) {
				return "", errors.New("export service unavailable")
			},
		}}
		p.Fields = append(p.Fields, grid.FieldSpec[*person]{
			Code:  "profile",
			Value: func(*person) any { return "open" },
			Link:  func(p *person) string { return fmt.Sprintf("/people/%d", p.ID) },
		})
	})

	t.Run("checkbox toggles selection", func(t *testing.T) {
		out, err := tbl.HandleClick(ctx, grid.Target{Role: grid.RoleCheckbox, Row: 2})
		require.NoError(t, err)
		assert.True(t, out.Success)
		assert.Equal(t, []string{"bob"}, names(tbl.SelectedItems()))

		_, err = tbl.HandleClick(ctx, grid.Target{Role: grid.RoleCheckbox, Row: 2})
		require.NoError(t, err)
		assert.Empty(t, tbl.SelectedItems())
	})

	t.Run("select-all toggles", func(t *testing.T) {
		_, err := tbl.HandleClick(ctx, grid.Target{Role: grid.RoleSelectAll})
		require.NoError(t, err)
		assert.Len(t, tbl.SelectedItems(), 3)

		_, err = tbl.HandleClick(ctx, grid.Target{Role: grid.RoleSelectAll})
		require.NoError(t, err)
		assert.Empty(t, tbl.SelectedItems())
	})

	t.Run("row button", func(t *testing.T) {
		view, _ := model.Row(0)
		require.Len(t, view.Buttons, 1)
		assert.Equal(t, "Greet carol", view.Buttons[0].Label)

		out, err := tbl.HandleClick(ctx, grid.Target{Role: grid.RoleRowButton, Row: 0, Action: "greet"})
		require.NoError(t, err)
		assert.Equal(t, grid.Outcome{Success: true, Message: "hello carol"}, out)

		out, err = tbl.HandleClick(ctx, grid.Target{Role: grid.RoleRowButton, Row: 2, Action: "greet"})
		require.NoError(t, err)
		assert.False(t, out.Success, "disabled for bob")
	})

	t.Run("row action uses the selection", func(t *testing.T) {
		require.NoError(t, tbl.SelectItem(people[1]))
		require.NoError(t, tbl.SelectItem(people[0]))
		out, err := tbl.HandleClick(ctx, grid.Target{Role: grid.RoleRowAction, Action: "archive"})
		require.NoError(t, err)
		assert.Equal(t, "2 archived", out.Message)
		assert.Equal(t, []string{"alice", "carol"}, archived)
		tbl.UnselectAllItems()
	})

	t.Run("table action failure is an outcome", func(t *testing.T) {
		out, err := tbl.HandleClick(ctx, grid.Target{Role: grid.RoleTableAction, Action: "export"})
		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Equal(t, "export service unavailable", out.Message)
	})

	t.Run("field follow", func(t *testing.T) {
		out, err := tbl.HandleClick(ctx, grid.Target{Role: grid.RoleFieldFollow, Row: 1, Field: "profile"})
		require.NoError(t, err)
		assert.Equal(t, "/people/2", out.Href)
	})

	t.Run("field click on non-clickable field", func(t *testing.T) {
		out, err := tbl.HandleClick(ctx, grid.Target{Role: grid.RoleFieldClick, Row: 1, Field: "profile"})
		require.NoError(t, err)
		assert.False(t, out.Success)
	})

	t.Run("unknown targets", func(t *testing.T) {
		_, err := tbl.HandleClick(ctx, grid.Target{Role: "drag"})
		assert.ErrorIs(t, err, grid.ErrUnknownRole)
		_, err = tbl.HandleClick(ctx, grid.Target{Role: grid.RoleRowAction, Action: "nope"})
		assert.ErrorIs(t, err, grid.ErrUnknownAction)
		_, err = tbl.HandleClick(ctx, grid.Target{Role: grid.RoleCheckbox, Row: 42})
		assert.ErrorIs(t, err, grid.ErrItemNotFound)
		_, err = tbl.HandleClick(ctx, grid.Target{Role: grid.RoleFieldFollow, Row: 0, Field: "nope"})
		assert.ErrorIs(t, err, grid.ErrUnknownField)
	})

	assert.NotEmpty(t, notices)
}

func TestFieldClick_RunsHandler(t *testing.T) {
	people := samplePeople()
	yes := true
	var clicked []string
	tbl, _ := newTestGrid(t, people, func(p *grid.Params[*person]) {
		p.Fields = append(p.Fields, grid.FieldSpec[*person]{
			Code:      "ping",
			Value:     func(*person) any { return "ping" },
			Clickable: &yes,
			OnClick: func(_ context.Context, items []*person) (string, error) {
				clicked = append(clicked, items[0].Name)
				return "pinged", nil
			},
		})
	})

	out, err := tbl.HandleClick(context.Background(), grid.Target{Role: grid.RoleFieldClick, Row: 2, Field: "ping"})
	require.NoError(t, err)
	assert.Equal(t, "pinged", out.Message)
	assert.Equal(t, []string{"bob"}, clicked)
}

func TestRowAction_DisabledWithoutSelection(t *testing.T) {
	people := samplePeople()
	calls := 0
	var notices []grid.Notice
	tbl, _ := newTestGrid(t, people, func(p *grid.Params[*person]) {
		p.Notifier = grid.NotifierFunc(func(_ context.Context, n grid.Notice) { notices = append(notices, n) })
		p.RowActions = []grid.RowActionSpec[*person]{
			{Code: "tag", Handler: func(context.Context, []*person) (string, error) { calls++; return "", nil }},
			{Code: "hidden", Hidden: true, Handler: func(context.Context, []*person) (string, error) { calls++; return "", nil }},
		}
	})

	a, _ := tbl.RowAction("tag")
	out := a.Activate(context.Background())
	assert.False(t, out.Success)
	assert.Equal(t, 0, calls)
	require.Len(t, notices, 1)
	assert.False(t, notices[0].Outcome.Success)

	require.NoError(t, tbl.SelectItem(people[0]))
	assert.True(t, a.Enabled())
	h, _ := tbl.RowAction("hidden")
	assert.False(t, h.Enabled())

	tb := tbl.Toolbar()
	require.Len(t, tb.RowActions, 1, "hidden actions are not rendered")
	assert.True(t, tb.RowActions[0].Enabled)
}

func TestActionPanicBecomesOutcome(t *testing.T) {
	tbl, _ := newTestGrid(t, samplePeople(), func(p *grid.Params[*person]) {
		p.TableActions = []grid.TableActionSpec[*person]{{
			Code:    "explode",
			Handler: func(context.Context, []*person) (string, error) { panic("kaboom") },
		}}
	})

	a, ok := tbl.TableAction("explode")
	require.True(t, ok)
	out := a.Activate(context.Background())
	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "kaboom")
}
