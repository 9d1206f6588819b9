package grid_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/gridview/internal/grid"
)

func TestSubscribe_StopPropagationAndUnsubscribe(t *testing.T) {
	people := samplePeople()
	tbl, _ := newTestGrid(t, people)

	var seen []string
	stopFirst := true
	unsubFirst := tbl.Subscribe(grid.SelectItem, func(e *grid.Event[*person]) {
		seen = append(seen, "first:"+e.Items[0].Name)
		if stopFirst {
			e.StopPropagation()
		}
	})
	tbl.Subscribe(grid.SelectItem, func(e *grid.Event[*person]) {
		seen = append(seen, "second:"+e.Items[0].Name)
	})

	require.NoError(t, tbl.SelectItem(people[0]))
	stopFirst = false
	require.NoError(t, tbl.SelectItem(people[1]))
	unsubFirst()
	require.NoError(t, tbl.SelectItem(people[2]))

	assert.Equal(t, []string{"first:carol", "first:alice", "second:alice", "second:bob"}, seen)
}

func TestEvent_CancelOnlyWhenCancelable(t *testing.T) {
	e := &grid.Event[*person]{Kind: grid.ItemCreated}
	e.Cancel()
	assert.False(t, e.Canceled())

	e = &grid.Event[*person]{Kind: grid.BeforeDelete, Cancelable: true}
	e.Cancel()
	assert.True(t, e.Canceled())
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "item-created", grid.ItemCreated.String())
	assert.Equal(t, "unselect-all", grid.UnselectAll.String())
	assert.Equal(t, "unknown", grid.EventKind(99).String())
}

func TestNormalizeOutcome(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want grid.Outcome
	}{
		{"nil", nil, grid.Outcome{Success: true}},
		{"true", true, grid.Outcome{Success: true}},
		{"false", false, grid.Outcome{Success: false}},
		{"message", "done", grid.Outcome{Success: true, Message: "done"}},
		{"error", errors.New("nope"), grid.Outcome{Success: false, Message: "nope"}},
		{"outcome", grid.Failed("bad"), grid.Outcome{Success: false, Message: "bad"}},
		{"outcome pointer", &grid.Outcome{Success: true, Href: "/x"}, grid.Outcome{Success: true, Href: "/x"}},
		{"nil outcome pointer", (*grid.Outcome)(nil), grid.Outcome{Success: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := grid.NormalizeOutcome(tt.in); got != tt.want {
				t.Errorf("NormalizeOutcome(%v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
