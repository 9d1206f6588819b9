package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/gridview/internal/form"
	"github.com/JonMunkholm/gridview/internal/grid"
	"github.com/JonMunkholm/gridview/internal/store"
)

// fakeDB answers the statements a grid session runs. It is shared by the
// goroutines of a batch delete.
type fakeDB struct {
	mu       sync.Mutex
	rows     [][]any
	execs    []string
	args     [][]interface{}
	queries  int
	returned any
	failKeys map[any]bool // Deletes of these keys affect no rows
	execErr  error
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.execs = append(db.execs, sql)
	db.args = append(db.args, args)
	if db.execErr != nil {
		return pgconn.CommandTag{}, db.execErr
	}
	if len(args) > 0 && db.failKeys[args[len(args)-1]] {
		return pgconn.NewCommandTag("DELETE 0"), nil
	}
	return pgconn.NewCommandTag("DELETE 1"), nil
}

func (db *fakeDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.queries++
	return &fakeRows{rows: db.rows, pos: -1}, nil
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.execs = append(db.execs, sql)
	db.args = append(db.args, args)
	return fakeRow{v: db.returned}
}

func (db *fakeDB) statements() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]string(nil), db.execs...)
}

type fakeRow struct{ v any }

func (r fakeRow) Scan(dest ...any) error {
	*dest[0].(*any) = r.v
	return nil
}

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Next() bool                                   { r.pos++; return r.pos < len(r.rows) }
func (r *fakeRows) Scan(...any) error                            { return errors.New("not supported") }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.pos], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func customersGrid() GridDefinition {
	return GridDefinition{
		Info:        GridInfo{Key: "customers", Group: "Sales", Label: "Customers"},
		Table:       "customers",
		KeyColumn:   "id",
		LabelColumn: "name",
		Columns: []ColumnDef{
			{Name: "id", Label: "ID", Type: form.Numeric},
			{Name: "name", Label: "Name", Type: form.Text, Editable: true, Required: true},
			{Name: "region", Type: form.Text, Creatable: true},
		},
		Order:  []grid.SortKey{{Field: "name", Dir: grid.Asc}},
		Delete: true,
		Create: true,
	}
}

func newTestService(t *testing.T) (*Service, *fakeDB) {
	t.Helper()
	Clear()
	t.Cleanup(Clear)
	Register(customersGrid())

	db := &fakeDB{rows: [][]any{
		{int32(1), "Acme", "EU"},
		{int32(2), "Globex", "US"},
		{int32(3), "Initech", "US"},
	}}
	return NewService(db, Options{DeleteConcurrency: 2}), db
}

func cellTexts(v View, field string) []string {
	var texts []string
	for _, r := range v.Table.Rows {
		texts = append(texts, r.Cells[field].Text)
	}
	return texts
}

func TestService_ViewOpensOnce(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.View(ctx, "customers", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, db.queries, "concurrent first views share one load")

	v, err := svc.View(ctx, "customers", "")
	require.NoError(t, err)
	assert.Equal(t, grid.Ready, v.State)
	assert.Equal(t, 3, v.Total)
	assert.Equal(t, []string{"Acme", "Globex", "Initech"}, cellTexts(v, "name"))
	assert.True(t, v.CanCreate)
	require.Len(t, v.Toolbar.RowActions, 1)
	assert.Equal(t, grid.DeleteActionCode, v.Toolbar.RowActions[0].Code)

	v, err = svc.View(ctx, "customers", "glob")
	require.NoError(t, err)
	assert.Equal(t, []string{"Globex"}, cellTexts(v, "name"))
}

func TestService_UnknownGrid(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.View(context.Background(), "nope", "")
	assert.ErrorIs(t, err, ErrUnknownGrid)
	assert.Equal(t, "GRD010", MapError(err).Code)
}

func TestService_EditAndSave(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Edit(ctx, "customers", 1))

	v, err := svc.Input(ctx, "customers", 1, "name", "")
	require.NoError(t, err)
	assert.False(t, v.Success, "name is required")

	v, err = svc.Input(ctx, "customers", 1, "name", "Globex Corp")
	require.NoError(t, err)
	assert.True(t, v.Success)

	_, err = svc.Input(ctx, "customers", 1, "region", "EU")
	assert.ErrorIs(t, err, grid.ErrNotEditing, "region is editable only on new rows")

	v, err = svc.Save(ctx, "customers", 1)
	require.NoError(t, err)
	assert.True(t, v.Success)

	stmts := db.statements()
	require.Len(t, stmts, 1)
	assert.Equal(t, `UPDATE "customers" SET "name" = $1 WHERE "id" = $2`, stmts[0])
	assert.Equal(t, []interface{}{"Globex Corp", int64(2)}, db.args[0])

	view, err := svc.View(ctx, "customers", "")
	require.NoError(t, err)
	assert.Contains(t, cellTexts(view, "name"), "Globex Corp")
}

func TestService_SaveFailureRevertsRow(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Edit(ctx, "customers", 0))
	_, err := svc.Input(ctx, "customers", 0, "name", "Acme Ltd")
	require.NoError(t, err)

	db.execErr = errors.New(`duplicate key value violates unique constraint "customers_name_key"`)
	_, err = svc.Save(ctx, "customers", 0)
	require.Error(t, err)
	assert.Equal(t, "DB001", MapError(err).Code)

	view, err := svc.View(ctx, "customers", "")
	require.NoError(t, err)
	assert.Contains(t, cellTexts(view, "name"), "Acme")
	assert.NotContains(t, cellTexts(view, "name"), "Acme Ltd")
}

func TestService_CreateInsertsDraft(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	db.returned = int32(4)

	index, err := svc.Create(ctx, "customers")
	require.NoError(t, err)
	assert.Equal(t, 3, index)

	_, err = svc.Input(ctx, "customers", index, "name", "Hooli")
	require.NoError(t, err)
	_, err = svc.Input(ctx, "customers", index, "region", "US")
	require.NoError(t, err)

	v, err := svc.Save(ctx, "customers", index)
	require.NoError(t, err)
	assert.True(t, v.Success)

	stmts := db.statements()
	require.Len(t, stmts, 1)
	assert.Equal(t, `INSERT INTO "customers" ("name", "region") VALUES ($1, $2) RETURNING "id"`, stmts[0])

	view, err := svc.View(ctx, "customers", "")
	require.NoError(t, err)
	assert.Equal(t, 4, view.Total)
	assert.Contains(t, cellTexts(view, "id"), "4")
}

func TestService_CancelDiscardsDraft(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	index, err := svc.Create(ctx, "customers")
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, "customers", index))

	view, err := svc.View(ctx, "customers", "")
	require.NoError(t, err)
	assert.Equal(t, 3, view.Total)

	err = svc.Edit(ctx, "customers", index)
	assert.ErrorIs(t, err, grid.ErrItemNotFound)
}

func TestService_DeleteReportsEachRow(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	db.failKeys = map[any]bool{int64(2): true}

	sum, err := svc.Delete(ctx, "customers", []int{0, 1})
	require.NoError(t, err)
	assert.False(t, sum.Success)
	assert.NotEmpty(t, sum.BatchID)
	require.Len(t, sum.Entries, 2)
	assert.Equal(t, "Acme", sum.Entries[0].Label)
	assert.True(t, sum.Entries[0].Success)
	assert.Equal(t, "Globex", sum.Entries[1].Label)
	assert.False(t, sum.Entries[1].Success)

	view, err := svc.View(ctx, "customers", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Globex", "Initech"}, cellTexts(view, "name"))
	require.NotNil(t, view.Report, "a partial failure leaves a report")
	assert.Len(t, view.Report.Rows, 2)
	assert.NotEmpty(t, view.Notices)

	view, err = svc.View(ctx, "customers", "")
	require.NoError(t, err)
	assert.Nil(t, view.Report, "the report is shown once")
	assert.Empty(t, view.Notices)
}

func TestService_DeleteUnknownRow(t *testing.T) {
	svc, db := newTestService(t)
	_, err := svc.Delete(context.Background(), "customers", []int{0, 42})
	assert.ErrorIs(t, err, grid.ErrItemNotFound)
	assert.Empty(t, db.statements(), "nothing is deleted when a row is missing")
}

func TestService_ClickDeletesSelection(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	_, err := svc.Click(ctx, "customers", grid.Target{Role: grid.RoleCheckbox, Row: 2})
	require.NoError(t, err)

	v, err := svc.View(ctx, "customers", "")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Selected)

	out, err := svc.Click(ctx, "customers", grid.Target{Role: grid.RoleRowAction, Action: grid.DeleteActionCode})
	require.NoError(t, err)
	assert.True(t, out.Success)

	stmts := db.statements()
	require.Len(t, stmts, 1)
	assert.True(t, strings.HasPrefix(stmts[0], `DELETE FROM "customers"`))

	v, err = svc.View(ctx, "customers", "")
	require.NoError(t, err)
	assert.Equal(t, 2, v.Total)
	assert.Zero(t, v.Selected)
}

func TestService_PinAndOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Order(ctx, "customers", []grid.SortKey{{Field: "name", Dir: grid.Desc}}))
	v, err := svc.View(ctx, "customers", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Initech", "Globex", "Acme"}, cellTexts(v, "name"))

	dir, ok := v.Table.Direction("name")
	assert.True(t, ok)
	assert.Equal(t, grid.Desc, dir)

	require.NoError(t, svc.Pin(ctx, "customers", 0, true))
	v, err = svc.View(ctx, "customers", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Initech", "Globex"}, cellTexts(v, "name"))

	require.NoError(t, svc.Pin(ctx, "customers", 0, false))
	v, err = svc.View(ctx, "customers", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Initech", "Globex", "Acme"}, cellTexts(v, "name"))

	err = svc.Order(ctx, "customers", []grid.SortKey{{Field: "missing"}})
	assert.ErrorIs(t, err, grid.ErrUnknownField)
}

func TestService_ReloadReadsAgain(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	_, err := svc.View(ctx, "customers", "")
	require.NoError(t, err)
	svc.Reload("customers")
	_, err = svc.View(ctx, "customers", "")
	require.NoError(t, err)
	assert.Equal(t, 2, db.queries)
}

func TestService_ListGrids(t *testing.T) {
	svc, _ := newTestService(t)
	infos := svc.ListGrids()
	require.Len(t, infos, 1)
	assert.Equal(t, "Customers", infos[0].Label)
	assert.Equal(t, map[string][]GridInfo{"Sales": infos}, svc.ListGridsByGroup())
}

func TestExpandLink(t *testing.T) {
	got := expandLink("/customers/{key}/name/{value}", int64(7), "A/B Co")
	assert.Equal(t, "/customers/7/name/A%2FB%20Co", got)
}

func TestRecordLabel(t *testing.T) {
	def := customersGrid()
	tests := []struct {
		name   string
		values map[string]any
		want   string
	}{
		{"label column", map[string]any{"id": int64(1), "name": "Acme"}, "Acme"},
		{"falls back to key", map[string]any{"id": int64(1)}, "id 1"},
		{"new row", nil, "new row"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := store.NewRecord(def.KeyColumn, tt.values)
			assert.Equal(t, tt.want, recordLabel(def, rec))
		})
	}
}

func TestService_CreateDisabled(t *testing.T) {
	Clear()
	t.Cleanup(Clear)
	def := customersGrid()
	def.Create = false
	Register(def)

	svc := NewService(&fakeDB{}, Options{})
	_, err := svc.Create(context.Background(), "customers")
	assert.ErrorIs(t, err, grid.ErrNotEditable)
}
