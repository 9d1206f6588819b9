// Package store reads and writes the database rows grids display.
//
// A grid definition names a table, its key column and the columns shown;
// store turns that into SQL against any DBTX (a pool or a transaction).
// Identifiers come from configuration, never from requests, and are
// still quoted everywhere.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/gridview/internal/form"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// ErrNoRows is returned when a keyed statement matched nothing.
var ErrNoRows = errors.New("no rows affected")

// Table describes the slice of a database table a grid works on.
type Table struct {
	Name    string
	Key     string   // Primary key column
	Columns []string // Loaded columns; Key is added when missing
}

// columns returns the key followed by the other loaded columns.
func (t Table) columns() []string {
	cols := []string{t.Key}
	for _, c := range t.Columns {
		if c != t.Key {
			cols = append(cols, c)
		}
	}
	return cols
}

// Validate rejects tables that cannot produce SQL.
func (t Table) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("table name is empty")
	}
	if strings.TrimSpace(t.Key) == "" {
		return fmt.Errorf("table %s has no key column", t.Name)
	}
	return nil
}

// Sort orders a List query.
type Sort struct {
	Column string
	Desc   bool
}

// Store runs grid queries.
type Store struct {
	db DBTX
}

// New returns a Store over db.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// List loads up to limit rows of t. A limit of zero loads everything.
func (s *Store) List(ctx context.Context, t Table, order []Sort, limit int) ([]*Record, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	cols := t.columns()

	var orderParts []string
	for _, o := range order {
		dir := "asc"
		if o.Desc {
			dir = "desc"
		}
		orderParts = append(orderParts, fmt.Sprintf("%s %s", quoteIdentifier(o.Column), dir))
	}
	// Stable paging needs a total order.
	orderParts = append(orderParts, fmt.Sprintf("%s asc", quoteIdentifier(t.Key)))

	query := fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY %s",
		strings.Join(quoteColumns(cols), ", "),
		quoteIdentifier(t.Name),
		strings.Join(orderParts, ", "),
	)
	var args []interface{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.Name, err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		m := make(map[string]any, len(cols))
		for i, col := range cols {
			if i < len(values) {
				m[col] = Normalize(values[i])
			}
		}
		records = append(records, NewRecord(t.Key, m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return records, nil
}

// Delete removes the row whose key is key. ErrNoRows means it was
// already gone.
func (s *Store) Delete(ctx context.Context, t Table, key any) error {
	if err := t.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(
		"DELETE FROM %s WHERE %s = $1",
		quoteIdentifier(t.Name),
		quoteIdentifier(t.Key),
	)
	tag, err := s.db.Exec(ctx, query, key)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// Update writes values to the row whose key is key. Columns are written
// in sorted order so the statement text is stable.
func (s *Store) Update(ctx context.Context, t Table, key any, values map[string]any) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	cols := sortedKeys(values)
	sets := make([]string, len(cols))
	args := make([]interface{}, 0, len(cols)+1)
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", quoteIdentifier(col), i+1)
		args = append(args, values[col])
	}
	args = append(args, key)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = $%d",
		quoteIdentifier(t.Name),
		strings.Join(sets, ", "),
		quoteIdentifier(t.Key),
		len(cols)+1,
	)
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// Insert adds a row and returns the key the database assigned.
func (s *Store) Insert(ctx context.Context, t Table, values map[string]any) (any, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	cols := sortedKeys(values)
	placeholders := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, col := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = values[col]
	}

	var query string
	if len(cols) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s",
			quoteIdentifier(t.Name), quoteIdentifier(t.Key))
	} else {
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
			quoteIdentifier(t.Name),
			strings.Join(quoteColumns(cols), ", "),
			strings.Join(placeholders, ", "),
			quoteIdentifier(t.Key),
		)
	}

	var key any
	if err := s.db.QueryRow(ctx, query, args...).Scan(&key); err != nil {
		return nil, fmt.Errorf("insert failed: %w", err)
	}
	return Normalize(key), nil
}

// Options runs an option query. The first result column is the option
// value and the second, when present, its label.
func (s *Store) Options(ctx context.Context, query string) ([]form.Option, error) {
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("options query: %w", err)
	}
	defer rows.Close()

	var opts []form.Option
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read option values: %w", err)
		}
		if len(values) == 0 {
			continue
		}
		opt := form.Option{Value: form.FormatValue(Normalize(values[0]))}
		if len(values) > 1 {
			opt.Label = form.FormatValue(Normalize(values[1]))
		}
		if opt.Label == "" {
			opt.Label = opt.Value
		}
		opts = append(opts, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return opts, nil
}

// quoteIdentifier quotes a SQL identifier to prevent injection.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteColumns quotes each column name in the slice.
func quoteColumns(cols []string) []string {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdentifier(col)
	}
	return quoted
}
