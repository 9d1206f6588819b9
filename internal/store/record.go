package store

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Record is one database row held by a grid. Grids read it through Attr
// and write edits back through SetAttr; the record remembers what changed
// until Commit or Revert.
type Record struct {
	keyColumn string
	values    map[string]any
	original  map[string]any // Values before the first uncommitted change
}

// NewRecord returns a record whose key lives in keyColumn.
func NewRecord(keyColumn string, values map[string]any) *Record {
	if values == nil {
		values = make(map[string]any)
	}
	return &Record{keyColumn: keyColumn, values: values}
}

// Key returns the primary key value, nil for a row not yet inserted.
func (r *Record) Key() any { return r.values[r.keyColumn] }

// SetKey records the key a database assigned on insert.
func (r *Record) SetKey(key any) { r.values[r.keyColumn] = key }

// Attr returns the value of a column.
func (r *Record) Attr(name string) any { return r.values[name] }

// SetAttr stages a new value for a column. The key column is read-only.
func (r *Record) SetAttr(name string, v any) error {
	if name == r.keyColumn {
		return fmt.Errorf("column %s is the key and cannot be edited", name)
	}
	if r.original == nil {
		r.original = make(map[string]any)
	}
	if _, seen := r.original[name]; !seen {
		r.original[name] = r.values[name]
	}
	r.values[name] = v
	return nil
}

// Changes returns the staged values that differ from what was loaded.
func (r *Record) Changes() map[string]any {
	changes := make(map[string]any)
	for name, was := range r.original {
		if now := r.values[name]; !equalValues(was, now) {
			changes[name] = now
		}
	}
	return changes
}

// Values returns a copy of every column, key included.
func (r *Record) Values() map[string]any { return maps.Clone(r.values) }

// Commit accepts the staged values as the stored state.
func (r *Record) Commit() { r.original = nil }

// Revert drops the staged values.
func (r *Record) Revert() {
	for name, was := range r.original {
		r.values[name] = was
	}
	r.original = nil
}

func equalValues(a, b any) bool {
	defer func() { recover() }() // Uncomparable dynamic types count as different
	return a == b
}

// Normalize converts the driver types pgx returns from Values into the
// plain Go values grids format and sort.
func Normalize(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case pgtype.Text:
		if !x.Valid {
			return nil
		}
		return x.String
	case pgtype.Date:
		if !x.Valid {
			return nil
		}
		return x.Time
	case pgtype.Timestamptz:
		if !x.Valid {
			return nil
		}
		return x.Time
	case pgtype.Bool:
		if !x.Valid {
			return nil
		}
		return x.Bool
	case [16]byte:
		return uuid.UUID(x).String()
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
