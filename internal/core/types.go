package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/gridview/internal/form"
	"github.com/JonMunkholm/gridview/internal/grid"
)

// ColumnDef describes one database column shown in a grid.
type ColumnDef struct {
	Name      string         // Database column name
	Label     string         // Header text; defaults to Name
	Type      form.InputType // Input and display type
	Editable  bool
	Creatable bool // Editable only while the row is a new draft
	Required  bool
	Hidden    bool

	// OptionsQuery lists the allowed values of an enum column: value first,
	// label second.
	OptionsQuery string

	// Link is an href template. {key} expands to the row key and {value}
	// to the column value, both path-escaped.
	Link string
}

// Title returns the header text.
func (c ColumnDef) Title() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Name
}

// GridInfo contains display information about a grid.
type GridInfo struct {
	Key   string `json:"key"`   // Unique identifier: "customers"
	Group string `json:"group"` // Menu section: "Sales"
	Label string `json:"label"` // Display name: "Customers"
}

// GridDefinition contains everything needed to serve a grid over a table.
type GridDefinition struct {
	Info        GridInfo
	Table       string
	KeyColumn   string
	LabelColumn string // Names rows in messages and delete reports
	Columns     []ColumnDef
	Order       []grid.SortKey

	// Delete enables the built-in delete action.
	Delete bool
	// Create enables new rows.
	Create bool
	// RecordLink is an href template for the whole row, as in ColumnDef.Link.
	RecordLink string
}

// Column returns the column named name.
func (d GridDefinition) Column(name string) (ColumnDef, bool) {
	for _, c := range d.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// ColumnNames returns the database columns a grid loads.
func (d GridDefinition) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Validate reports the first problem that keeps d from describing a grid.
func (d GridDefinition) Validate() error {
	if strings.TrimSpace(d.Info.Key) == "" {
		return errors.New("grid has no key")
	}
	if strings.TrimSpace(d.Table) == "" {
		return errors.New("no table")
	}
	if strings.TrimSpace(d.KeyColumn) == "" {
		return errors.New("no key column")
	}
	if len(d.Columns) == 0 {
		return errors.New("no columns")
	}
	seen := make(map[string]bool, len(d.Columns))
	for _, c := range d.Columns {
		name := strings.ToLower(c.Name)
		switch {
		case strings.TrimSpace(c.Name) == "":
			return errors.New("column without a name")
		case strings.HasPrefix(c.Name, "_"):
			return fmt.Errorf("column %q: names starting with _ are reserved", c.Name)
		case seen[name]:
			return fmt.Errorf("column %q declared twice", c.Name)
		case strings.EqualFold(c.Name, d.KeyColumn) && (c.Editable || c.Creatable):
			return fmt.Errorf("column %q is the key and cannot be editable", c.Name)
		case c.OptionsQuery != "" && c.Type != form.Enum:
			return fmt.Errorf("column %q has an options query but is not an enum", c.Name)
		}
		seen[name] = true
	}
	for _, k := range d.Order {
		if !seen[strings.ToLower(k.Field)] {
			return fmt.Errorf("order column %q is not a grid column", k.Field)
		}
	}
	if d.LabelColumn != "" && !seen[strings.ToLower(d.LabelColumn)] && !strings.EqualFold(d.LabelColumn, d.KeyColumn) {
		return fmt.Errorf("label column %q is not loaded", d.LabelColumn)
	}
	return nil
}
