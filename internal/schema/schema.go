// Package schema reads grid definitions from YAML.
//
// A file holds one or more documents, each with a list of grids:
//
//	grids:
//	  - key: customers
//	    group: Sales
//	    table: customers
//	    key_column: id
//	    label_column: name
//	    order: [name asc]
//	    delete: true
//	    columns:
//	      - name: name
//	        type: text
//	        editable: true
//	        required: true
//	      - name: tier
//	        type: enum
//	        options_query: SELECT code, label FROM tiers
package schema

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"

	"github.com/JonMunkholm/gridview/internal/core"
	"github.com/JonMunkholm/gridview/internal/form"
	"github.com/JonMunkholm/gridview/internal/grid"
)

// File is one YAML document.
type File struct {
	Grids []Grid `yaml:"grids"`
}

// Grid declares one grid over a database table.
type Grid struct {
	Key         string   `yaml:"key"`
	Group       string   `yaml:"group"`
	Label       string   `yaml:"label"`
	Table       string   `yaml:"table"`
	KeyColumn   string   `yaml:"key_column"`
	LabelColumn string   `yaml:"label_column"`
	Order       []string `yaml:"order"` // "column [asc|desc]"
	Delete      bool     `yaml:"delete"`
	Create      bool     `yaml:"create"`
	RecordLink  string   `yaml:"record_link"`
	Columns     []Column `yaml:"columns"`
}

// Column declares one grid column.
type Column struct {
	Name         string `yaml:"name"`
	Label        string `yaml:"label"`
	Type         string `yaml:"type"` // text, enum, date, numeric or bool; default text
	Editable     bool   `yaml:"editable"`
	Creatable    bool   `yaml:"creatable"`
	Required     bool   `yaml:"required"`
	Hidden       bool   `yaml:"hidden"`
	OptionsQuery string `yaml:"options_query"`
	Link         string `yaml:"link"`
}

// Load reads the grid definitions in path.
func Load(path string) ([]core.GridDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grid file: %w", err)
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// ErrNoGrids is returned for a file, or a document in it, that declares no
// grids. A truncated file often parses as an empty list.
var ErrNoGrids = errors.New("no grids declared")

// Parse decodes and validates grid definitions. Unknown keys are errors,
// and so are a grid key used twice and a document without grids.
func Parse(data []byte) ([]core.GridDefinition, error) {
	file, err := parser.ParseBytes(data, 0)
	if err != nil {
		return nil, err
	}

	var defs []core.GridDefinition
	seen := make(map[string]bool)
	for i, doc := range file.Docs {
		if doc.Body == nil || doc.Body.Type() == ast.CommentType {
			continue
		}
		var f File
		if err := yaml.NodeToValue(doc.Body, &f, yaml.DisallowUnknownField()); err != nil {
			return nil, err
		}
		if len(f.Grids) == 0 {
			return nil, fmt.Errorf("document %d: %w", i+1, ErrNoGrids)
		}
		for _, g := range f.Grids {
			def, err := g.Definition()
			if err != nil {
				return nil, fmt.Errorf("grid %q: %w", g.Key, err)
			}
			if seen[def.Info.Key] {
				return nil, fmt.Errorf("grid %q declared twice", def.Info.Key)
			}
			seen[def.Info.Key] = true
			defs = append(defs, def)
		}
	}
	if len(defs) == 0 {
		return nil, ErrNoGrids
	}
	return defs, nil
}

// Definition converts g to a validated grid definition.
func (g Grid) Definition() (core.GridDefinition, error) {
	def := core.GridDefinition{
		Info:        core.GridInfo{Key: g.Key, Group: g.Group, Label: g.Label},
		Table:       g.Table,
		KeyColumn:   g.KeyColumn,
		LabelColumn: g.LabelColumn,
		Delete:      g.Delete,
		Create:      g.Create,
		RecordLink:  g.RecordLink,
	}
	if def.KeyColumn == "" {
		def.KeyColumn = "id"
	}
	if def.Info.Label == "" {
		def.Info.Label = def.Info.Key
	}

	for _, c := range g.Columns {
		typ, err := form.ParseInputType(c.Type)
		if err != nil {
			return def, fmt.Errorf("column %q: %w", c.Name, err)
		}
		def.Columns = append(def.Columns, core.ColumnDef{
			Name:         c.Name,
			Label:        c.Label,
			Type:         typ,
			Editable:     c.Editable,
			Creatable:    c.Creatable,
			Required:     c.Required,
			Hidden:       c.Hidden,
			OptionsQuery: c.OptionsQuery,
			Link:         c.Link,
		})
	}

	for _, o := range g.Order {
		key, err := parseSortKey(o)
		if err != nil {
			return def, err
		}
		def.Order = append(def.Order, key)
	}

	if err := def.Validate(); err != nil {
		return def, err
	}
	return def, nil
}

// parseSortKey reads "column" or "column asc|desc".
func parseSortKey(s string) (grid.SortKey, error) {
	parts := strings.Fields(s)
	switch {
	case len(parts) == 1:
		return grid.SortKey{Field: parts[0], Dir: grid.Asc}, nil
	case len(parts) == 2 && (strings.EqualFold(parts[1], "asc") || strings.EqualFold(parts[1], "desc")):
		return grid.SortKey{Field: parts[0], Dir: grid.ParseDirection(strings.ToLower(parts[1]))}, nil
	default:
		return grid.SortKey{}, fmt.Errorf("invalid order %q: want \"column [asc|desc]\"", s)
	}
}

// RegisterAll registers every definition with the core registry.
// It panics like core.Register on a duplicate key.
func RegisterAll(defs []core.GridDefinition) {
	for _, def := range defs {
		core.Register(def)
	}
}
