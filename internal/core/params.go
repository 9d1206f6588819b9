package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JonMunkholm/gridview/internal/form"
	"github.com/JonMunkholm/gridview/internal/grid"
	"github.com/JonMunkholm/gridview/internal/render"
	"github.com/JonMunkholm/gridview/internal/store"
)

// Record is the row type every served grid holds.
type Record = *store.Record

// storeTable returns the table slice a definition loads.
func storeTable(def GridDefinition) store.Table {
	return store.Table{Name: def.Table, Key: def.KeyColumn, Columns: def.ColumnNames()}
}

// storeOrder converts a definition's initial ordering to SQL ordering.
func storeOrder(def GridDefinition) []store.Sort {
	sorts := make([]store.Sort, len(def.Order))
	for i, k := range def.Order {
		sorts[i] = store.Sort{Column: k.Field, Desc: k.Dir == grid.Desc}
	}
	return sorts
}

// fieldSpecs turns column definitions into grid fields. Values are read
// and written through the record's attributes.
func (s *Service) fieldSpecs(def GridDefinition) []grid.FieldSpec[Record] {
	specs := make([]grid.FieldSpec[Record], 0, len(def.Columns))
	for _, c := range def.Columns {
		name := c.Name
		spec := grid.FieldSpec[Record]{
			Code:      name,
			Title:     c.Title(),
			Input:     c.Type,
			Hidden:    c.Hidden,
			Editable:  c.Editable,
			Creatable: c.Creatable,
			Required:  c.Required,
			Order:     func(r Record) any { return r.Attr(name) },
		}
		if c.OptionsQuery != "" {
			query := c.OptionsQuery
			spec.Options = func(ctx context.Context) ([]form.Option, error) {
				return s.store.Options(ctx, query)
			}
		}
		if c.Link != "" {
			tmpl := c.Link
			spec.Link = func(r Record) string { return expandLink(tmpl, r.Key(), r.Attr(name)) }
		}
		specs = append(specs, spec)
	}
	return specs
}

// params assembles the grid configuration for one session.
func (s *Service) params(def GridDefinition, records []Record, sess *Session, logger *slog.Logger) grid.Params[Record] {
	table := storeTable(def)
	p := grid.Params[Record]{
		Code:         def.Info.Key,
		Items:        records,
		Fields:       s.fieldSpecs(def),
		Order:        def.Order,
		DeleteAction: def.Delete,
		Label:        func(r Record) string { return recordLabel(def, r) },
		Adapter:      sess.model,
		ReportAdapter: func() grid.Adapter {
			m := render.NewModel()
			sess.report = m
			return m
		},
		Notifier:    grid.NotifierFunc(sess.notify),
		Logger:      logger,
		DeleteLimit: s.opts.DeleteConcurrency,
		Delete: func(ctx context.Context, r Record) grid.Outcome {
			if err := s.store.Delete(ctx, table, r.Key()); err != nil {
				logger.WarnContext(ctx, "row delete failed",
					append([]any{"key", r.Key(), "error", err}, actorAttrs(ctx)...)...)
				return grid.Failed(MapError(err).Message)
			}
			return grid.Outcome{Success: true}
		},
	}
	if def.RecordLink != "" {
		tmpl := def.RecordLink
		p.RecordLink = func(r Record) string { return expandLink(tmpl, r.Key(), nil) }
	}
	return p
}

// recordLabel names a record by its label column, falling back to its key.
func recordLabel(def GridDefinition, r Record) string {
	if def.LabelColumn != "" {
		if v := form.FormatValue(r.Attr(def.LabelColumn)); v != "" {
			return v
		}
	}
	if k := r.Key(); k != nil {
		return fmt.Sprintf("%s %v", def.KeyColumn, k)
	}
	return "new row"
}

// expandLink fills {key} and {value} in an href template.
func expandLink(tmpl string, key, value any) string {
	return strings.NewReplacer(
		"{key}", url.PathEscape(form.FormatValue(key)),
		"{value}", url.PathEscape(form.FormatValue(value)),
	).Replace(tmpl)
}
