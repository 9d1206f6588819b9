package grid

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// DeleteResult summarizes a batch delete.
type DeleteResult[R any] struct {
	Success  bool
	Canceled bool // A BeforeDelete listener vetoed the batch
	Message  string
	Deleted  []R
	Failed   []R

	// Entries has one entry per attempted record, in request order.
	Entries []*ReportEntry

	// Report is the read-only itemized report grid. It is built only
	// when at least one delete failed.
	Report *Datatable[*ReportEntry]
}

// ReportEntry is one line of a delete report.
type ReportEntry struct {
	Label   string `json:"label"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// DeleteItems deletes items through the grid's Delete func, one goroutine
// per record, and waits for all of them. Records whose delete succeeded
// are removed; records that failed stay. Every record must belong to the
// grid.
func (t *Datatable[R]) DeleteItems(ctx context.Context, items []R) (*DeleteResult[R], error) {
	rows := make([]*Row[R], len(items))
	for i, item := range items {
		row, err := t.resolve("DeleteItems", item, nil)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	if len(items) == 0 {
		return &DeleteResult[R]{Success: true, Message: "nothing to delete"}, nil
	}

	ev := &Event[R]{Kind: BeforeDelete, Items: items, Cancelable: true}
	if !t.events.publish(ev) {
		return &DeleteResult[R]{Canceled: true, Message: "delete canceled"}, nil
	}

	start := time.Now()
	outcomes := make([]Outcome, len(items))
	var g errgroup.Group
	if t.deleteMax > 0 {
		g.SetLimit(t.deleteMax)
	}
	for i, item := range items {
		g.Go(func() error {
			outcomes[i] = t.deleteOne(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	res := &DeleteResult[R]{Entries: make([]*ReportEntry, len(items))}
	for i, item := range items {
		out := outcomes[i]
		label := t.labelOf(item)
		res.Entries[i] = &ReportEntry{Label: label, Success: out.Success, Message: out.Message}
		if !out.Success {
			res.Failed = append(res.Failed, item)
			t.logger.WarnContext(ctx, "delete failed", "item", label, "error", outcomeError(out))
			continue
		}
		res.Deleted = append(res.Deleted, item)
		if !rows[i].removed {
			t.remove(rows[i], false, true)
		}
	}
	if len(res.Deleted) > 0 && t.state == Ready {
		t.adapter.Redraw()
	}

	t.logger.InfoContext(ctx, "batch delete finished",
		"requested", len(items),
		"deleted", len(res.Deleted),
		"failed", len(res.Failed),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if len(res.Failed) == 0 {
		res.Success = true
		res.Message = fmt.Sprintf("%d item(s) deleted", len(res.Deleted))
		return res, nil
	}

	res.Message = fmt.Sprintf("%d of %d item(s) could not be deleted", len(res.Failed), len(items))
	report, err := t.newReport(ctx, res.Entries)
	if err != nil {
		// The batch has already run; the entries still carry every outcome.
		t.logger.ErrorContext(ctx, "delete report failed", "error", err)
		return res, nil
	}
	res.Report = report
	return res, nil
}

// deleteOne runs the delete func for one record, turning a panic into a
// failed outcome.
func (t *Datatable[R]) deleteOne(ctx context.Context, item R) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Failed(fmt.Sprintf("delete failed: %v", r))
		}
	}()
	return t.deleteFn(ctx, item)
}

// newReport builds the read-only report grid for entries.
func (t *Datatable[R]) newReport(ctx context.Context, entries []*ReportEntry) (*Datatable[*ReportEntry], error) {
	var adapter Adapter
	if t.reportFor != nil {
		adapter = t.reportFor()
	}
	return Open(ctx, Params[*ReportEntry]{
		Code:  t.code + "-delete-report",
		Items: entries,
		Fields: []FieldSpec[*ReportEntry]{
			{
				Code:  "label",
				Title: "Item",
				Value: func(e *ReportEntry) any { return e.Label },
			},
			{
				Code:  "success",
				Title: "Deleted",
				Value: func(e *ReportEntry) any { return e.Success },
				Format: func(v any, _ *ReportEntry) string {
					if b, _ := v.(bool); b {
						return "yes"
					}
					return "no"
				},
				Order: func(e *ReportEntry) any { return e.Success },
			},
			{
				Code:  "message",
				Title: "Message",
				Value: func(e *ReportEntry) any { return e.Message },
			},
		},
		// Failed entries first.
		Order:      []SortKey{{Field: "success", Dir: Asc}},
		Label:      func(e *ReportEntry) string { return e.Label },
		Selectable: func(*ReportEntry) bool { return false },
		Adapter:    adapter,
		Logger:     t.logger,
	})
}
