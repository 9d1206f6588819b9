package grid

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/gridview/internal/form"
)

// Build runs the build pipeline: it waits for every field's option list,
// mounts the rows on the adapter and applies the mutations queued while
// the grid was not ready. A failed option fetch leaves the grid BuildFailed.
func (t *Datatable[R]) Build(ctx context.Context) error {
	if t.state != Unbuilt {
		return &Error{Kind: KindBuild, Op: "Build", Err: fmt.Errorf("%w (state %s)", ErrAlreadyBuilt, t.state)}
	}
	start := time.Now()

	t.state = AwaitingFieldOptions
	if err := t.loadOptions(ctx); err != nil {
		t.state = BuildFailed
		t.logger.ErrorContext(ctx, "grid build failed", "state", AwaitingFieldOptions.String(), "error", err)
		return &Error{Kind: KindBuild, Op: "Build", Err: fmt.Errorf("%w: %w", ErrOptionsFailed, err)}
	}

	t.state = Rendering
	if err := t.adapter.Mount(t.columns(), t.rowViews(), t.Ordering()); err != nil {
		t.state = BuildFailed
		t.logger.ErrorContext(ctx, "grid build failed", "state", Rendering.String(), "error", err)
		return &Error{Kind: KindBuild, Op: "Build", Err: fmt.Errorf("%w: %w", ErrRenderFailed, err)}
	}

	t.state = Ready
	pending := t.pending
	t.pending = nil
	for _, fn := range pending {
		fn()
	}
	close(t.ready)

	t.logger.DebugContext(ctx, "grid ready",
		"rows", t.slots.len(),
		"fields", len(t.fields),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	t.events.publish(&Event[R]{Kind: BuildComplete, Items: t.Items()})
	return nil
}

// loadOptions fetches every field's options concurrently and waits for
// all of them, failed or not. Results are assigned only after the join.
func (t *Datatable[R]) loadOptions(ctx context.Context) error {
	results := make([][]form.Option, len(t.fields))

	var g errgroup.Group
	for i, f := range t.fields {
		if f.optionFn == nil {
			continue
		}
		g.Go(func() error {
			opts, err := f.optionFn(ctx)
			if err != nil {
				return fmt.Errorf("field %s: %w", f.code, err)
			}
			results[i] = opts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, f := range t.fields {
		if f.optionFn != nil {
			f.options = results[i]
		}
	}
	return nil
}
