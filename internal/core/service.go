package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/JonMunkholm/gridview/internal/grid"
	"github.com/JonMunkholm/gridview/internal/logging"
	"github.com/JonMunkholm/gridview/internal/render"
	"github.com/JonMunkholm/gridview/internal/store"
)

// ErrUnknownGrid is returned for a grid key nothing registered.
var ErrUnknownGrid = errors.New("unknown grid")

// Options tune a Service. Zero values fall back to the defaults below.
type Options struct {
	DeleteConcurrency int
	RowLimit          int
	OptionsTimeout    time.Duration
	Limiter           *BatchLimiter
}

const (
	DefaultDeleteConcurrency = 8
	DefaultRowLimit          = 5000
	DefaultOptionsTimeout    = 10 * time.Second
)

// Service serves registered grids over a database. It keeps one live
// session per grid, opened on first use.
type Service struct {
	store   *store.Store
	opts    Options
	limiter *BatchLimiter

	mu       sync.RWMutex
	sessions map[string]*Session
	opening  singleflight.Group
}

// NewService creates a Service over db.
func NewService(db store.DBTX, opts Options) *Service {
	if opts.DeleteConcurrency <= 0 {
		opts.DeleteConcurrency = DefaultDeleteConcurrency
	}
	if opts.RowLimit <= 0 {
		opts.RowLimit = DefaultRowLimit
	}
	if opts.OptionsTimeout <= 0 {
		opts.OptionsTimeout = DefaultOptionsTimeout
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = NewBatchLimiter(DefaultMaxConcurrentBatches, DefaultBatchWaitTime)
	}
	return &Service{
		store:    store.New(db),
		opts:     opts,
		limiter:  limiter,
		sessions: make(map[string]*Session),
	}
}

// ListGrids returns information about all registered grids.
func (s *Service) ListGrids() []GridInfo {
	defs := All()
	infos := make([]GridInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// ListGridsByGroup returns grids organized by group.
func (s *Service) ListGridsByGroup() map[string][]GridInfo {
	result := make(map[string][]GridInfo)
	for _, group := range Groups() {
		for _, def := range ByGroup(group) {
			result[group] = append(result[group], def.Info)
		}
	}
	return result
}

// Limiter returns the batch delete limiter.
func (s *Service) Limiter() *BatchLimiter { return s.limiter }

// session returns the live session for key, opening it when needed.
// Concurrent first requests share one open.
func (s *Service) session(ctx context.Context, key string) (*Session, error) {
	s.mu.RLock()
	sess := s.sessions[key]
	s.mu.RUnlock()
	if sess != nil {
		return sess, nil
	}

	v, err, _ := s.opening.Do(key, func() (any, error) {
		s.mu.RLock()
		sess := s.sessions[key]
		s.mu.RUnlock()
		if sess != nil {
			return sess, nil
		}
		sess, err := s.open(ctx, key)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.sessions[key] = sess
		s.mu.Unlock()
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// open loads a grid's rows and builds it. A grid whose build fails is not
// kept, so the next request retries.
func (s *Service) open(ctx context.Context, key string) (*Session, error) {
	def, ok := Get(key)
	if !ok {
		return nil, fmt.Errorf("open %q: %w", key, ErrUnknownGrid)
	}
	// The session outlives this request, so its logger must not carry the
	// request id.
	logger := logging.ForGrid(context.Background(), key)

	records, err := s.store.List(ctx, storeTable(def), storeOrder(def), s.opts.RowLimit)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	sess := newSession(def)
	table, err := grid.New(s.params(def, records, sess, logger))
	if err != nil {
		return nil, err
	}
	sess.table = table

	buildCtx, cancel := context.WithTimeout(ctx, s.opts.OptionsTimeout)
	defer cancel()
	if err := table.Build(buildCtx); err != nil {
		return nil, err
	}

	logger.Info("grid opened", "rows", len(records))
	if len(records) == s.opts.RowLimit {
		logger.Warn("grid truncated at row limit", "limit", s.opts.RowLimit)
	}
	return sess, nil
}

// with runs fn on key's session with the session lock held.
func (s *Service) with(ctx context.Context, key string, fn func(sess *Session) error) error {
	sess, err := s.session(ctx, key)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess)
}

// Reload drops key's session. The next request reloads it from the
// database.
func (s *Service) Reload(key string) {
	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
}

// View returns the grid's current state, rows filtered by query.
func (s *Service) View(ctx context.Context, key, query string) (View, error) {
	var v View
	err := s.with(ctx, key, func(sess *Session) error {
		v = sess.view(query)
		return nil
	})
	return v, err
}

// Snapshot returns the grid's visible rows without consuming its pending
// notices. Exports use it.
func (s *Service) Snapshot(ctx context.Context, key, query string) (GridInfo, render.Snapshot, error) {
	var (
		info GridInfo
		snap render.Snapshot
	)
	err := s.with(ctx, key, func(sess *Session) error {
		info, snap = sess.def.Info, sess.model.Snapshot(query)
		return nil
	})
	return info, snap, err
}

// Click routes a click delegated from the rendered table. The built-in
// delete action takes a batch slot first.
func (s *Service) Click(ctx context.Context, key string, target grid.Target) (grid.Outcome, error) {
	var out grid.Outcome
	run := func() error {
		return s.with(ctx, key, func(sess *Session) error {
			var err error
			out, err = sess.table.HandleClick(ctx, target)
			return err
		})
	}
	if target.Role == grid.RoleRowAction && target.Action == grid.DeleteActionCode {
		return out, s.limiter.Do(ctx, run)
	}
	return out, run()
}

// Edit opens the editable cells of a row.
func (s *Service) Edit(ctx context.Context, key string, index int) error {
	return s.with(ctx, key, func(sess *Session) error {
		row, err := sess.row("Edit", index)
		if err != nil {
			return err
		}
		return row.EnableEditMode()
	})
}

// Input stages typed text in one cell and validates it.
func (s *Service) Input(ctx context.Context, key string, index int, field, text string) (grid.Validation, error) {
	var v grid.Validation
	err := s.with(ctx, key, func(sess *Session) error {
		row, err := sess.row("Input", index)
		if err != nil {
			return err
		}
		ed, err := sess.editable("Input", field)
		if err != nil {
			return err
		}
		if err := ed.SetInput(row.Item(), text); err != nil {
			return err
		}
		v = ed.Validate(row.Item())
		return nil
	})
	return v, err
}

// Save commits a row's open inputs and writes them to the database. A
// failed validation is returned as a Validation; a failed write is an
// error and leaves the row as it was stored.
func (s *Service) Save(ctx context.Context, key string, index int) (grid.Validation, error) {
	var v grid.Validation
	err := s.with(ctx, key, func(sess *Session) error {
		row, err := sess.row("Save", index)
		if err != nil {
			return err
		}
		rec, draft := row.Item(), row.Draft()

		v, err = sess.table.SaveItem(ctx, rec)
		if err != nil || !v.Success {
			return err
		}

		logger := logging.ForGrid(ctx, sess.def.Info.Key)
		table := storeTable(sess.def)
		changes := rec.Changes()
		if draft {
			newKey, err := s.store.Insert(ctx, table, changes)
			if err != nil {
				_ = sess.table.RemoveItem(rec)
				return err
			}
			rec.SetKey(newKey)
			rec.Commit()
			_ = sess.table.UpdateItem(rec, rec)
			logger.Info("row created", append([]any{"key", newKey}, actorAttrs(ctx)...)...)
			return nil
		}

		if err := s.store.Update(ctx, table, rec.Key(), changes); err != nil {
			rec.Revert()
			_ = sess.table.UpdateItem(rec, rec)
			return err
		}
		rec.Commit()
		if len(changes) > 0 {
			logger.Info("row updated", append([]any{"key", rec.Key(), "columns", len(changes)}, actorAttrs(ctx)...)...)
		}
		return nil
	})
	return v, err
}

// Cancel closes a row's inputs without saving. A new row is discarded.
func (s *Service) Cancel(ctx context.Context, key string, index int) error {
	return s.with(ctx, key, func(sess *Session) error {
		row, err := sess.row("Cancel", index)
		if err != nil {
			return err
		}
		return sess.table.DisableEditMode(row.Item())
	})
}

// Create adds an empty draft row with its inputs open and returns its index.
func (s *Service) Create(ctx context.Context, key string) (int, error) {
	index := -1
	err := s.with(ctx, key, func(sess *Session) error {
		if !sess.def.Create {
			return &grid.Error{Kind: grid.KindNotEditable, Op: "Create", Label: sess.def.Info.Label, Err: grid.ErrNotEditable}
		}
		row, err := sess.table.CreateItem(store.NewRecord(sess.def.KeyColumn, nil))
		if err != nil {
			return err
		}
		index = row.Index()
		return nil
	})
	return index, err
}

// Pin fixes a row to the top of the grid, or releases it.
func (s *Service) Pin(ctx context.Context, key string, index int, pinned bool) error {
	return s.with(ctx, key, func(sess *Session) error {
		row, err := sess.row("Pin", index)
		if err != nil {
			return err
		}
		if pinned {
			return sess.table.FixRow(row.Item())
		}
		return sess.table.ReleaseRow(row.Item())
	})
}

// Order replaces the grid's ordering.
func (s *Service) Order(ctx context.Context, key string, keys []grid.SortKey) error {
	return s.with(ctx, key, func(sess *Session) error {
		return sess.table.SetOrder(keys)
	})
}

// DeleteSummary is the itemized result of a batch delete.
type DeleteSummary struct {
	BatchID  string              `json:"batch_id"`
	Success  bool                `json:"success"`
	Canceled bool                `json:"canceled,omitempty"`
	Message  string              `json:"message"`
	Entries  []*grid.ReportEntry `json:"entries"`
}

// Delete deletes the rows at the given grid indices. The batch waits for
// a limiter slot; every row is attempted and the summary lists each one.
func (s *Service) Delete(ctx context.Context, key string, indices []int) (*DeleteSummary, error) {
	batchID := uuid.NewString()
	logger := logging.WithFields(ctx, "batch_id", batchID, "grid", key)

	var sum *DeleteSummary
	err := s.limiter.Do(ctx, func() error {
		return s.with(ctx, key, func(sess *Session) error {
			items := make([]Record, len(indices))
			for i, index := range indices {
				row, err := sess.row("Delete", index)
				if err != nil {
					return err
				}
				items[i] = row.Item()
			}

			logger.Info("batch delete started", append([]any{"rows", len(items)}, actorAttrs(ctx)...)...)
			res, err := sess.table.DeleteItems(ctx, items)
			if err != nil {
				return err
			}
			sum = &DeleteSummary{
				BatchID:  batchID,
				Success:  res.Success,
				Canceled: res.Canceled,
				Message:  res.Message,
				Entries:  res.Entries,
			}
			sess.notify(ctx, grid.Notice{Grid: key, Source: grid.DeleteActionCode, Outcome: grid.Outcome{Success: res.Success, Message: res.Message}})
			logger.Info("batch delete finished", "deleted", len(res.Deleted), "failed", len(res.Failed))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}
