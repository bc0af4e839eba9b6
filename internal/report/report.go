// Package report computes the fixed-window and per-category transaction reports.
package report

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/query"
	"fintrack/internal/storage"
)

// Window is a reporting period ending today.
type Window string

const (
	Daily   Window = "daily"
	Weekly  Window = "weekly"
	Monthly Window = "monthly"
)

// ParseWindow accepts daily, weekly or monthly.
func ParseWindow(s string) (Window, error) {
	switch w := Window(s); w {
	case Daily, Weekly, Monthly:
		return w, nil
	}
	return "", fmt.Errorf("report window %q: %w", s, core.ErrNotFound)
}

// Days is how far back the window reaches from today.
func (w Window) Days() int {
	switch w {
	case Weekly:
		return 7
	case Monthly:
		return 30
	default:
		return 0
	}
}

// Range is the inclusive date range the window covers when today is today.
func (w Window) Range(today core.Date) (from, to core.Date) {
	return today.AddDays(-w.Days()), today
}

// Reporter produces reports for an identity.
type Reporter interface {
	Report(ctx context.Context, identity core.UserID, w Window) ([]core.Transaction, error)
	ByCategory(ctx context.Context, identity core.UserID, categoryID int64) ([]core.Transaction, error)
}

// Engine reads reports straight from the store. Results are unpaginated and
// ordered by id.
type Engine struct {
	store storage.Store
	clock core.Clock
}

var _ Reporter = (*Engine)(nil)

func NewEngine(store storage.Store, clock core.Clock) *Engine {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Engine{store: store, clock: clock}
}

// Today is the server-local date reports are anchored to.
func (e *Engine) Today() core.Date {
	return core.Today(e.clock)
}

func (e *Engine) Report(ctx context.Context, identity core.UserID, w Window) ([]core.Transaction, error) {
	if identity <= 0 {
		return nil, core.ErrUnauthenticated
	}
	from, to := w.Range(e.Today())
	pred := query.DateRange(from, to)
	if w.Days() == 0 {
		pred = query.Where(query.EqualTo(query.FieldDate, to))
	}

	txs, _, err := e.store.FindTransactions(ctx, query.Build(query.ForOwner(identity), pred))
	if err != nil {
		return nil, fmt.Errorf("%s report: %w", w, err)
	}
	return nonNil(txs), nil
}

// ByCategory returns every transaction of a category identity owns.
func (e *Engine) ByCategory(ctx context.Context, identity core.UserID, categoryID int64) ([]core.Transaction, error) {
	if identity <= 0 {
		return nil, core.ErrUnauthenticated
	}
	c, err := e.store.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if !c.OwnedBy(identity) {
		return nil, fmt.Errorf("category %d: %w", categoryID, core.ErrForbidden)
	}

	q := query.Build(query.ForOwner(identity), query.Where(query.EqualTo(query.FieldCategoryID, categoryID)))
	txs, _, err := e.store.FindTransactions(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("category %d report: %w", categoryID, err)
	}
	return nonNil(txs), nil
}

func nonNil(txs []core.Transaction) []core.Transaction {
	if txs == nil {
		return []core.Transaction{}
	}
	return txs
}
