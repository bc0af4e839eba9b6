// Package memory is an in-process sheets.TransactionExporter used when no
// spreadsheet is configured and in tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows []core.Transaction
}

var _ sheets.TransactionExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// Export replaces the transaction's row or appends a new one.
func (e *Exporter) Export(_ context.Context, t core.Transaction) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.index(t.ID); i >= 0 {
		e.rows[i] = t
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	e.rows = append(e.rows, t)
	return fmt.Sprintf("mem:%d", len(e.rows)), nil
}

func (e *Exporter) Remove(_ context.Context, transactionID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = slices.DeleteFunc(e.rows, func(t core.Transaction) bool { return t.ID == transactionID })
	return nil
}

func (e *Exporter) RemoveCategory(_ context.Context, categoryID int64) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	before := len(e.rows)
	e.rows = slices.DeleteFunc(e.rows, func(t core.Transaction) bool { return t.Category.ID == categoryID })
	return before - len(e.rows), nil
}

// Rows returns a copy of the exported transactions in row order.
func (e *Exporter) Rows() []core.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.rows)
}

func (e *Exporter) index(id int64) int {
	return slices.IndexFunc(e.rows, func(t core.Transaction) bool { return t.ID == id })
}
