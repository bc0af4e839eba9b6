// Package worker mirrors committed changes into the spreadsheet export.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/query"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// ExportWorker applies change events to a TransactionExporter, reading the
// current state of each transaction from the store.
type ExportWorker struct {
	store    storage.TransactionStore
	exporter sheets.TransactionExporter
}

func NewExportWorker(store storage.TransactionStore, exporter sheets.TransactionExporter) *ExportWorker {
	return &ExportWorker{store: store, exporter: exporter}
}

// HandleChange processes one change. Returning an error asks for redelivery.
func (w *ExportWorker) HandleChange(ctx context.Context, c core.Change) error {
	slog.InfoContext(ctx, "Processing change",
		"kind", c.Kind,
		"owner", c.Owner,
		"category_id", c.CategoryID,
		"transaction_id", c.TransactionID)

	switch c.Kind {
	case core.TransactionCreated, core.TransactionUpdated:
		return w.exportTransaction(ctx, c.TransactionID)
	case core.TransactionDeleted:
		if err := w.exporter.Remove(ctx, c.TransactionID); err != nil {
			return fmt.Errorf("remove transaction %d: %w", c.TransactionID, err)
		}
		return nil
	case core.CategoryUpdated:
		// the category name is part of every row
		return w.exportCategory(ctx, c.Owner, c.CategoryID)
	case core.CategoryDeleted:
		n, err := w.exporter.RemoveCategory(ctx, c.CategoryID)
		if err != nil {
			return fmt.Errorf("remove category %d: %w", c.CategoryID, err)
		}
		slog.InfoContext(ctx, "Removed exported rows of deleted category", "category_id", c.CategoryID, "rows", n)
		return nil
	case core.CategoryCreated:
		return nil
	default:
		slog.WarnContext(ctx, "Ignoring unknown change kind", "kind", c.Kind)
		return nil
	}
}

func (w *ExportWorker) exportTransaction(ctx context.Context, id int64) error {
	t, err := w.store.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// deleted after the event was published; its delete event follows
		slog.InfoContext(ctx, "Skipping export of missing transaction", "transaction_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction %d: %w", id, err)
	}

	ref, err := w.exporter.Export(ctx, t)
	if err != nil {
		return fmt.Errorf("export transaction %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Exported transaction", "transaction_id", id, "row", ref)
	return nil
}

func (w *ExportWorker) exportCategory(ctx context.Context, owner core.UserID, categoryID int64) error {
	q := query.Build(query.ForOwner(owner), query.Where(query.EqualTo(query.FieldCategoryID, categoryID)))
	txs, _, err := w.store.FindTransactions(ctx, q)
	if err != nil {
		return fmt.Errorf("list transactions of category %d: %w", categoryID, err)
	}
	for _, t := range txs {
		if _, err := w.exporter.Export(ctx, t); err != nil {
			return fmt.Errorf("export transaction %d: %w", t.ID, err)
		}
	}
	return nil
}

// Resync exports every stored transaction. The worker runs it at startup to
// recover from events lost while it was down.
func (w *ExportWorker) Resync(ctx context.Context) (int, error) {
	txs, _, err := w.store.FindTransactions(ctx, query.Query{})
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}

	exported, failed := 0, 0
	for _, t := range txs {
		if err := ctx.Err(); err != nil {
			return exported, err
		}
		if _, err := w.exporter.Export(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction during resync", "transaction_id", t.ID, "error", err)
			failed++
			continue
		}
		exported++
	}
	slog.InfoContext(ctx, "Resync completed", "total", len(txs), "exported", exported, "errors", failed)
	return exported, nil
}
