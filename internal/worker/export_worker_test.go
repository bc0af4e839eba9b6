package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	sheetsmem "fintrack/internal/sheets/memory"
	"fintrack/internal/storage/memory"
)

func setup(t *testing.T) (*ExportWorker, *memory.Store, *sheetsmem.Exporter, core.Category) {
	t.Helper()
	store := memory.New()
	exporter := sheetsmem.New()
	c, err := store.CreateCategory(context.Background(), core.Category{Name: "Food", Owner: core.OwnerRef(1)})
	require.NoError(t, err)
	return NewExportWorker(store, exporter), store, exporter, c
}

func addTransaction(t *testing.T, store *memory.Store, c core.Category, title string) core.Transaction {
	t.Helper()
	tx, err := store.CreateTransaction(context.Background(), core.Transaction{
		Title: title, Amount: 10, Type: core.Expense, Description: "d",
		Date: core.NewDate(2024, time.March, 10), Category: c,
	})
	require.NoError(t, err)
	return tx
}

func TestHandleTransactionLifecycle(t *testing.T) {
	ctx := context.Background()
	w, store, exporter, food := setup(t)
	tx := addTransaction(t, store, food, "Lunch")

	require.NoError(t, w.HandleChange(ctx, core.Change{Kind: core.TransactionCreated, Owner: 1, CategoryID: food.ID, TransactionID: tx.ID}))
	require.Len(t, exporter.Rows(), 1)
	assert.Equal(t, "Food", exporter.Rows()[0].Category.Name)

	tx.Title = "Brunch"
	_, err := store.UpdateTransaction(ctx, tx)
	require.NoError(t, err)
	require.NoError(t, w.HandleChange(ctx, core.Change{Kind: core.TransactionUpdated, Owner: 1, TransactionID: tx.ID}))
	require.Len(t, exporter.Rows(), 1)
	assert.Equal(t, "Brunch", exporter.Rows()[0].Title)

	require.NoError(t, w.HandleChange(ctx, core.Change{Kind: core.TransactionDeleted, Owner: 1, TransactionID: tx.ID}))
	assert.Empty(t, exporter.Rows())
}

func TestHandleMissingTransactionIsAcked(t *testing.T) {
	w, _, exporter, _ := setup(t)
	require.NoError(t, w.HandleChange(context.Background(), core.Change{Kind: core.TransactionCreated, Owner: 1, TransactionID: 404}))
	assert.Empty(t, exporter.Rows())
}

func TestHandleCategoryChanges(t *testing.T) {
	ctx := context.Background()
	w, store, exporter, food := setup(t)
	addTransaction(t, store, food, "Lunch")
	addTransaction(t, store, food, "Dinner")

	food.Name = "Groceries"
	_, err := store.UpdateCategory(ctx, food)
	require.NoError(t, err)
	require.NoError(t, w.HandleChange(ctx, core.Change{Kind: core.CategoryUpdated, Owner: 1, CategoryID: food.ID}))
	require.Len(t, exporter.Rows(), 2)
	for _, row := range exporter.Rows() {
		assert.Equal(t, "Groceries", row.Category.Name)
	}

	require.NoError(t, w.HandleChange(ctx, core.Change{Kind: core.CategoryDeleted, Owner: 1, CategoryID: food.ID}))
	assert.Empty(t, exporter.Rows())
	assert.NoError(t, w.HandleChange(ctx, core.Change{Kind: "unknown.kind"}))
}

type failingExporter struct{ *sheetsmem.Exporter }

func (failingExporter) Export(context.Context, core.Transaction) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestExportFailureAsksForRedelivery(t *testing.T) {
	ctx := context.Background()
	_, store, _, food := setup(t)
	tx := addTransaction(t, store, food, "Lunch")
	w := NewExportWorker(store, failingExporter{sheetsmem.New()})

	err := w.HandleChange(ctx, core.Change{Kind: core.TransactionCreated, Owner: 1, TransactionID: tx.ID})
	assert.Error(t, err)

	n, err := w.Resync(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestResync(t *testing.T) {
	w, store, exporter, food := setup(t)
	addTransaction(t, store, food, "Lunch")
	addTransaction(t, store, food, "Dinner")

	n, err := w.Resync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, exporter.Rows(), 2)
}
