// Package storagetest holds the behavior every storage.Store must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/query"
	"fintrack/internal/storage"
)

// Run exercises s against the store contract. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("CategoryCRUD", func(t *testing.T) { testCategoryCRUD(t, newStore(t)) })
	t.Run("CascadeDelete", func(t *testing.T) { testCascadeDelete(t, newStore(t)) })
	t.Run("OwnerScope", func(t *testing.T) { testOwnerScope(t, newStore(t)) })
	t.Run("TransactionFilters", func(t *testing.T) { testTransactionFilters(t, newStore(t)) })
	t.Run("SortAndWindow", func(t *testing.T) { testSortAndWindow(t, newStore(t)) })
	t.Run("UpdateKeepsDate", func(t *testing.T) { testUpdateKeepsDate(t, newStore(t)) })
	t.Run("Orphan", func(t *testing.T) { testOrphan(t, newStore(t)) })
	t.Run("UnicodeCaseFolding", func(t *testing.T) { testUnicodeCaseFolding(t, newStore(t)) })
	t.Run("ExtremeAmountSearch", func(t *testing.T) { testExtremeAmountSearch(t, newStore(t)) })
	t.Run("LastPageWindow", func(t *testing.T) { testLastPageWindow(t, newStore(t)) })
}

func mustCategory(t *testing.T, s storage.Store, name string, owner core.UserID) core.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), core.Category{Name: name, Owner: core.OwnerRef(owner)})
	require.NoError(t, err)
	require.NotZero(t, c.ID)
	return c
}

func mustTransaction(t *testing.T, s storage.Store, c core.Category, title string, amount float64, typ core.TransactionType, date core.Date) core.Transaction {
	t.Helper()
	tx, err := s.CreateTransaction(context.Background(), core.Transaction{
		Title:       title,
		Amount:      amount,
		Type:        typ,
		Description: title + " description",
		Date:        date,
		Category:    c,
	})
	require.NoError(t, err)
	require.NotZero(t, tx.ID)
	return tx
}

var day = core.NewDate(2024, time.March, 10)

func testCategoryCRUD(t *testing.T, s storage.Store) {
	ctx := context.Background()
	c := mustCategory(t, s, "Food", 1)

	got, err := s.GetCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food", got.Name)
	assert.True(t, got.OwnedBy(1))

	got.Name = "Groceries"
	_, err = s.UpdateCategory(ctx, got)
	require.NoError(t, err)
	got, err = s.GetCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Name)

	_, err = s.GetCategory(ctx, 9999)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.UpdateCategory(ctx, core.Category{ID: 9999, Name: "x"})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.DeleteCategory(ctx, 9999), core.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, 9999), core.ErrNotFound)
}

func testCascadeDelete(t *testing.T, s storage.Store) {
	ctx := context.Background()
	food := mustCategory(t, s, "Food", 1)
	rent := mustCategory(t, s, "Rent", 1)
	a := mustTransaction(t, s, food, "Lunch", 12, core.Expense, day)
	b := mustTransaction(t, s, food, "Dinner", 30, core.Expense, day)
	keep := mustTransaction(t, s, rent, "March", 900, core.Expense, day)

	require.NoError(t, s.DeleteCategory(ctx, food.ID))

	for _, id := range []int64{a.ID, b.ID} {
		_, err := s.GetTransaction(ctx, id)
		assert.ErrorIs(t, err, core.ErrNotFound)
	}
	got, err := s.GetTransaction(ctx, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rent", got.Category.Name)
}

func testOwnerScope(t *testing.T, s storage.Store) {
	ctx := context.Background()
	mine := mustCategory(t, s, "Food", 1)
	theirs := mustCategory(t, s, "Food", 2)
	mustTransaction(t, s, mine, "Lunch", 12, core.Expense, day)
	mustTransaction(t, s, theirs, "Lunch", 12, core.Expense, day)

	cats, total, err := s.FindCategories(ctx, query.ForOwner(1))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, cats, 1)
	assert.Equal(t, mine.ID, cats[0].ID)

	txs, total, err := s.FindTransactions(ctx, query.ForOwner(2))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Category.OwnedBy(2))

	_, total, err = s.FindTransactions(ctx, query.ForOwner(3))
	require.NoError(t, err)
	assert.Zero(t, total)
}

func testTransactionFilters(t *testing.T, s storage.Store) {
	ctx := context.Background()
	food := mustCategory(t, s, "Food", 1)
	salary := mustCategory(t, s, "Salary", 1)
	lunch := mustTransaction(t, s, food, "Lunch", 12.5, core.Expense, day)
	pay := mustTransaction(t, s, salary, "Pay_day 100%", 100, core.Income, day.AddDays(-3))
	old := mustTransaction(t, s, food, "Snack", 3, core.Expense, day.AddDays(-40))

	find := func(preds ...query.Predicate) []int64 {
		t.Helper()
		txs, total, err := s.FindTransactions(ctx, query.Build(query.ForOwner(1), preds...))
		require.NoError(t, err)
		require.Len(t, txs, total)
		ids := make([]int64, 0, len(txs))
		for _, tx := range txs {
			ids = append(ids, tx.ID)
		}
		return ids
	}

	assert.Equal(t, []int64{lunch.ID, old.ID}, find(query.Search("food")))
	assert.Equal(t, []int64{pay.ID}, find(query.Search("100.0")))
	assert.Equal(t, []int64{lunch.ID}, find(query.Search("12.5")))
	assert.Equal(t, []int64{pay.ID}, find(query.Search("INCOME")))
	assert.Equal(t, []int64{lunch.ID, pay.ID, old.ID}, find(query.Search("2024-")))
	assert.Empty(t, find(query.Search("h_d")), "underscore is literal")
	assert.Empty(t, find(query.Search("h%n")), "percent is literal")
	assert.Equal(t, []int64{pay.ID}, find(query.Search("y_d")))
	assert.Equal(t, []int64{pay.ID}, find(query.Search("0%")))

	assert.Equal(t, []int64{lunch.ID}, find(query.Where(query.EqualTo(query.FieldAmount, 12.5))))
	assert.Equal(t, []int64{pay.ID}, find(query.Where(query.EqualTo(query.FieldType, core.Income))))
	assert.Equal(t, []int64{lunch.ID}, find(query.Where(query.EqualTo(query.FieldDate, day))))
	assert.Empty(t, find(query.Where(query.EqualTo(query.FieldCategory, "foo"))), "category match is exact")
	assert.Equal(t, []int64{lunch.ID, pay.ID}, find(query.DateRange(day.AddDays(-7), day)))
	assert.Equal(t, []int64{lunch.ID}, find(
		query.Search("food"),
		query.Where(query.Contains(query.FieldTitle, "unc")),
	))
	assert.Equal(t, []int64{old.ID}, find(query.Where(query.EqualTo(query.FieldCategoryID, food.ID)), query.Where(query.Contains(query.FieldTitle, "SNACK"))))
}

func testSortAndWindow(t *testing.T, s storage.Store) {
	ctx := context.Background()
	c := mustCategory(t, s, "Misc", 1)
	var ids []int64
	for i, amount := range []float64{50, 10, 50, 30} {
		tx := mustTransaction(t, s, c, "T", amount, core.Expense, day.AddDays(i))
		ids = append(ids, tx.ID)
	}

	txs, total, err := s.FindTransactions(ctx, query.ForOwner(1).OrderBy(query.FieldAmount))
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	got := make([]int64, 0, len(txs))
	for _, tx := range txs {
		got = append(got, tx.ID)
	}
	assert.Equal(t, []int64{ids[1], ids[3], ids[0], ids[2]}, got, "ties broken by id")

	txs, total, err = s.FindTransactions(ctx, query.ForOwner(1).Window(2, 2))
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, txs, 2)
	assert.Equal(t, ids[2], txs[0].ID)

	txs, total, err = s.FindTransactions(ctx, query.ForOwner(1).Window(10, 10))
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Empty(t, txs)
}

func testUpdateKeepsDate(t *testing.T, s storage.Store) {
	ctx := context.Background()
	food := mustCategory(t, s, "Food", 1)
	rent := mustCategory(t, s, "Rent", 1)
	tx := mustTransaction(t, s, food, "Lunch", 12, core.Expense, day)

	tx.Title = "Brunch"
	tx.Date = day.AddDays(5)
	tx.Category = rent
	updated, err := s.UpdateTransaction(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, "Brunch", updated.Title)
	assert.Equal(t, "Rent", updated.Category.Name)
	assert.True(t, updated.Date.Equal(day), "date is immutable")
}

func testOrphan(t *testing.T, s storage.Store) {
	ctx := context.Background()
	c := mustCategory(t, s, "Food", 1)
	mustCategory(t, s, "Other", 2)
	tx := mustTransaction(t, s, c, "Lunch", 12, core.Expense, day)

	n, err := s.OrphanCategories(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Nil(t, got.EffectiveOwner())

	_, total, err := s.FindCategories(ctx, query.ForOwner(1))
	require.NoError(t, err)
	assert.Zero(t, total)
}

func testUnicodeCaseFolding(t *testing.T, s storage.Store) {
	ctx := context.Background()
	epicerie := mustCategory(t, s, "Épicerie", 1)
	mustCategory(t, s, "Epicerie", 1)
	dessert := mustTransaction(t, s, epicerie, "Crème brûlée", 7, core.Expense, day)

	for _, term := range []string{"épicerie", "ÉPICERIE", "ÉpIcErIe"} {
		cats, total, err := s.FindCategories(ctx, query.Build(query.ForOwner(1), query.Where(query.Contains(query.FieldName, term))))
		require.NoError(t, err)
		require.Equal(t, 1, total, term)
		assert.Equal(t, epicerie.ID, cats[0].ID)
	}

	txs, total, err := s.FindTransactions(ctx, query.Build(query.ForOwner(1), query.Search("BRÛLÉE")))
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, dessert.ID, txs[0].ID)
}

func testExtremeAmountSearch(t *testing.T, s storage.Store) {
	ctx := context.Background()
	c := mustCategory(t, s, "Big", 1)
	big := mustTransaction(t, s, c, "House", 1e15, core.Income, day)
	tiny := mustTransaction(t, s, c, "Gum", 0.0001, core.Expense, day)

	find := func(term string) []int64 {
		t.Helper()
		txs, _, err := s.FindTransactions(ctx, query.Build(query.ForOwner(1), query.Where(query.Contains(query.FieldAmount, term))))
		require.NoError(t, err)
		ids := []int64{}
		for _, tx := range txs {
			ids = append(ids, tx.ID)
		}
		return ids
	}
	assert.Equal(t, []int64{big.ID}, find(query.AmountText(1e15)))
	assert.Equal(t, []int64{tiny.ID}, find(query.AmountText(0.0001)))
	assert.Empty(t, find("e+"), "amounts never render in exponent form")
}

func testLastPageWindow(t *testing.T, s storage.Store) {
	ctx := context.Background()
	mustCategory(t, s, "Only", 1)

	cats, total, err := s.FindCategories(ctx, query.Build(query.ForOwner(1), query.Paginate(query.MaxPage)))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Empty(t, cats)
}
