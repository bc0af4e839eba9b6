package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store { return New() })
}

func TestCreateTransactionNeedsCategory(t *testing.T) {
	s := New()
	_, err := s.CreateTransaction(context.Background(), core.Transaction{Title: "x", Category: core.Category{ID: 42}})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestReturnedCategoriesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	c, err := s.CreateCategory(ctx, core.Category{Name: "Food", Owner: core.OwnerRef(1)})
	require.NoError(t, err)

	*c.Owner = 2
	got, err := s.GetCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.OwnedBy(1))
}
