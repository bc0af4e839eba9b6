package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/storage/storagetest"
)

func newTestRepository(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "fintrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepositoryContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store { return newTestRepository(t) })
}

func TestSQLiteRepositoryRejectsUnknownCategory(t *testing.T) {
	repo := newTestRepository(t)
	_, err := repo.CreateTransaction(context.Background(), core.Transaction{
		Title:       "Lunch",
		Amount:      1,
		Type:        core.Expense,
		Description: "d",
		Category:    core.Category{ID: 404},
	})
	assert.Error(t, err, "foreign keys are enforced")
}

func TestSQLiteRepositoryReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.db")
	repo, err := storage.NewSQLiteRepository(path)
	require.NoError(t, err)
	c, err := repo.CreateCategory(context.Background(), core.Category{Name: "Food", Owner: core.OwnerRef(1)})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = storage.NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()
	got, err := repo.GetCategory(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food", got.Name)
	assert.NoError(t, repo.Ping(context.Background()))
}

func TestNewSQLiteRepositoryEmptyPath(t *testing.T) {
	_, err := storage.NewSQLiteRepository("  ")
	assert.Error(t, err)
}
