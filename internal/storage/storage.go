// Package storage defines the persistence ports for categories and
// transactions and provides the SQLite implementation.
package storage

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/query"
)

type (
	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		GetCategory(ctx context.Context, id int64) (core.Category, error)
		// UpdateCategory replaces name and owner of an existing category.
		UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
		// DeleteCategory removes the category and all its transactions atomically.
		DeleteCategory(ctx context.Context, id int64) error
		// FindCategories returns one window of matches plus the total match count.
		FindCategories(ctx context.Context, q query.Query) ([]core.Category, int, error)
		// OrphanCategories clears the owner of every category owned by owner.
		OrphanCategories(ctx context.Context, owner core.UserID) (int, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		// GetTransaction returns the transaction with its category joined.
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
		// UpdateTransaction persists the mutable fields; the date is never written.
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
		FindTransactions(ctx context.Context, q query.Query) ([]core.Transaction, int, error)
	}

	// Store is the full persistence port used by the services.
	Store interface {
		CategoryStore
		TransactionStore
		Ping(ctx context.Context) error
		Close() error
	}
)
