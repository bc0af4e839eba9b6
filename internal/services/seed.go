package services

import (
	"context"
	"fmt"
	"math/rand/v2"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/query"
)

// SeedCount is how many transactions a demo seed creates.
const SeedCount = 19

const seedFirstIndex = 101

// Seed creates n random transactions spread over identity's categories:
// titles "Transaction <i>", whole amounts between 100 and 1000 and a random
// type. It fails with a validation error when identity has no categories.
func (s *TransactionService) Seed(ctx context.Context, identity core.UserID, n int) ([]core.Transaction, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	cats, _, err := s.store.FindCategories(ctx, query.ForOwner(identity))
	if err != nil {
		return nil, fmt.Errorf("seed: list categories: %w", err)
	}
	if len(cats) == 0 {
		return nil, core.FieldError("category", "Create a category before adding random transactions.")
	}

	types := []core.TransactionType{core.Income, core.Expense}
	today := core.Today(s.clock)
	out := make([]core.Transaction, 0, n)
	for i := seedFirstIndex; i < seedFirstIndex+n; i++ {
		t := core.Transaction{
			Title:       fmt.Sprintf("Transaction %d", i),
			Amount:      float64(100 + rand.IntN(901)),
			Type:        types[rand.IntN(len(types))],
			Description: fmt.Sprintf("Description %d", i),
			Date:        today,
			Category:    cats[rand.IntN(len(cats))],
		}
		created, err := s.store.CreateTransaction(ctx, t)
		if err != nil {
			return out, fmt.Errorf("seed transaction %d: %w", i, err)
		}
		out = append(out, created)
		s.publish(ctx, core.Change{
			Kind:          core.TransactionCreated,
			Owner:         identity,
			CategoryID:    created.Category.ID,
			TransactionID: created.ID,
		})
	}
	s.logger.InfoContext(ctx, "Random transactions added", log.FieldIdentity, identity, log.FieldCount, len(out))
	return out, nil
}

// DefaultCategoryNames are the starter categories created by SeedCategories.
var DefaultCategoryNames = []string{
	"Food", "Transport", "Shopping", "Entertainment", "Bills", "Health", "Education", "Others",
}

// SeedCategories gives identity the default starter categories.
func (s *CategoryService) SeedCategories(ctx context.Context, identity core.UserID) ([]core.Category, error) {
	out := make([]core.Category, 0, len(DefaultCategoryNames))
	for _, name := range DefaultCategoryNames {
		c, err := s.Create(ctx, identity, CategoryInput{Name: name})
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	s.logger.InfoContext(ctx, "Default categories added", log.FieldIdentity, identity, log.FieldCount, len(out))
	return out, nil
}
