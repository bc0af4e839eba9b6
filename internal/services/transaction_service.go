package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/query"
	"fintrack/internal/storage"
)

// TransactionInput carries the client-supplied fields. Nil means absent.
// Category is a category name, resolved against the caller's categories.
type TransactionInput struct {
	Title       *string
	Amount      *float64
	Type        *string
	Description *string
	Category    *string
}

const msgRequired = "This field is required."

// TransactionService runs transaction use cases for an authenticated identity.
type TransactionService struct {
	store storage.Store
	publisher
}

func NewTransactionService(store storage.Store, sink core.ChangeSink, opts ...Option) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: newPublisher(sink, log.ComponentTxn, opts),
	}
}

// Create adds a transaction to the category categoryID, dated today. A
// category name in the input wins over the path category.
func (s *TransactionService) Create(ctx context.Context, identity core.UserID, categoryID int64, in TransactionInput) (core.Transaction, error) {
	if err := requireIdentity(identity); err != nil {
		return core.Transaction{}, err
	}
	cat, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := AuthorizeCategory(identity, cat); err != nil {
		return core.Transaction{}, err
	}

	verr := core.NewValidationError()
	if in.Title == nil {
		verr.Add("title", msgRequired)
	}
	if in.Amount == nil {
		verr.Add("amount", msgRequired)
	}
	if in.Type == nil {
		verr.Add("transaction_type", msgRequired)
	}
	if in.Description == nil {
		verr.Add("description", msgRequired)
	}

	t := core.Transaction{Category: cat}
	apply(&t, in)
	if in.Category != nil {
		resolved, err := s.resolveCategory(ctx, identity, *in.Category, verr)
		if err != nil {
			return core.Transaction{}, err
		}
		if resolved != nil {
			t.Category = *resolved
		}
	}
	if err := merged(verr, t.Validate()); err != nil {
		return core.Transaction{}, err
	}

	t.Date = core.Today(s.clock)
	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.publish(ctx, core.Change{
		Kind:          core.TransactionCreated,
		Owner:         identity,
		CategoryID:    created.Category.ID,
		TransactionID: created.ID,
	})
	return created, nil
}

func (s *TransactionService) Get(ctx context.Context, identity core.UserID, id int64) (core.Transaction, error) {
	if err := requireIdentity(identity); err != nil {
		return core.Transaction{}, err
	}
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := AuthorizeTransaction(identity, t); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// Update merges the supplied fields over the stored transaction, validates
// the result and persists it. Absent fields keep their stored values; the
// date never changes.
func (s *TransactionService) Update(ctx context.Context, identity core.UserID, id int64, in TransactionInput) (core.Transaction, error) {
	t, err := s.Get(ctx, identity, id)
	if err != nil {
		return core.Transaction{}, err
	}

	verr := core.NewValidationError()
	apply(&t, in)
	if in.Category != nil {
		resolved, err := s.resolveCategory(ctx, identity, *in.Category, verr)
		if err != nil {
			return core.Transaction{}, err
		}
		if resolved != nil {
			t.Category = *resolved
		}
	}
	if err := merged(verr, t.Validate()); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.store.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, err)
	}
	s.publish(ctx, core.Change{
		Kind:          core.TransactionUpdated,
		Owner:         identity,
		CategoryID:    updated.Category.ID,
		TransactionID: updated.ID,
	})
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, identity core.UserID, id int64) error {
	t, err := s.Get(ctx, identity, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	s.publish(ctx, core.Change{
		Kind:          core.TransactionDeleted,
		Owner:         identity,
		CategoryID:    t.Category.ID,
		TransactionID: id,
	})
	return nil
}

// List returns one page of identity's transactions matching p.
func (s *TransactionService) List(ctx context.Context, identity core.UserID, p query.TransactionParams) (query.Page[core.Transaction], error) {
	if err := requireIdentity(identity); err != nil {
		return query.Page[core.Transaction]{}, err
	}
	q, err := query.TransactionQuery(identity, p)
	if err != nil {
		return query.Page[core.Transaction]{}, err
	}
	items, total, err := s.store.FindTransactions(ctx, q)
	if err != nil {
		return query.Page[core.Transaction]{}, fmt.Errorf("list transactions: %w", err)
	}
	if err := query.CheckPage(p.Page, total); err != nil {
		return query.Page[core.Transaction]{}, err
	}
	return query.NewPage(items, total, p.Page), nil
}

// resolveCategory finds identity's category called name. When several share
// the name the oldest wins. An unknown name is recorded on verr and yields nil.
func (s *TransactionService) resolveCategory(ctx context.Context, identity core.UserID, name string, verr *core.ValidationError) (*core.Category, error) {
	q := query.Build(query.ForOwner(identity), query.Where(query.EqualTo(query.FieldName, name))).Window(1, 0)
	cats, _, err := s.store.FindCategories(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("resolve category %q: %w", name, err)
	}
	if len(cats) == 0 {
		verr.Add("category", fmt.Sprintf("Category %q does not exist.", name))
		return nil, nil
	}
	return &cats[0], nil
}

func apply(t *core.Transaction, in TransactionInput) {
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Amount != nil {
		t.Amount = *in.Amount
	}
	if in.Type != nil {
		t.Type = core.TransactionType(*in.Type)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
}

// merged folds err's field messages into verr, keeping messages already
// recorded for a field, and returns verr or nil.
func merged(verr *core.ValidationError, err error) error {
	var v *core.ValidationError
	if errors.As(err, &v) {
		for field, msgs := range v.Fields {
			if _, ok := verr.Fields[field]; ok {
				continue
			}
			for _, msg := range msgs {
				verr.Add(field, msg)
			}
		}
	} else if err != nil {
		return err
	}
	return verr.OrNil()
}
