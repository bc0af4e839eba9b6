// Package memory is an in-process storage.Store used by default and in tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/query"
	"fintrack/internal/storage"
)

// transactions keep only the category id; the category is joined on read.
type txRow struct {
	core.Transaction
	categoryID int64
}

type Store struct {
	mu      sync.RWMutex
	cats    []core.Category
	txs     []txRow
	nextCat int64
	nextTx  int64
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{nextCat: 1, nextTx: 1}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextCat
	s.nextCat++
	c.Owner = copyOwner(c.Owner)
	s.cats = append(s.cats, c)
	return c, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.categoryIndex(id)
	if i < 0 {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	return cloneCategory(s.cats[i]), nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndex(c.ID)
	if i < 0 {
		return core.Category{}, fmt.Errorf("category %d: %w", c.ID, core.ErrNotFound)
	}
	c.Owner = copyOwner(c.Owner)
	s.cats[i] = c
	return cloneCategory(c), nil
}

// DeleteCategory drops the category and its transactions under one lock.
func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndex(id)
	if i < 0 {
		return fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	s.cats = slices.Delete(s.cats, i, i+1)
	s.txs = slices.DeleteFunc(s.txs, func(r txRow) bool { return r.categoryID == id })
	return nil
}

func (s *Store) FindCategories(_ context.Context, q query.Query) ([]core.Category, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []core.Category
	for _, c := range s.cats {
		ok, err := matches(q, func(f query.Field) (any, bool) { return categoryField(c, f) })
		if err != nil {
			return nil, 0, err
		}
		if ok {
			matched = append(matched, cloneCategory(c))
		}
	}
	if err := sortBy(matched, q.SortBy, categoryField, func(c core.Category) int64 { return c.ID }); err != nil {
		return nil, 0, err
	}
	return window(matched, q), len(matched), nil
}

func (s *Store) OrphanCategories(_ context.Context, owner core.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.cats {
		if s.cats[i].OwnedBy(owner) {
			s.cats[i].Owner = nil
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categoryIndex(t.Category.ID) < 0 {
		return core.Transaction{}, fmt.Errorf("category %d: %w", t.Category.ID, core.ErrNotFound)
	}
	t.ID = s.nextTx
	s.nextTx++
	s.txs = append(s.txs, txRow{Transaction: t, categoryID: t.Category.ID})
	return s.joined(s.txs[len(s.txs)-1]), nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.transactionIndex(id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return s.joined(s.txs[i]), nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transactionIndex(t.ID)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", t.ID, core.ErrNotFound)
	}
	if s.categoryIndex(t.Category.ID) < 0 {
		return core.Transaction{}, fmt.Errorf("category %d: %w", t.Category.ID, core.ErrNotFound)
	}
	row := &s.txs[i]
	row.Title = t.Title
	row.Amount = t.Amount
	row.Type = t.Type
	row.Description = t.Description
	row.categoryID = t.Category.ID
	return s.joined(*row), nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transactionIndex(id)
	if i < 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	s.txs = slices.Delete(s.txs, i, i+1)
	return nil
}

func (s *Store) FindTransactions(_ context.Context, q query.Query) ([]core.Transaction, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []core.Transaction
	for _, r := range s.txs {
		t := s.joined(r)
		ok, err := matches(q, func(f query.Field) (any, bool) { return transactionField(t, f) })
		if err != nil {
			return nil, 0, err
		}
		if ok {
			matched = append(matched, t)
		}
	}
	if err := sortBy(matched, q.SortBy, transactionField, func(t core.Transaction) int64 { return t.ID }); err != nil {
		return nil, 0, err
	}
	return window(matched, q), len(matched), nil
}

func (s *Store) categoryIndex(id int64) int {
	return slices.IndexFunc(s.cats, func(c core.Category) bool { return c.ID == id })
}

func (s *Store) transactionIndex(id int64) int {
	return slices.IndexFunc(s.txs, func(r txRow) bool { return r.ID == id })
}

func (s *Store) joined(r txRow) core.Transaction {
	t := r.Transaction
	if i := s.categoryIndex(r.categoryID); i >= 0 {
		t.Category = cloneCategory(s.cats[i])
	}
	return t
}

func categoryField(c core.Category, f query.Field) (any, bool) {
	switch f {
	case query.FieldID:
		return c.ID, true
	case query.FieldOwner:
		if c.Owner == nil {
			return nil, true
		}
		return *c.Owner, true
	case query.FieldName:
		return c.Name, true
	}
	return nil, false
}

func transactionField(t core.Transaction, f query.Field) (any, bool) {
	switch f {
	case query.FieldID:
		return t.ID, true
	case query.FieldOwner:
		if t.Category.Owner == nil {
			return nil, true
		}
		return *t.Category.Owner, true
	case query.FieldTitle:
		return t.Title, true
	case query.FieldAmount:
		return t.Amount, true
	case query.FieldType:
		return t.Type, true
	case query.FieldDescription:
		return t.Description, true
	case query.FieldDate:
		return t.Date, true
	case query.FieldCategory:
		return t.Category.Name, true
	case query.FieldCategoryID:
		return t.Category.ID, true
	}
	return nil, false
}

func matches(q query.Query, field func(query.Field) (any, bool)) (bool, error) {
	for _, clause := range q.Where {
		if len(clause) == 0 {
			continue
		}
		satisfied := false
		for _, cond := range clause {
			v, ok := field(cond.Field)
			if !ok {
				return false, fmt.Errorf("unsupported field %q", cond.Field)
			}
			hit, err := evaluate(cond, v)
			if err != nil {
				return false, err
			}
			if hit {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false, nil
		}
	}
	return true, nil
}

func evaluate(c query.Condition, v any) (bool, error) {
	// A missing owner never matches anything.
	if v == nil {
		return false, nil
	}
	switch c.Op {
	case query.Eq:
		n, err := compare(v, c.Value)
		return err == nil && n == 0, err
	case query.IContains:
		term, ok := c.Value.(string)
		if !ok {
			return false, fmt.Errorf("icontains on %q needs a string, got %T", c.Field, c.Value)
		}
		return query.ContainsFold(query.Text(v), term), nil
	case query.Between:
		lo, err := compare(v, c.Value)
		if err != nil {
			return false, err
		}
		hi, err := compare(v, c.Upper)
		if err != nil {
			return false, err
		}
		return lo >= 0 && hi <= 0, nil
	default:
		return false, fmt.Errorf("unsupported operator %s", c.Op)
	}
}

// compare orders a stored value against a condition value of the same type.
func compare(a, b any) (int, error) {
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y), nil
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmp.Compare(x, y), nil
		}
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y), nil
		}
	case core.UserID:
		if y, ok := b.(core.UserID); ok {
			return cmp.Compare(x, y), nil
		}
	case core.TransactionType:
		if y, ok := b.(core.TransactionType); ok {
			return cmp.Compare(x, y), nil
		}
	case core.Date:
		if y, ok := b.(core.Date); ok {
			return cmp.Compare(x.String(), y.String()), nil
		}
	}
	return 0, fmt.Errorf("cannot compare %T with %T", a, b)
}

func sortBy[T any](items []T, f query.Field, field func(T, query.Field) (any, bool), id func(T) int64) error {
	if f == "" || f == query.FieldID {
		slices.SortStableFunc(items, func(a, b T) int { return cmp.Compare(id(a), id(b)) })
		return nil
	}
	if len(items) > 0 {
		if _, ok := field(items[0], f); !ok {
			return fmt.Errorf("unsupported sort field %q", f)
		}
	}
	slices.SortStableFunc(items, func(a, b T) int {
		va, _ := field(a, f)
		vb, _ := field(b, f)
		if n, err := compare(va, vb); err == nil && n != 0 {
			return n
		}
		return cmp.Compare(id(a), id(b))
	})
	return nil
}

func window[T any](items []T, q query.Query) []T {
	if q.Offset < 0 || q.Offset >= len(items) {
		return nil
	}
	items = items[q.Offset:]
	if q.Limit > 0 && q.Limit < len(items) {
		items = items[:q.Limit]
	}
	return items
}

func copyOwner(o *core.UserID) *core.UserID {
	if o == nil {
		return nil
	}
	return core.OwnerRef(*o)
}

func cloneCategory(c core.Category) core.Category {
	c.Owner = copyOwner(c.Owner)
	return c
}
