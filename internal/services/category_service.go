package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/query"
	"fintrack/internal/storage"
)

// CategoryInput is the writable part of a category.
type CategoryInput struct {
	Name string
}

// CategoryService runs category use cases for an authenticated identity.
type CategoryService struct {
	store storage.CategoryStore
	publisher
}

func NewCategoryService(store storage.CategoryStore, sink core.ChangeSink, opts ...Option) *CategoryService {
	return &CategoryService{
		store:     store,
		publisher: newPublisher(sink, log.ComponentCategory, opts),
	}
}

// Create stores a new category owned by identity. Duplicate names are allowed.
func (s *CategoryService) Create(ctx context.Context, identity core.UserID, in CategoryInput) (core.Category, error) {
	if err := requireIdentity(identity); err != nil {
		return core.Category{}, err
	}
	c := core.Category{Name: in.Name, Owner: core.OwnerRef(identity)}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.publish(ctx, core.Change{Kind: core.CategoryCreated, Owner: identity, CategoryID: created.ID})
	return created, nil
}

func (s *CategoryService) Get(ctx context.Context, identity core.UserID, id int64) (core.Category, error) {
	if err := requireIdentity(identity); err != nil {
		return core.Category{}, err
	}
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if err := AuthorizeCategory(identity, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// Update replaces the category's name. The owner stays identity.
func (s *CategoryService) Update(ctx context.Context, identity core.UserID, id int64, in CategoryInput) (core.Category, error) {
	c, err := s.Get(ctx, identity, id)
	if err != nil {
		return core.Category{}, err
	}
	c.Name = in.Name
	c.Owner = core.OwnerRef(identity)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	updated, err := s.store.UpdateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", id, err)
	}
	s.publish(ctx, core.Change{Kind: core.CategoryUpdated, Owner: identity, CategoryID: id})
	return updated, nil
}

// Delete removes the category together with all its transactions.
func (s *CategoryService) Delete(ctx context.Context, identity core.UserID, id int64) error {
	if _, err := s.Get(ctx, identity, id); err != nil {
		return err
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	s.publish(ctx, core.Change{Kind: core.CategoryDeleted, Owner: identity, CategoryID: id})
	return nil
}

// List returns one page of identity's categories matching p.
func (s *CategoryService) List(ctx context.Context, identity core.UserID, p query.CategoryParams) (query.Page[core.Category], error) {
	if err := requireIdentity(identity); err != nil {
		return query.Page[core.Category]{}, err
	}
	q, err := query.CategoryQuery(identity, p)
	if err != nil {
		return query.Page[core.Category]{}, err
	}
	items, total, err := s.store.FindCategories(ctx, q)
	if err != nil {
		return query.Page[core.Category]{}, fmt.Errorf("list categories: %w", err)
	}
	if err := query.CheckPage(p.Page, total); err != nil {
		return query.Page[core.Category]{}, err
	}
	return query.NewPage(items, total, p.Page), nil
}

// OrphanOwner detaches every category from owner, as happens when the user is removed.
func (s *CategoryService) OrphanOwner(ctx context.Context, owner core.UserID) (int, error) {
	if err := requireIdentity(owner); err != nil {
		return 0, err
	}
	n, err := s.store.OrphanCategories(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("orphan categories of %d: %w", owner, err)
	}
	s.logger.InfoContext(ctx, "Categories orphaned", "owner", owner, log.FieldCount, n)
	return n, nil
}
