package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/oklog/ulid/v2"

	"github.com/spendwise/spendwise/internal/authz"
	"github.com/spendwise/spendwise/internal/metrics"
	"github.com/spendwise/spendwise/internal/model"
	"github.com/spendwise/spendwise/internal/repository"
)

const (
	maxCategoryNameLength = 100
	maxCategoryIconLength = 32
)

// CategoryStore is the datastore surface the category service needs.
// Satisfied by *repository.Repository.
type CategoryStore interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	ListCategories(ctx context.Context, userID string, limit int) ([]*model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id string) error
	CountExpensesByCategory(ctx context.Context, categoryID string) (int64, error)
}

// CategoryService handles category business logic.
type CategoryService struct {
	store    CategoryStore
	cache    ListCache
	cacheTTL time.Duration
	metrics  metrics.Recorder
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(store CategoryStore, cache ListCache, cacheTTL time.Duration, recorder metrics.Recorder) *CategoryService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CategoryService{
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  recorder,
	}
}

// CreateCategoryInput defines input for creating a category.
type CreateCategoryInput struct {
	Name string
	Icon string
}

func (in CreateCategoryInput) validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, maxCategoryNameLength)),
		validation.Field(&in.Icon, validation.Length(0, maxCategoryIconLength)),
	)
}

// List returns the categories visible to the principal: rows it owns plus
// shared rows, ordered by name. limit <= 0 means no limit.
func (s *CategoryService) List(ctx context.Context, principalID string, limit int) ([]*model.Category, error) {
	// Only the unfiltered list is cached; limited requests go to the store.
	if s.cache != nil && limit <= 0 {
		if data, err := s.cache.GetList(ctx, metrics.ResourceCategory, principalID); err == nil {
			var categories []*model.Category
			if err := json.Unmarshal(data, &categories); err == nil {
				s.metrics.IncListCacheHit(metrics.ResourceCategory)
				return categories, nil
			}
		}
		s.metrics.IncListCacheMiss(metrics.ResourceCategory)
	}

	categories, err := s.store.ListCategories(ctx, principalID, limit)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	if s.cache != nil && limit <= 0 {
		if data, err := json.Marshal(categories); err == nil {
			// Best effort - a failed write just means a cache miss next time
			_ = s.cache.SetList(ctx, metrics.ResourceCategory, principalID, data, s.cacheTTL)
		}
	}

	return categories, nil
}

// Create inserts a new category owned by the principal. Any owner the caller
// supplied is ignored; the stamp comes from the session, never the payload.
func (s *CategoryService) Create(ctx context.Context, principalID string, input CreateCategoryInput) (*model.Category, error) {
	if err := input.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := time.Now().UTC()
	owner := principalID
	category := &model.Category{
		ID:        ulid.Make().String(),
		Name:      input.Name,
		Icon:      input.Icon,
		OwnerID:   &owner,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.metrics.IncCreated(metrics.ResourceCategory)
	s.invalidate(ctx, principalID)

	return category, nil
}

// UpdateCategoryInput defines input for a partial category update.
// Nil fields are left unchanged. The owner is immutable.
type UpdateCategoryInput struct {
	Name *string
	Icon *string
}

func (in UpdateCategoryInput) validate() error {
	fields := []*validation.FieldRules{}
	if in.Name != nil {
		fields = append(fields, validation.Field(&in.Name, validation.Required, validation.Length(1, maxCategoryNameLength)))
	}
	if in.Icon != nil {
		fields = append(fields, validation.Field(&in.Icon, validation.Length(0, maxCategoryIconLength)))
	}
	return validation.ValidateStruct(&in, fields...)
}

// Update applies a partial update to a category the principal owns. The
// row's owner is re-read from the store immediately before the write; a
// client-side claim is never trusted.
func (s *CategoryService) Update(ctx context.Context, principalID, id string, input UpdateCategoryInput) (*model.Category, error) {
	if err := input.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	category, err := s.store.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, s.storeError("get category", err)
	}

	if !authz.CanMutate(principalID, category) {
		s.metrics.IncForbidden(metrics.ResourceCategory)
		return nil, ErrForbidden
	}

	if input.Name != nil {
		category.Name = *input.Name
	}
	if input.Icon != nil {
		category.Icon = *input.Icon
	}
	category.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return nil, s.storeError("update category", err)
	}

	s.metrics.IncUpdated(metrics.ResourceCategory)
	s.invalidate(ctx, principalID)

	return category, nil
}

// Delete removes a category the principal owns, refusing while any expense
// still references it.
func (s *CategoryService) Delete(ctx context.Context, principalID, id string) error {
	category, err := s.store.GetCategoryByID(ctx, id)
	if err != nil {
		return s.storeError("get category", err)
	}

	if !authz.CanMutate(principalID, category) {
		s.metrics.IncForbidden(metrics.ResourceCategory)
		return ErrForbidden
	}

	dependents, err := s.store.CountExpensesByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("count expenses for category: %w", err)
	}
	if !authz.CanDelete(dependents) {
		s.metrics.IncInUse(metrics.ResourceCategory)
		return fmt.Errorf("%w: %d expenses reference this category", ErrInUse, dependents)
	}

	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return s.storeError("delete category", err)
	}

	s.metrics.IncDeleted(metrics.ResourceCategory)
	s.invalidate(ctx, principalID)

	return nil
}

// invalidate drops the principal's cached category list after a mutation.
func (s *CategoryService) invalidate(ctx context.Context, principalID string) {
	if s.cache != nil {
		_ = s.cache.InvalidateList(ctx, metrics.ResourceCategory, principalID)
	}
}

// storeError maps repository sentinels to service errors. ErrCategoryInUse
// is the FK-restrict backstop for the check-then-delete race.
func (s *CategoryService) storeError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrCategoryNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrCategoryInUse):
		s.metrics.IncInUse(metrics.ResourceCategory)
		return fmt.Errorf("%w: expenses reference this category", ErrInUse)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
