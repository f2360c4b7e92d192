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

// BudgetStore is the datastore surface the budget service needs.
// Satisfied by *repository.Repository.
type BudgetStore interface {
	CreateBudget(ctx context.Context, budget *model.Budget) error
	GetBudgetByID(ctx context.Context, id string) (*model.Budget, error)
	ListBudgets(ctx context.Context, userID string) ([]*model.Budget, error)
	UpdateBudget(ctx context.Context, budget *model.Budget) error
	DeleteBudget(ctx context.Context, id string) error
	CountExpensesByBudget(ctx context.Context, budgetID string) (int64, error)
}

// BudgetService handles budget business logic.
type BudgetService struct {
	store    BudgetStore
	cache    ListCache
	cacheTTL time.Duration
	metrics  metrics.Recorder
}

// NewBudgetService creates a new BudgetService.
func NewBudgetService(store BudgetStore, cache ListCache, cacheTTL time.Duration, recorder metrics.Recorder) *BudgetService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &BudgetService{
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  recorder,
	}
}

// CreateBudgetInput defines input for creating a budget.
type CreateBudgetInput struct {
	AmountCents int64
}

func (in CreateBudgetInput) validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.AmountCents, validation.Required, validation.Min(int64(1))),
	)
}

// List returns the budgets visible to the principal: rows it owns plus
// shared rows.
func (s *BudgetService) List(ctx context.Context, principalID string) ([]*model.Budget, error) {
	if s.cache != nil {
		if data, err := s.cache.GetList(ctx, metrics.ResourceBudget, principalID); err == nil {
			var budgets []*model.Budget
			if err := json.Unmarshal(data, &budgets); err == nil {
				s.metrics.IncListCacheHit(metrics.ResourceBudget)
				return budgets, nil
			}
		}
		s.metrics.IncListCacheMiss(metrics.ResourceBudget)
	}

	budgets, err := s.store.ListBudgets(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(budgets); err == nil {
			_ = s.cache.SetList(ctx, metrics.ResourceBudget, principalID, data, s.cacheTTL)
		}
	}

	return budgets, nil
}

// Create inserts a new budget owned by the principal. The owner stamp comes
// from the session, never the payload.
func (s *BudgetService) Create(ctx context.Context, principalID string, input CreateBudgetInput) (*model.Budget, error) {
	if err := input.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := time.Now().UTC()
	owner := principalID
	budget := &model.Budget{
		ID:          ulid.Make().String(),
		AmountCents: input.AmountCents,
		OwnerID:     &owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateBudget(ctx, budget); err != nil {
		return nil, fmt.Errorf("create budget: %w", err)
	}

	s.metrics.IncCreated(metrics.ResourceBudget)
	s.invalidate(ctx, principalID)

	return budget, nil
}

// UpdateBudgetInput defines input for a partial budget update. Nil fields
// are left unchanged. The owner is immutable.
type UpdateBudgetInput struct {
	AmountCents *int64
}

func (in UpdateBudgetInput) validate() error {
	if in.AmountCents != nil {
		return validation.ValidateStruct(&in,
			validation.Field(&in.AmountCents, validation.Required, validation.Min(int64(1))),
		)
	}
	return nil
}

// Update applies a partial update to a budget the principal owns.
func (s *BudgetService) Update(ctx context.Context, principalID, id string, input UpdateBudgetInput) (*model.Budget, error) {
	if err := input.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	budget, err := s.store.GetBudgetByID(ctx, id)
	if err != nil {
		return nil, s.storeError("get budget", err)
	}

	if !authz.CanMutate(principalID, budget) {
		s.metrics.IncForbidden(metrics.ResourceBudget)
		return nil, ErrForbidden
	}

	if input.AmountCents != nil {
		budget.AmountCents = *input.AmountCents
	}
	budget.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateBudget(ctx, budget); err != nil {
		return nil, s.storeError("update budget", err)
	}

	s.metrics.IncUpdated(metrics.ResourceBudget)
	s.invalidate(ctx, principalID)

	return budget, nil
}

// Delete removes a budget the principal owns, refusing while any expense
// still references it.
func (s *BudgetService) Delete(ctx context.Context, principalID, id string) error {
	budget, err := s.store.GetBudgetByID(ctx, id)
	if err != nil {
		return s.storeError("get budget", err)
	}

	if !authz.CanMutate(principalID, budget) {
		s.metrics.IncForbidden(metrics.ResourceBudget)
		return ErrForbidden
	}

	dependents, err := s.store.CountExpensesByBudget(ctx, id)
	if err != nil {
		return fmt.Errorf("count expenses for budget: %w", err)
	}
	if !authz.CanDelete(dependents) {
		s.metrics.IncInUse(metrics.ResourceBudget)
		return fmt.Errorf("%w: %d expenses reference this budget", ErrInUse, dependents)
	}

	if err := s.store.DeleteBudget(ctx, id); err != nil {
		return s.storeError("delete budget", err)
	}

	s.metrics.IncDeleted(metrics.ResourceBudget)
	s.invalidate(ctx, principalID)

	return nil
}

// invalidate drops the principal's cached budget list after a mutation.
func (s *BudgetService) invalidate(ctx context.Context, principalID string) {
	if s.cache != nil {
		_ = s.cache.InvalidateList(ctx, metrics.ResourceBudget, principalID)
	}
}

// storeError maps repository sentinels to service errors. ErrBudgetInUse is
// the FK-restrict backstop for the check-then-delete race.
func (s *BudgetService) storeError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrBudgetNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrBudgetInUse):
		s.metrics.IncInUse(metrics.ResourceBudget)
		return fmt.Errorf("%w: expenses reference this budget", ErrInUse)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
