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
	maxExpenseDescriptionLength = 255

	// DefaultExpenseListLimit applies when the caller does not ask for a
	// page size.
	DefaultExpenseListLimit = 20
	// MaxExpenseListLimit caps what a caller can ask for.
	MaxExpenseListLimit = 100
)

// ExpenseStore is the datastore surface the expense service needs.
// Satisfied by *repository.Repository.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, expense *model.Expense) error
	GetExpenseByID(ctx context.Context, id string) (*model.Expense, error)
	ListExpenses(ctx context.Context, userID string, limit int) ([]*model.Expense, error)
	UpdateExpense(ctx context.Context, expense *model.Expense) error
	DeleteExpense(ctx context.Context, id string) error
}

// ExpenseRefStore resolves the rows an expense references. A reference is
// valid only when the row exists and is visible to the principal.
// Satisfied by *repository.Repository.
type ExpenseRefStore interface {
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	GetBudgetByID(ctx context.Context, id string) (*model.Budget, error)
}

// ExpenseService handles expense business logic.
type ExpenseService struct {
	store    ExpenseStore
	refs     ExpenseRefStore
	cache    ListCache
	cacheTTL time.Duration
	metrics  metrics.Recorder
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store ExpenseStore, refs ExpenseRefStore, cache ListCache, cacheTTL time.Duration, recorder metrics.Recorder) *ExpenseService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ExpenseService{
		store:    store,
		refs:     refs,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  recorder,
	}
}

// CreateExpenseInput defines input for creating an expense.
type CreateExpenseInput struct {
	AmountCents int64
	Description string
	Date        time.Time
	CategoryID  string
	BudgetID    *string
}

func (in CreateExpenseInput) validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.AmountCents, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.Description, validation.Length(0, maxExpenseDescriptionLength)),
		validation.Field(&in.Date, validation.Required, validation.By(notZeroTime)),
		validation.Field(&in.CategoryID, validation.Required),
	)
}

func notZeroTime(value interface{}) error {
	t, ok := value.(time.Time)
	if !ok || t.IsZero() {
		return errors.New("must be a valid date")
	}
	return nil
}

// List returns the principal's expenses, most recent first. limit <= 0
// selects the default page size; anything above the cap is clamped.
func (s *ExpenseService) List(ctx context.Context, principalID string, limit int) ([]*model.Expense, error) {
	if limit <= 0 {
		limit = DefaultExpenseListLimit
	}
	if limit > MaxExpenseListLimit {
		limit = MaxExpenseListLimit
	}

	// Only the default page is cached; custom page sizes go to the store.
	cacheable := s.cache != nil && limit == DefaultExpenseListLimit
	if cacheable {
		if data, err := s.cache.GetList(ctx, metrics.ResourceExpense, principalID); err == nil {
			var expenses []*model.Expense
			if err := json.Unmarshal(data, &expenses); err == nil {
				s.metrics.IncListCacheHit(metrics.ResourceExpense)
				return expenses, nil
			}
		}
		s.metrics.IncListCacheMiss(metrics.ResourceExpense)
	}

	expenses, err := s.store.ListExpenses(ctx, principalID, limit)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	if cacheable {
		if data, err := json.Marshal(expenses); err == nil {
			_ = s.cache.SetList(ctx, metrics.ResourceExpense, principalID, data, s.cacheTTL)
		}
	}

	return expenses, nil
}

// Create inserts a new expense owned by the principal. The referenced
// category, and budget if given, must exist and be visible to the
// principal. The owner stamp comes from the session, never the payload.
func (s *ExpenseService) Create(ctx context.Context, principalID string, input CreateExpenseInput) (*model.Expense, error) {
	if err := input.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.checkCategoryRef(ctx, principalID, input.CategoryID); err != nil {
		return nil, err
	}
	if input.BudgetID != nil {
		if err := s.checkBudgetRef(ctx, principalID, *input.BudgetID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	expense := &model.Expense{
		ID:          ulid.Make().String(),
		OwnerID:     principalID,
		AmountCents: input.AmountCents,
		Description: input.Description,
		Date:        input.Date,
		CategoryID:  input.CategoryID,
		BudgetID:    input.BudgetID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	s.metrics.IncCreated(metrics.ResourceExpense)
	s.invalidate(ctx, principalID)

	return expense, nil
}

// UpdateExpenseInput defines input for a partial expense update. Nil fields
// are left unchanged; RemoveBudget clears the budget reference. The owner
// is immutable.
type UpdateExpenseInput struct {
	AmountCents  *int64
	Description  *string
	Date         *time.Time
	CategoryID   *string
	BudgetID     *string
	RemoveBudget bool
}

func (in UpdateExpenseInput) validate() error {
	fields := []*validation.FieldRules{}
	if in.AmountCents != nil {
		fields = append(fields, validation.Field(&in.AmountCents, validation.Required, validation.Min(int64(1))))
	}
	if in.Description != nil {
		fields = append(fields, validation.Field(&in.Description, validation.Length(0, maxExpenseDescriptionLength)))
	}
	if in.Date != nil && in.Date.IsZero() {
		return errors.New("date: must be a valid date")
	}
	if in.CategoryID != nil {
		fields = append(fields, validation.Field(&in.CategoryID, validation.Required))
	}
	if in.BudgetID != nil && in.RemoveBudget {
		return errors.New("budget_id: cannot set and remove in one request")
	}
	return validation.ValidateStruct(&in, fields...)
}

// Update applies a partial update to an expense the principal owns. Changed
// references are re-checked for existence and visibility.
func (s *ExpenseService) Update(ctx context.Context, principalID, id string, input UpdateExpenseInput) (*model.Expense, error) {
	if err := input.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	expense, err := s.store.GetExpenseByID(ctx, id)
	if err != nil {
		return nil, s.storeError("get expense", err)
	}

	if !authz.CanMutate(principalID, expense) {
		s.metrics.IncForbidden(metrics.ResourceExpense)
		return nil, ErrForbidden
	}

	if input.CategoryID != nil {
		if err := s.checkCategoryRef(ctx, principalID, *input.CategoryID); err != nil {
			return nil, err
		}
		expense.CategoryID = *input.CategoryID
	}
	switch {
	case input.RemoveBudget:
		expense.BudgetID = nil
	case input.BudgetID != nil:
		if err := s.checkBudgetRef(ctx, principalID, *input.BudgetID); err != nil {
			return nil, err
		}
		expense.BudgetID = input.BudgetID
	}

	if input.AmountCents != nil {
		expense.AmountCents = *input.AmountCents
	}
	if input.Description != nil {
		expense.Description = *input.Description
	}
	if input.Date != nil {
		expense.Date = *input.Date
	}
	expense.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return nil, s.storeError("update expense", err)
	}

	s.metrics.IncUpdated(metrics.ResourceExpense)
	s.invalidate(ctx, principalID)

	return expense, nil
}

// Delete removes an expense the principal owns. Nothing references
// expenses, so there is no in-use check.
func (s *ExpenseService) Delete(ctx context.Context, principalID, id string) error {
	expense, err := s.store.GetExpenseByID(ctx, id)
	if err != nil {
		return s.storeError("get expense", err)
	}

	if !authz.CanMutate(principalID, expense) {
		s.metrics.IncForbidden(metrics.ResourceExpense)
		return ErrForbidden
	}

	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return s.storeError("delete expense", err)
	}

	s.metrics.IncDeleted(metrics.ResourceExpense)
	s.invalidate(ctx, principalID)

	return nil
}

// checkCategoryRef verifies the referenced category exists and is visible
// to the principal. A row hidden from the principal is reported exactly
// like a missing one.
func (s *ExpenseService) checkCategoryRef(ctx context.Context, principalID, categoryID string) error {
	category, err := s.refs.GetCategoryByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return fmt.Errorf("%w: category %s not found", ErrValidation, categoryID)
		}
		return fmt.Errorf("check category reference: %w", err)
	}
	if !authz.Visible(principalID, category) {
		return fmt.Errorf("%w: category %s not found", ErrValidation, categoryID)
	}
	return nil
}

// checkBudgetRef verifies the referenced budget exists and is visible to
// the principal.
func (s *ExpenseService) checkBudgetRef(ctx context.Context, principalID, budgetID string) error {
	budget, err := s.refs.GetBudgetByID(ctx, budgetID)
	if err != nil {
		if errors.Is(err, repository.ErrBudgetNotFound) {
			return fmt.Errorf("%w: budget %s not found", ErrValidation, budgetID)
		}
		return fmt.Errorf("check budget reference: %w", err)
	}
	if !authz.Visible(principalID, budget) {
		return fmt.Errorf("%w: budget %s not found", ErrValidation, budgetID)
	}
	return nil
}

// invalidate drops the principal's cached expense list after a mutation.
func (s *ExpenseService) invalidate(ctx context.Context, principalID string) {
	if s.cache != nil {
		_ = s.cache.InvalidateList(ctx, metrics.ResourceExpense, principalID)
	}
}

// storeError maps repository sentinels to service errors.
func (s *ExpenseService) storeError(op string, err error) error {
	if errors.Is(err, repository.ErrExpenseNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
