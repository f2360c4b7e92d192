package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spendwise/spendwise/internal/model"
)

// Common errors for budget repository operations.
var (
	ErrBudgetNotFound = errors.New("budget not found")
	ErrBudgetInUse    = errors.New("budget is referenced by expenses")
)

// CreateBudget inserts a new budget into the database.
func (r *Repository) CreateBudget(ctx context.Context, budget *model.Budget) error {
	query := `
		INSERT INTO budgets (id, amount_cents, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		budget.ID,
		budget.AmountCents,
		budget.OwnerID,
		budget.CreatedAt,
		budget.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}

	return nil
}

// GetBudgetByID retrieves a budget by its ID.
func (r *Repository) GetBudgetByID(ctx context.Context, id string) (*model.Budget, error) {
	query := `
		SELECT id, amount_cents, owner_id, created_at, updated_at
		FROM budgets
		WHERE id = $1
	`

	budget, err := scanBudget(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBudgetNotFound
		}
		return nil, fmt.Errorf("failed to get budget by ID: %w", err)
	}

	return budget, nil
}

// ListBudgets retrieves the budgets visible to a user: rows the user owns
// plus shared rows with no owner. Ordered by ID for stable output.
func (r *Repository) ListBudgets(ctx context.Context, userID string) ([]*model.Budget, error) {
	query := `
		SELECT id, amount_cents, owner_id, created_at, updated_at
		FROM budgets
		WHERE owner_id = $1 OR owner_id IS NULL
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*model.Budget
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, budget)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}

	return budgets, nil
}

// UpdateBudget updates a budget's mutable fields. The owner column is never
// touched.
func (r *Repository) UpdateBudget(ctx context.Context, budget *model.Budget) error {
	query := `
		UPDATE budgets
		SET amount_cents = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		budget.ID,
		budget.AmountCents,
		budget.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrBudgetNotFound
	}

	return nil
}

// DeleteBudget removes a budget by ID.
func (r *Repository) DeleteBudget(ctx context.Context, id string) error {
	query := `DELETE FROM budgets WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrBudgetInUse
		}
		return fmt.Errorf("failed to delete budget: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrBudgetNotFound
	}

	return nil
}

// CountExpensesByBudget counts expense rows referencing a budget.
func (r *Repository) CountExpensesByBudget(ctx context.Context, budgetID string) (int64, error) {
	query := `SELECT COUNT(*) FROM expenses WHERE budget_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, budgetID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count expenses by budget: %w", err)
	}

	return count, nil
}

// scanBudget scans a single row into a Budget model.
func scanBudget(row pgx.Row) (*model.Budget, error) {
	var budget model.Budget
	err := row.Scan(
		&budget.ID,
		&budget.AmountCents,
		&budget.OwnerID,
		&budget.CreatedAt,
		&budget.UpdatedAt,
	)
	return &budget, err
}
