package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spendwise/spendwise/internal/model"
)

// ErrExpenseNotFound indicates the expense row does not exist.
var ErrExpenseNotFound = errors.New("expense not found")

// CreateExpense inserts a new expense into the database.
func (r *Repository) CreateExpense(ctx context.Context, expense *model.Expense) error {
	query := `
		INSERT INTO expenses (id, owner_id, amount_cents, description, date, category_id, budget_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		expense.ID,
		expense.OwnerID,
		expense.AmountCents,
		expense.Description,
		expense.Date,
		expense.CategoryID,
		expense.BudgetID,
		expense.CreatedAt,
		expense.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return nil
}

// GetExpenseByID retrieves an expense by its ID.
func (r *Repository) GetExpenseByID(ctx context.Context, id string) (*model.Expense, error) {
	query := `
		SELECT id, owner_id, amount_cents, description, date, category_id, budget_id, created_at, updated_at
		FROM expenses
		WHERE id = $1
	`

	expense, err := scanExpense(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to get expense by ID: %w", err)
	}

	return expense, nil
}

// ListExpenses retrieves a user's expenses, most recent date first, ties
// broken by ID so ordering is stable. Expenses are never shared, so the
// filter is strict owner equality.
func (r *Repository) ListExpenses(ctx context.Context, userID string, limit int) ([]*model.Expense, error) {
	query := `
		SELECT id, owner_id, amount_cents, description, date, category_id, budget_id, created_at, updated_at
		FROM expenses
		WHERE owner_id = $1
		ORDER BY date DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*model.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}

	return expenses, nil
}

// UpdateExpense updates an expense's mutable fields. The owner column is
// never touched.
func (r *Repository) UpdateExpense(ctx context.Context, expense *model.Expense) error {
	query := `
		UPDATE expenses
		SET amount_cents = $2, description = $3, date = $4, category_id = $5, budget_id = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		expense.ID,
		expense.AmountCents,
		expense.Description,
		expense.Date,
		expense.CategoryID,
		expense.BudgetID,
		expense.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

// DeleteExpense removes an expense by ID. Nothing references expenses, so
// deletion is unconditional.
func (r *Repository) DeleteExpense(ctx context.Context, id string) error {
	query := `DELETE FROM expenses WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

// scanExpense scans a single row into an Expense model.
func scanExpense(row pgx.Row) (*model.Expense, error) {
	var expense model.Expense
	err := row.Scan(
		&expense.ID,
		&expense.OwnerID,
		&expense.AmountCents,
		&expense.Description,
		&expense.Date,
		&expense.CategoryID,
		&expense.BudgetID,
		&expense.CreatedAt,
		&expense.UpdatedAt,
	)
	return &expense, err
}
