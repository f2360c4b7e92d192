package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spendwise/spendwise/internal/model"
)

// Common errors for category repository operations.
var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInUse    = errors.New("category is referenced by expenses")
)

// CreateCategory inserts a new category into the database.
func (r *Repository) CreateCategory(ctx context.Context, category *model.Category) error {
	query := `
		INSERT INTO categories (id, name, icon, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		category.ID,
		category.Name,
		category.Icon,
		category.OwnerID,
		category.CreatedAt,
		category.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// GetCategoryByID retrieves a category by its ID.
func (r *Repository) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	query := `
		SELECT id, name, icon, owner_id, created_at, updated_at
		FROM categories
		WHERE id = $1
	`

	category, err := scanCategory(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category by ID: %w", err)
	}

	return category, nil
}

// ListCategories retrieves the categories visible to a user: rows the user
// owns plus shared rows with no owner. Ordered by display name; limit <= 0
// means no limit.
func (r *Repository) ListCategories(ctx context.Context, userID string, limit int) ([]*model.Category, error) {
	query := `
		SELECT id, name, icon, owner_id, created_at, updated_at
		FROM categories
		WHERE owner_id = $1 OR owner_id IS NULL
		ORDER BY name ASC, id ASC
	`
	args := []any{userID}

	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// UpdateCategory updates a category's mutable fields. The owner column is
// never touched.
func (r *Repository) UpdateCategory(ctx context.Context, category *model.Category) error {
	query := `
		UPDATE categories
		SET name = $2, icon = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		category.ID,
		category.Name,
		category.Icon,
		category.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// DeleteCategory removes a category by ID.
func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	query := `DELETE FROM categories WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		// ON DELETE RESTRICT backstop for the check-then-delete race
		if isForeignKeyViolation(err) {
			return ErrCategoryInUse
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// CountExpensesByCategory counts expense rows referencing a category.
func (r *Repository) CountExpensesByCategory(ctx context.Context, categoryID string) (int64, error) {
	query := `SELECT COUNT(*) FROM expenses WHERE category_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, categoryID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count expenses by category: %w", err)
	}

	return count, nil
}

// scanCategory scans a single row into a Category model.
func scanCategory(row pgx.Row) (*model.Category, error) {
	var category model.Category
	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Icon,
		&category.OwnerID,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	return &category, err
}
