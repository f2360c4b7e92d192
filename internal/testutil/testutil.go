// Package testutil provides helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/spendwise/spendwise/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// applyMigrationPair applies the down then up file of one migration.
func applyMigrationPair(ctx context.Context, pool *pgxpool.Pool, name string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	downPath := filepath.Join(root, "migrations", name+".down.sql")
	upPath := filepath.Join(root, "migrations", name+".up.sql")

	downSQL, err := os.ReadFile(downPath)
	if err != nil {
		return fmt.Errorf("read down migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
		return fmt.Errorf("apply down migration: %w", err)
	}

	upSQL, err := os.ReadFile(upPath)
	if err != nil {
		return fmt.Errorf("read up migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
		return fmt.Errorf("apply up migration: %w", err)
	}

	return nil
}

// ResetFinanceSchema drops and recreates the categories, budgets and
// expenses tables for tests.
func ResetFinanceSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return applyMigrationPair(ctx, pool, "000002_finance")
}

// ResetUsersSchema drops and recreates the users table for tests. The
// finance tables reference users, so reset them first.
func ResetUsersSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return applyMigrationPair(ctx, pool, "000001_init")
}

// ResetSchemas drops and recreates every table. Finance tables come down
// first because they reference users.
func ResetSchemas(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	steps := []string{
		"000002_finance.down.sql",
		"000001_init.down.sql",
		"000001_init.up.sql",
		"000002_finance.up.sql",
	}
	for _, step := range steps {
		sql, err := os.ReadFile(filepath.Join(root, "migrations", step))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", step, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", step, err)
		}
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a test user with a unique email.
func NewTestUser(t testing.TB, emailPrefix string) *model.User {
	t.Helper()
	return &model.User{
		ID:           uuid.New().String(),
		Email:        UniqueEmail(emailPrefix),
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$dGVzdA$dGVzdA",
		CreatedAt:    time.Now().UTC(),
	}
}

// NewTestCategory creates a test category owned by the given user.
// Pass an empty userID for a shared row.
func NewTestCategory(t testing.TB, name, userID string) *model.Category {
	t.Helper()
	now := time.Now().UTC()
	category := &model.Category{
		ID:        ulid.Make().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if userID != "" {
		category.OwnerID = &userID
	}
	return category
}

// NewTestBudget creates a test budget owned by the given user.
// Pass an empty userID for a shared row.
func NewTestBudget(t testing.TB, amountCents int64, userID string) *model.Budget {
	t.Helper()
	now := time.Now().UTC()
	budget := &model.Budget{
		ID:          ulid.Make().String(),
		AmountCents: amountCents,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if userID != "" {
		budget.OwnerID = &userID
	}
	return budget
}

// NewTestExpense creates a test expense for the given owner and category.
func NewTestExpense(t testing.TB, userID, categoryID string, amountCents int64) *model.Expense {
	t.Helper()
	now := time.Now().UTC()
	return &model.Expense{
		ID:          ulid.Make().String(),
		OwnerID:     userID,
		AmountCents: amountCents,
		Date:        now.Truncate(24 * time.Hour),
		CategoryID:  categoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
