package service

import (
	"context"
	"sort"
	"time"

	"github.com/spendwise/spendwise/internal/cache"
	"github.com/spendwise/spendwise/internal/model"
	"github.com/spendwise/spendwise/internal/repository"
)

// In-memory fakes for the store interfaces. They mirror the repository's
// sentinel errors and query semantics so the services can be exercised
// without Postgres or Redis.

type fakeListCache struct {
	entries     map[string][]byte
	invalidated []string
}

func newFakeListCache() *fakeListCache {
	return &fakeListCache{entries: make(map[string][]byte)}
}

func (f *fakeListCache) key(resource, userID string) string { return resource + ":" + userID }

func (f *fakeListCache) GetList(_ context.Context, resource, userID string) ([]byte, error) {
	data, ok := f.entries[f.key(resource, userID)]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return data, nil
}

func (f *fakeListCache) SetList(_ context.Context, resource, userID string, data []byte, _ time.Duration) error {
	f.entries[f.key(resource, userID)] = data
	return nil
}

func (f *fakeListCache) InvalidateList(_ context.Context, resource, userID string) error {
	key := f.key(resource, userID)
	delete(f.entries, key)
	f.invalidated = append(f.invalidated, key)
	return nil
}

type fakeCategoryStore struct {
	categories   map[string]*model.Category
	expenseCount map[string]int64
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{
		categories:   make(map[string]*model.Category),
		expenseCount: make(map[string]int64),
	}
}

func (f *fakeCategoryStore) CreateCategory(_ context.Context, category *model.Category) error {
	clone := *category
	f.categories[category.ID] = &clone
	return nil
}

func (f *fakeCategoryStore) GetCategoryByID(_ context.Context, id string) (*model.Category, error) {
	category, ok := f.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	clone := *category
	return &clone, nil
}

func (f *fakeCategoryStore) ListCategories(_ context.Context, userID string, limit int) ([]*model.Category, error) {
	var out []*model.Category
	for _, c := range f.categories {
		if c.OwnerID == nil || *c.OwnerID == userID {
			clone := *c
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCategoryStore) UpdateCategory(_ context.Context, category *model.Category) error {
	existing, ok := f.categories[category.ID]
	if !ok {
		return repository.ErrCategoryNotFound
	}
	existing.Name = category.Name
	existing.Icon = category.Icon
	existing.UpdatedAt = category.UpdatedAt
	return nil
}

func (f *fakeCategoryStore) DeleteCategory(_ context.Context, id string) error {
	if _, ok := f.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	if f.expenseCount[id] > 0 {
		return repository.ErrCategoryInUse
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeCategoryStore) CountExpensesByCategory(_ context.Context, categoryID string) (int64, error) {
	return f.expenseCount[categoryID], nil
}

type fakeBudgetStore struct {
	budgets      map[string]*model.Budget
	expenseCount map[string]int64
}

func newFakeBudgetStore() *fakeBudgetStore {
	return &fakeBudgetStore{
		budgets:      make(map[string]*model.Budget),
		expenseCount: make(map[string]int64),
	}
}

func (f *fakeBudgetStore) CreateBudget(_ context.Context, budget *model.Budget) error {
	clone := *budget
	f.budgets[budget.ID] = &clone
	return nil
}

func (f *fakeBudgetStore) GetBudgetByID(_ context.Context, id string) (*model.Budget, error) {
	budget, ok := f.budgets[id]
	if !ok {
		return nil, repository.ErrBudgetNotFound
	}
	clone := *budget
	return &clone, nil
}

func (f *fakeBudgetStore) ListBudgets(_ context.Context, userID string) ([]*model.Budget, error) {
	var out []*model.Budget
	for _, b := range f.budgets {
		if b.OwnerID == nil || *b.OwnerID == userID {
			clone := *b
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeBudgetStore) UpdateBudget(_ context.Context, budget *model.Budget) error {
	existing, ok := f.budgets[budget.ID]
	if !ok {
		return repository.ErrBudgetNotFound
	}
	existing.AmountCents = budget.AmountCents
	existing.UpdatedAt = budget.UpdatedAt
	return nil
}

func (f *fakeBudgetStore) DeleteBudget(_ context.Context, id string) error {
	if _, ok := f.budgets[id]; !ok {
		return repository.ErrBudgetNotFound
	}
	if f.expenseCount[id] > 0 {
		return repository.ErrBudgetInUse
	}
	delete(f.budgets, id)
	return nil
}

func (f *fakeBudgetStore) CountExpensesByBudget(_ context.Context, budgetID string) (int64, error) {
	return f.expenseCount[budgetID], nil
}

type fakeExpenseStore struct {
	expenses map[string]*model.Expense
}

func newFakeExpenseStore() *fakeExpenseStore {
	return &fakeExpenseStore{expenses: make(map[string]*model.Expense)}
}

func (f *fakeExpenseStore) CreateExpense(_ context.Context, expense *model.Expense) error {
	clone := *expense
	f.expenses[expense.ID] = &clone
	return nil
}

func (f *fakeExpenseStore) GetExpenseByID(_ context.Context, id string) (*model.Expense, error) {
	expense, ok := f.expenses[id]
	if !ok {
		return nil, repository.ErrExpenseNotFound
	}
	clone := *expense
	return &clone, nil
}

func (f *fakeExpenseStore) ListExpenses(_ context.Context, userID string, limit int) ([]*model.Expense, error) {
	var out []*model.Expense
	for _, e := range f.expenses {
		if e.OwnerID == userID {
			clone := *e
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeExpenseStore) UpdateExpense(_ context.Context, expense *model.Expense) error {
	if _, ok := f.expenses[expense.ID]; !ok {
		return repository.ErrExpenseNotFound
	}
	clone := *expense
	f.expenses[expense.ID] = &clone
	return nil
}

func (f *fakeExpenseStore) DeleteExpense(_ context.Context, id string) error {
	if _, ok := f.expenses[id]; !ok {
		return repository.ErrExpenseNotFound
	}
	delete(f.expenses, id)
	return nil
}

// fakeRefStore combines the category and budget fakes for expense
// reference checks.
type fakeRefStore struct {
	categories *fakeCategoryStore
	budgets    *fakeBudgetStore
}

func (f *fakeRefStore) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	return f.categories.GetCategoryByID(ctx, id)
}

func (f *fakeRefStore) GetBudgetByID(ctx context.Context, id string) (*model.Budget, error) {
	return f.budgets.GetBudgetByID(ctx, id)
}

type fakeUserStore struct {
	users map[string]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*model.User)}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type fakeSessionStore struct {
	sessions map[string]*cache.SessionRecord
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*cache.SessionRecord)}
}

func (f *fakeSessionStore) SetSession(_ context.Context, sessionID string, record *cache.SessionRecord, _ time.Duration) error {
	clone := *record
	f.sessions[sessionID] = &clone
	return nil
}

func (f *fakeSessionStore) GetSession(_ context.Context, sessionID string) (*cache.SessionRecord, error) {
	record, ok := f.sessions[sessionID]
	if !ok {
		return nil, cache.ErrSessionNotFound
	}
	clone := *record
	return &clone, nil
}

func (f *fakeSessionStore) DeleteSession(_ context.Context, sessionID string) error {
	delete(f.sessions, sessionID)
	return nil
}

func strptr(s string) *string { return &s }

func int64ptr(n int64) *int64 { return &n }
