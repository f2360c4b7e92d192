package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spendwise/spendwise/internal/metrics"
	"github.com/spendwise/spendwise/internal/model"
)

const (
	userAlice = "11111111-1111-1111-1111-111111111111"
	userBob   = "22222222-2222-2222-2222-222222222222"
)

func newCategoryFixture() (*CategoryService, *fakeCategoryStore, *fakeListCache, *metrics.InMemoryRecorder) {
	store := newFakeCategoryStore()
	listCache := newFakeListCache()
	recorder := metrics.NewInMemory()
	svc := NewCategoryService(store, listCache, 30*time.Second, recorder)
	return svc, store, listCache, recorder
}

func seedCategory(store *fakeCategoryStore, id, name string, owner *string) {
	store.categories[id] = &model.Category{
		ID:        id,
		Name:      name,
		OwnerID:   owner,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func TestCategoryCreate(t *testing.T) {
	svc, store, _, recorder := newCategoryFixture()

	category, err := svc.Create(context.Background(), userAlice, CreateCategoryInput{Name: "Groceries", Icon: "cart"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if category.OwnerID == nil || *category.OwnerID != userAlice {
		t.Errorf("owner = %v, want %s", category.OwnerID, userAlice)
	}
	if category.ID == "" {
		t.Error("expected generated ID")
	}
	if _, ok := store.categories[category.ID]; !ok {
		t.Error("category not persisted")
	}
	if got := recorder.Snapshot().Created[metrics.ResourceCategory]; got != 1 {
		t.Errorf("created counter = %d, want 1", got)
	}
}

func TestCategoryCreateValidation(t *testing.T) {
	svc, _, _, _ := newCategoryFixture()

	tests := []struct {
		name  string
		input CreateCategoryInput
	}{
		{"empty name", CreateCategoryInput{Name: ""}},
		{"name too long", CreateCategoryInput{Name: string(make([]byte, 101))}},
		{"icon too long", CreateCategoryInput{Name: "ok", Icon: string(make([]byte, 33))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), userAlice, tt.input)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCategoryListVisibility(t *testing.T) {
	svc, store, _, _ := newCategoryFixture()
	seedCategory(store, "01A", "Alice food", strptr(userAlice))
	seedCategory(store, "01B", "Bob food", strptr(userBob))
	seedCategory(store, "01S", "Shared default", nil)

	categories, err := svc.List(context.Background(), userAlice, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(categories) != 2 {
		t.Fatalf("List() returned %d categories, want 2", len(categories))
	}
	for _, c := range categories {
		if c.OwnerID != nil && *c.OwnerID != userAlice {
			t.Errorf("leaked category %s owned by %s", c.ID, *c.OwnerID)
		}
	}
}

func TestCategoryListCaching(t *testing.T) {
	svc, store, listCache, recorder := newCategoryFixture()
	seedCategory(store, "01A", "Food", strptr(userAlice))

	// First call misses and populates the cache
	if _, err := svc.List(context.Background(), userAlice, 0); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(listCache.entries) != 1 {
		t.Fatalf("cache entries = %d, want 1", len(listCache.entries))
	}

	// Second call is served from cache even after a direct store change
	seedCategory(store, "01B", "Sneaky", strptr(userAlice))
	categories, err := svc.List(context.Background(), userAlice, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(categories) != 1 {
		t.Errorf("List() returned %d categories, want 1 from cache", len(categories))
	}

	snap := recorder.Snapshot()
	if snap.ListCacheHits[metrics.ResourceCategory] != 1 {
		t.Errorf("cache hits = %d, want 1", snap.ListCacheHits[metrics.ResourceCategory])
	}
	if snap.ListCacheMisses[metrics.ResourceCategory] != 1 {
		t.Errorf("cache misses = %d, want 1", snap.ListCacheMisses[metrics.ResourceCategory])
	}
}

func TestCategoryUpdateOwnership(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		principal string
		wantErr   error
	}{
		{"own row", "01A", userAlice, nil},
		{"other user's row", "01B", userAlice, ErrForbidden},
		{"shared row", "01S", userAlice, ErrForbidden},
		{"missing row", "01Z", userAlice, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _, _ := newCategoryFixture()
			seedCategory(store, "01A", "Alice food", strptr(userAlice))
			seedCategory(store, "01B", "Bob food", strptr(userBob))
			seedCategory(store, "01S", "Shared", nil)

			name := "Renamed"
			_, err := svc.Update(context.Background(), tt.principal, tt.id, UpdateCategoryInput{Name: &name})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Update() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && store.categories[tt.id].Name != "Renamed" {
				t.Errorf("name = %s, want Renamed", store.categories[tt.id].Name)
			}
		})
	}
}

func TestCategoryUpdateKeepsOwner(t *testing.T) {
	svc, store, _, _ := newCategoryFixture()
	seedCategory(store, "01A", "Food", strptr(userAlice))

	name := "Renamed"
	updated, err := svc.Update(context.Background(), userAlice, "01A", UpdateCategoryInput{Name: &name})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.OwnerID == nil || *updated.OwnerID != userAlice {
		t.Errorf("owner changed to %v", updated.OwnerID)
	}
}

func TestCategoryDelete(t *testing.T) {
	svc, store, listCache, recorder := newCategoryFixture()
	seedCategory(store, "01A", "Food", strptr(userAlice))

	if err := svc.Delete(context.Background(), userAlice, "01A"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := store.categories["01A"]; ok {
		t.Error("category still present after delete")
	}
	if got := recorder.Snapshot().Deleted[metrics.ResourceCategory]; got != 1 {
		t.Errorf("deleted counter = %d, want 1", got)
	}
	if len(listCache.invalidated) == 0 {
		t.Error("expected list cache invalidation")
	}

	// Deleting again reports not found, not success
	if err := svc.Delete(context.Background(), userAlice, "01A"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestCategoryDeleteInUse(t *testing.T) {
	svc, store, _, recorder := newCategoryFixture()
	seedCategory(store, "01A", "Food", strptr(userAlice))
	store.expenseCount["01A"] = 3

	err := svc.Delete(context.Background(), userAlice, "01A")
	if !errors.Is(err, ErrInUse) {
		t.Fatalf("Delete() error = %v, want ErrInUse", err)
	}
	if _, ok := store.categories["01A"]; !ok {
		t.Error("category removed despite dependents")
	}
	if got := recorder.Snapshot().InUse[metrics.ResourceCategory]; got != 1 {
		t.Errorf("in-use counter = %d, want 1", got)
	}

	// Once the dependents are gone the delete goes through
	store.expenseCount["01A"] = 0
	if err := svc.Delete(context.Background(), userAlice, "01A"); err != nil {
		t.Errorf("Delete() after dependents removed error = %v", err)
	}
}

func TestCategoryDeleteForbiddenBeforeInUse(t *testing.T) {
	// Ownership is checked before the dependent count, so a foreign row
	// with dependents still reads as forbidden.
	svc, store, _, recorder := newCategoryFixture()
	seedCategory(store, "01B", "Bob food", strptr(userBob))
	store.expenseCount["01B"] = 5

	err := svc.Delete(context.Background(), userAlice, "01B")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("Delete() error = %v, want ErrForbidden", err)
	}
	if got := recorder.Snapshot().Forbidden[metrics.ResourceCategory]; got != 1 {
		t.Errorf("forbidden counter = %d, want 1", got)
	}
}
