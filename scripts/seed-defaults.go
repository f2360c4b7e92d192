package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/spendwise/spendwise/internal/model"
	"github.com/spendwise/spendwise/internal/repository"
)

// Seeds the shared default categories and budgets. Shared rows have a NULL
// owner_id, which makes them visible to every user and immutable through
// the API, so the only way to create them is out-of-band with this script.

var defaultCategories = []struct {
	Name string
	Icon string
}{
	{"Food", "🍔"},
	{"Transport", "🚌"},
	{"Housing", "🏠"},
	{"Entertainment", "🎬"},
	{"Health", "💊"},
	{"Shopping", "🛒"},
	{"Other", "📦"},
}

type seedOutput struct {
	Categories []string `json:"categories"`
	Budgets    []string `json:"budgets"`
}

func main() {
	var (
		databaseURL  = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		budgetCents  = flag.Int64("budget-cents", 0, "Optional shared budget amount in cents (0 skips)")
		format       = flag.String("format", "plain", "Output format: plain or json")
		skipExisting = flag.Bool("skip-existing", true, "Skip categories whose name already exists as a shared row")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	out := seedOutput{}

	existing := map[string]bool{}
	if *skipExisting {
		existing, err = sharedCategoryNames(ctx, repo)
		if err != nil {
			fmt.Fprintln(os.Stderr, "list categories:", err)
			os.Exit(1)
		}
	}

	now := time.Now().UTC()
	for _, def := range defaultCategories {
		if existing[strings.ToLower(def.Name)] {
			continue
		}
		category := &model.Category{
			ID:        ulid.Make().String(),
			Name:      def.Name,
			Icon:      def.Icon,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repo.CreateCategory(ctx, category); err != nil {
			fmt.Fprintf(os.Stderr, "create category %s: %v\n", def.Name, err)
			os.Exit(1)
		}
		out.Categories = append(out.Categories, category.ID)
	}

	if *budgetCents > 0 {
		budget := &model.Budget{
			ID:          ulid.Make().String(),
			AmountCents: *budgetCents,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := repo.CreateBudget(ctx, budget); err != nil {
			fmt.Fprintln(os.Stderr, "create budget:", err)
			os.Exit(1)
		}
		out.Budgets = append(out.Budgets, budget.ID)
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Printf("seeded %d categories, %d budgets\n", len(out.Categories), len(out.Budgets))
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

// sharedCategoryNames returns the lowercased names of existing shared rows.
// Listing with an unused user ID returns only owner-less rows.
func sharedCategoryNames(ctx context.Context, repo *repository.Repository) (map[string]bool, error) {
	categories, err := repo.ListCategories(ctx, "00000000-0000-0000-0000-000000000000", 0)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(categories))
	for _, category := range categories {
		if category.OwnerID == nil {
			names[strings.ToLower(category.Name)] = true
		}
	}
	return names, nil
}
