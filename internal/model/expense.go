package model

import "time"

// Expense is a single spend record. Unlike Category and Budget, an expense
// always has an owner and is never shared.
type Expense struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	CategoryID  string    `json:"category_id"`
	BudgetID    *string   `json:"budget_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Owner returns the owning user ID. Expenses always have one; the pointer
// form keeps the signature uniform with Category and Budget.
func (e *Expense) Owner() *string { return &e.OwnerID }
