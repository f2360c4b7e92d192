package model

import "time"

// Budget is a monetary ceiling associated with a user.
// Amounts are stored as integer cents. OwnerID follows the same shared-default
// convention as Category.
type Budget struct {
	ID          string    `json:"id"`
	AmountCents int64     `json:"amount_cents"`
	OwnerID     *string   `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Owner returns the owning user ID, or nil for shared rows.
func (b *Budget) Owner() *string { return b.OwnerID }
