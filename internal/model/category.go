package model

import "time"

// Category is a labeled grouping for expenses.
// OwnerID nil means the category is a shared default: visible to every
// principal, mutable by none.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	OwnerID   *string   `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Owner returns the owning user ID, or nil for shared rows.
func (c *Category) Owner() *string { return c.OwnerID }
