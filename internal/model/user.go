// Package model defines domain entities for the application.
package model

import "time"

// User represents a registered account.
// The password hash never leaves the auth boundary; it is excluded from JSON.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
