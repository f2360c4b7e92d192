// Package service provides business logic for the application. Every
// operation takes the authenticated principal's user ID and enforces the
// ownership, visibility and referential-integrity rules before touching the
// datastore.
package service

import (
	"context"
	"errors"
	"time"
)

// Service errors. Handlers map these to the HTTP error taxonomy; wrapped
// variants carry detail for the response message.
var (
	// ErrNotFound indicates the referenced row does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden indicates the row exists but the caller does not own it.
	// Shared rows (nil owner) are forbidden to mutate for every caller.
	ErrForbidden = errors.New("resource does not belong to you")
	// ErrInUse indicates deletion is blocked by dependent expense rows.
	ErrInUse = errors.New("resource is in use by expenses")
	// ErrValidation indicates a malformed or missing attribute.
	ErrValidation = errors.New("validation failed")
)

// ListCache is the time-boxed cache for list responses. It sits outside the
// authorization rules: entries are written only from results that already
// passed them, keyed per user.
type ListCache interface {
	GetList(ctx context.Context, resource, userID string) ([]byte, error)
	SetList(ctx context.Context, resource, userID string, data []byte, ttl time.Duration) error
	InvalidateList(ctx context.Context, resource, userID string) error
}
