package model

// Principal is the authenticated identity attached to one request.
// SessionID identifies the server-side session so logout can revoke it.
type Principal struct {
	UserID    string
	Email     string
	SessionID string
}
