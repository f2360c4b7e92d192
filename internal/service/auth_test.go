package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spendwise/spendwise/internal/auth"
	"github.com/spendwise/spendwise/internal/metrics"
)

func newAuthFixture() (*AuthService, *fakeUserStore, *fakeSessionStore, *auth.TokenIssuer) {
	store := newFakeUserStore()
	sessions := newFakeSessionStore()
	issuer := auth.NewTokenIssuer("test-secret-at-least-32-bytes-long!!", time.Hour)
	svc := NewAuthService(store, sessions, issuer, metrics.NewInMemory())
	return svc, store, sessions, issuer
}

func TestRegisterAndLogin(t *testing.T) {
	svc, store, sessions, issuer := newAuthFixture()

	session, err := svc.Register(context.Background(), RegisterInput{
		Email:     "alice@example.com",
		Password:  "correct horse battery",
		FirstName: "Alice",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if session.Token == "" {
		t.Fatal("expected a session token")
	}
	if session.User.PasswordHash == "" {
		t.Error("expected password hash on stored user")
	}
	if len(store.users) != 1 {
		t.Fatalf("users stored = %d, want 1", len(store.users))
	}

	// The token resolves to a live server-side session
	principal, err := issuer.Verify(session.Token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if principal.UserID != session.User.ID {
		t.Errorf("principal user = %s, want %s", principal.UserID, session.User.ID)
	}
	if _, err := sessions.GetSession(context.Background(), principal.SessionID); err != nil {
		t.Errorf("session record missing: %v", err)
	}

	// Login with the same credentials opens a second session
	login, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "correct horse battery"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if login.User.ID != session.User.ID {
		t.Errorf("login user = %s, want %s", login.User.ID, session.User.ID)
	}
	if len(sessions.sessions) != 2 {
		t.Errorf("sessions stored = %d, want 2", len(sessions.sessions))
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing email", RegisterInput{Password: "long enough password"}},
		{"bad email", RegisterInput{Email: "not-an-email", Password: "long enough password"}},
		{"short password", RegisterInput{Email: "a@example.com", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tt.input); !errors.Is(err, ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	input := RegisterInput{Email: "alice@example.com", Password: "correct horse battery"}

	if _, err := svc.Register(context.Background(), input); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if _, err := svc.Register(context.Background(), input); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("second Register() error = %v, want ErrEmailTaken", err)
	}
}

func TestLoginFailures(t *testing.T) {
	svc, _, _, _ := newAuthFixture()
	recorder := metrics.NewInMemory()
	svc.metrics = recorder

	if _, err := svc.Register(context.Background(), RegisterInput{Email: "alice@example.com", Password: "correct horse battery"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name  string
		input LoginInput
	}{
		{"unknown email", LoginInput{Email: "nobody@example.com", Password: "correct horse battery"}},
		{"wrong password", LoginInput{Email: "alice@example.com", Password: "wrong password here"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Login(context.Background(), tt.input); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}

	if got := recorder.Snapshot().AuthFailures; got != 2 {
		t.Errorf("auth failures = %d, want 2", got)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, sessions, issuer := newAuthFixture()

	session, err := svc.Register(context.Background(), RegisterInput{Email: "alice@example.com", Password: "correct horse battery"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	principal, err := issuer.Verify(session.Token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if err := svc.Logout(context.Background(), principal.SessionID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	// Token still parses but its server-side session is gone
	if _, err := issuer.Verify(session.Token); err != nil {
		t.Fatalf("Verify() after logout error = %v", err)
	}
	if _, err := sessions.GetSession(context.Background(), principal.SessionID); err == nil {
		t.Error("session record survived logout")
	}
}

func TestMe(t *testing.T) {
	svc, _, _, _ := newAuthFixture()

	session, err := svc.Register(context.Background(), RegisterInput{Email: "alice@example.com", Password: "correct horse battery", FirstName: "Alice", LastName: "Ng"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, err := svc.Me(context.Background(), session.User.ID)
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if user.Email != "alice@example.com" || user.FirstName != "Alice" {
		t.Errorf("Me() = %+v, want registered profile", user)
	}

	if _, err := svc.Me(context.Background(), "missing-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Me() unknown user error = %v, want ErrNotFound", err)
	}
}
