package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/spendwise/spendwise/internal/auth"
	"github.com/spendwise/spendwise/internal/cache"
	"github.com/spendwise/spendwise/internal/metrics"
	"github.com/spendwise/spendwise/internal/model"
	"github.com/spendwise/spendwise/internal/repository"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	maxNameLength     = 100
)

// Auth service errors.
var (
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials indicates a failed login. Deliberately the same
	// for unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserStore is the datastore surface the auth service needs.
// Satisfied by *repository.Repository.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// SessionStore holds server-side session records so logout can revoke a
// token before it expires. Satisfied by *cache.Cache.
type SessionStore interface {
	SetSession(ctx context.Context, sessionID string, record *cache.SessionRecord, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (*cache.SessionRecord, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// AuthService handles registration, login and session lifecycle.
type AuthService struct {
	store    UserStore
	sessions SessionStore
	issuer   *auth.TokenIssuer
	metrics  metrics.Recorder
}

// NewAuthService creates a new AuthService.
func NewAuthService(store UserStore, sessions SessionStore, issuer *auth.TokenIssuer, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		store:    store,
		sessions: sessions,
		issuer:   issuer,
		metrics:  recorder,
	}
}

// RegisterInput defines input for creating an account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func (in RegisterInput) validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Password, validation.Required, validation.Length(minPasswordLength, maxPasswordLength)),
		validation.Field(&in.FirstName, validation.Length(0, maxNameLength)),
		validation.Field(&in.LastName, validation.Length(0, maxNameLength)),
	)
}

// Session is the result of a successful registration or login.
type Session struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// Register creates an account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	if err := input.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.openSession(ctx, user)
}

// LoginInput defines input for logging in.
type LoginInput struct {
	Email    string
	Password string
}

func (in LoginInput) validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required),
		validation.Field(&in.Password, validation.Required),
	)
}

// Login verifies credentials and opens a session. Unknown email and wrong
// password produce the same error.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	if err := input.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	user, err := s.store.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncAuthFailure()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	ok, err := auth.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.metrics.IncAuthFailure()
		return nil, ErrInvalidCredentials
	}

	return s.openSession(ctx, user)
}

// Logout revokes the principal's server-side session. The token becomes
// unusable immediately, before its JWT expiry.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Me returns the account behind a principal.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// openSession mints a token and writes the matching server-side record.
func (s *AuthService) openSession(ctx context.Context, user *model.User) (*Session, error) {
	sessionID := uuid.New().String()

	token, expiresAt, err := s.issuer.Mint(user, sessionID)
	if err != nil {
		return nil, fmt.Errorf("mint session token: %w", err)
	}

	record := &cache.SessionRecord{
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.SetSession(ctx, sessionID, record, s.issuer.TTL()); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
