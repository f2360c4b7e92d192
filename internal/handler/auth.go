package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/spendwise/spendwise/internal/auth"
	"github.com/spendwise/spendwise/internal/handler/dto"
	"github.com/spendwise/spendwise/internal/service"
)

// AuthHandler handles registration, login and session endpoints.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	session, err := h.svc.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	h.logger.Info("user_registered", "user_id", session.User.ID)

	writeJSON(w, http.StatusCreated, sessionResponse(session))
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	session, err := h.svc.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	h.logger.Info("user_logged_in", "user_id", session.User.ID)

	writeJSON(w, http.StatusOK, sessionResponse(session))
}

// Logout handles POST /api/v1/auth/logout. Requires an authenticated
// session; revokes it server-side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	if err := h.svc.Logout(r.Context(), principal.SessionID); err != nil {
		h.logger.Error("logout_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	h.logger.Info("user_logged_out", "user_id", principal.UserID)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "logged out"})
}

// Me handles GET /api/v1/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	user, err := h.svc.Me(r.Context(), principal.UserID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// handleAuthError maps auth service errors to HTTP responses.
func (h *AuthHandler) handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

func sessionResponse(session *service.Session) dto.SessionResponse {
	return dto.SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      *dto.ToUserResponse(session.User),
	}
}
