// Package middleware provides HTTP middleware for the SpendWise API.
package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spendwise/spendwise/internal/auth"
	"github.com/spendwise/spendwise/internal/cache"
	"github.com/spendwise/spendwise/internal/metrics"
)

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Logger   *slog.Logger
	Issuer   *auth.TokenIssuer
	Sessions *cache.Cache
	Metrics  metrics.Recorder
}

// Session returns a middleware that resolves the session token on API
// requests. A valid token yields a principal in the request context; a
// missing, malformed, expired or revoked token ends the request with 401.
// There is no anonymous fallthrough.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncAuthFailure()
				writeAuthError(w)
				return
			}

			principal, err := cfg.Issuer.Verify(token)
			if err != nil {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "invalid_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncAuthFailure()
				writeAuthError(w)
				return
			}

			// The signature alone is not enough: the server-side session
			// must still exist, otherwise the token was revoked by logout.
			// A session store outage is not an auth failure and must not
			// masquerade as one.
			if _, err := cfg.Sessions.GetSession(r.Context(), principal.SessionID); err != nil {
				if !errors.Is(err, cache.ErrSessionNotFound) {
					cfg.Logger.Error("session store unavailable",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
					writeInternalError(w)
					return
				}
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "revoked_session"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncAuthFailure()
				writeAuthError(w)
				return
			}

			ctx := auth.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken extracts the session token from the Authorization
// header.
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid or missing session token","code":"UNAUTHORIZED"}`))
}

// writeInternalError writes a generic 500 without leaking the cause.
func writeInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"error":"Internal server error","code":"INTERNAL_ERROR"}`))
}
