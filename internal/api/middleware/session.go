package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/ec-product-card/internal/auth"
	"github.com/example/ec-product-card/internal/session"
	"go.uber.org/zap"
)

// SessionCookie holds the signed session token in browsers.
const SessionCookie = "session"

type contextKey string

const sessionContextKey contextKey = "session"

// respondError writes a JSON error response
func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ExtractToken extracts the session token from cookie or Authorization header
func ExtractToken(r *http.Request) string {
	// Try cookie first (for browser)
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	// Fall back to Authorization header (for API clients)
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// Session resolves the caller's session from its token, starting a new session
// (and setting the cookie) when the token is missing, expired or forged.
func Session(tokens *auth.TokenService, logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.With(zap.String("component", "session-middleware"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if token := ExtractToken(r); token != "" {
				id, err := tokens.Validate(token)
				if err == nil {
					sessionID = id
				} else {
					logger.Debug("discarding session token", zap.Error(err))
				}
			}

			if sessionID == "" {
				sessionID = session.NewSessionID()
				token, expiresAt, err := tokens.Issue(sessionID)
				if err != nil {
					logger.Error("failed to issue session token", zap.Error(err))
					respondError(w, "failed to start session", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    token,
					Path:     "/",
					Expires:  expiresAt,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionID returns the session id placed in ctx by Session
func GetSessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionContextKey).(string)
	return id
}
