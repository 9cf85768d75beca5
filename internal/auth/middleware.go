package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/accesshub/accesshub/internal/authz"
	"github.com/accesshub/accesshub/internal/users"
)

// UserLoader resolves a token subject to a full user record.
type UserLoader interface {
	Get(ctx context.Context, id uuid.UUID) (users.User, error)
}

// Authenticator resolves the request's bearer token to a user identity.
// The user is loaded fresh from the directory on every request, so
// permission changes take effect on the very next call. Requests without a
// valid token simply proceed unauthenticated; guards produce the 401.
type Authenticator struct {
	tokens     *TokenIssuer
	users      UserLoader
	cookieName string
	logger     *slog.Logger
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(tokens *TokenIssuer, loader UserLoader, cookieName string, logger *slog.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: loader, cookieName: cookieName, logger: logger}
}

// Middleware attaches the authenticated user, if any, to the request
// context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := a.bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := a.tokens.Parse(raw)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := a.users.Get(r.Context(), id)
		if err != nil {
			// Token subject no longer exists; treat as unauthenticated.
			if a.logger != nil {
				a.logger.Debug("token user not found", slog.String("sub", id.String()))
			}
			next.ServeHTTP(w, r)
			return
		}
		ctx := authz.ContextWithSubject(r.Context(), &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from the Authorization header, falling
// back to the token cookie set at login.
func (a *Authenticator) bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if a.cookieName != "" {
		if cookie, err := r.Cookie(a.cookieName); err == nil {
			return cookie.Value
		}
	}
	return ""
}
