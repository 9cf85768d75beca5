package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/accesshub/accesshub/internal/authz"
	"github.com/accesshub/accesshub/internal/shared"
	"github.com/accesshub/accesshub/internal/users"
)

type stubLoader struct {
	user  users.User
	found bool
}

func (s *stubLoader) Get(ctx context.Context, id uuid.UUID) (users.User, error) {
	if !s.found || s.user.ID != id {
		return users.User{}, shared.ErrNotFound
	}
	return s.user, nil
}

func subjectCapture(captured **users.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured, _ = authz.SubjectFromContext(r.Context()).(*users.User)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticatorBearerHeader(t *testing.T) {
	user := knownUser()
	tokens := NewTokenIssuer("test-secret", time.Hour)
	authn := NewAuthenticator(tokens, &stubLoader{user: user, found: true}, "token", nil)

	token, _, err := tokens.Issue(&user)
	require.NoError(t, err)

	var captured *users.User
	req := httptest.NewRequest(http.MethodGet, "/accounts/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	authn.Middleware(subjectCapture(&captured)).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, captured)
	require.Equal(t, user.ID, captured.ID)
}

func TestAuthenticatorCookieFallback(t *testing.T) {
	user := knownUser()
	tokens := NewTokenIssuer("test-secret", time.Hour)
	authn := NewAuthenticator(tokens, &stubLoader{user: user, found: true}, "token", nil)

	token, _, err := tokens.Issue(&user)
	require.NoError(t, err)

	var captured *users.User
	req := httptest.NewRequest(http.MethodGet, "/accounts/users/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	authn.Middleware(subjectCapture(&captured)).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, captured)
}

func TestAuthenticatorInvalidTokenProceedsAnonymous(t *testing.T) {
	tokens := NewTokenIssuer("test-secret", time.Hour)
	authn := NewAuthenticator(tokens, &stubLoader{}, "token", nil)

	var captured *users.User
	req := httptest.NewRequest(http.MethodGet, "/accounts/users/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	authn.Middleware(subjectCapture(&captured)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, captured)
}

func TestAuthenticatorDeletedUserProceedsAnonymous(t *testing.T) {
	user := knownUser()
	tokens := NewTokenIssuer("test-secret", time.Hour)
	authn := NewAuthenticator(tokens, &stubLoader{found: false}, "token", nil)

	token, _, err := tokens.Issue(&user)
	require.NoError(t, err)

	var captured *users.User
	req := httptest.NewRequest(http.MethodGet, "/accounts/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	authn.Middleware(subjectCapture(&captured)).ServeHTTP(httptest.NewRecorder(), req)

	require.Nil(t, captured)
}
