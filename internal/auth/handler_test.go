package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(store *stubStore) (*chi.Mux, *TokenIssuer) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewService(store, stubHasher{})
	tokens := NewTokenIssuer("test-secret", time.Hour)
	handler := NewHandler(logger, service, tokens, "token", false)

	r := chi.NewRouter()
	r.Route("/accounts/auth", handler.MountRoutes)
	return r, tokens
}

func postLogin(router http.Handler, username, password string) *httptest.ResponseRecorder {
	form := url.Values{}
	if username != "" {
		form.Set("username", username)
	}
	if password != "" {
		form.Set("password", password)
	}
	req := httptest.NewRequest(http.MethodPost, "/accounts/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLoginMissingFields(t *testing.T) {
	router, _ := newTestRouter(&stubStore{})

	rec := postLogin(router, "alice", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginGenericFailureMessage(t *testing.T) {
	router, _ := newTestRouter(&stubStore{user: knownUser(), found: true})

	unknown := postLogin(router, "nobody", "supersecret")
	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Contains(t, unknown.Body.String(), "Invalid username or password")

	wrong := postLogin(router, "alice", "wrong")
	require.Equal(t, http.StatusUnauthorized, wrong.Code)
	require.Equal(t, unknown.Body.String(), wrong.Body.String())
}

func TestLoginSuccess(t *testing.T) {
	store := &stubStore{user: knownUser(), found: true}
	router, tokens := newTestRouter(store)

	rec := postLogin(router, "alice", "supersecret")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "bearer", body.TokenType)
	require.Equal(t, int64(3600), body.ExpiresIn)

	id, err := tokens.Parse(body.AccessToken)
	require.NoError(t, err)
	require.Equal(t, store.user.ID, id)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "token", cookies[0].Name)
	require.Equal(t, body.AccessToken, cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
}

func TestLogoutClearsCookie(t *testing.T) {
	router, _ := newTestRouter(&stubStore{})

	req := httptest.NewRequest(http.MethodPost, "/accounts/auth/logout", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "token", cookies[0].Name)
	require.Empty(t, cookies[0].Value)
	require.Negative(t, cookies[0].MaxAge)
}
