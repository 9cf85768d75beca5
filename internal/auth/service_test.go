package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/accesshub/accesshub/internal/shared"
	"github.com/accesshub/accesshub/internal/users"
)

type stubHasher struct{}

func (stubHasher) Hash(plain string) (string, error) { return "hash:" + plain, nil }
func (stubHasher) Verify(plain, hash string) bool    { return hash == "hash:"+plain }

type stubStore struct {
	user    users.User
	found   bool
	touched *time.Time
}

func (s *stubStore) GetByUsername(ctx context.Context, username string) (users.User, error) {
	if !s.found || s.user.Username != username {
		return users.User{}, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubStore) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.touched = &at
	return nil
}

func knownUser() users.User {
	return users.User{
		ID:           uuid.New(),
		Username:     "alice",
		FullName:     "Alice",
		PasswordHash: "hash:supersecret",
		IsActive:     true,
	}
}

func TestAuthenticateUnknownUser(t *testing.T) {
	svc := NewService(&stubStore{}, stubHasher{})

	_, err := svc.Authenticate(context.Background(), "alice", "supersecret")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	store := &stubStore{user: knownUser(), found: true}
	svc := NewService(store, stubHasher{})

	_, err := svc.Authenticate(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	require.Nil(t, store.touched)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	svc := NewService(&stubStore{user: knownUser(), found: true}, stubHasher{})

	_, unknownErr := svc.Authenticate(context.Background(), "nobody", "supersecret")
	_, wrongErr := svc.Authenticate(context.Background(), "alice", "wrong")
	require.Equal(t, unknownErr, wrongErr)
}

func TestAuthenticateSuccessTouchesLastLogin(t *testing.T) {
	store := &stubStore{user: knownUser(), found: true}
	svc := NewService(store, stubHasher{})

	user, err := svc.Authenticate(context.Background(), "alice", "supersecret")
	require.NoError(t, err)
	require.NotNil(t, user.LastLogin)
	require.NotNil(t, store.touched)
	require.Equal(t, *store.touched, *user.LastLogin)
}
