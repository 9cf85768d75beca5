package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/accesshub/accesshub/internal/shared"
	"github.com/accesshub/accesshub/internal/users"
)

// UserStore is the slice of the user directory the credential service
// needs: lookup by username and last-login tracking.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (users.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Service wraps authentication business rules.
type Service struct {
	store  UserStore
	hasher shared.CredentialHasher
}

// NewService constructs a new Service.
func NewService(store UserStore, hasher shared.CredentialHasher) *Service {
	return &Service{store: store, hasher: hasher}
}

// Authenticate validates username/password credentials. Absent users and
// wrong passwords produce the same error so callers cannot learn which
// factor failed. On success the last-login timestamp is persisted and the
// user is returned with roles and permissions loaded.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*users.User, error) {
	user, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, shared.ErrInvalidCredentials
	}
	now := time.Now().UTC()
	if err := s.store.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now
	return &user, nil
}
