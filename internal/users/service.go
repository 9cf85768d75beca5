package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/accesshub/accesshub/internal/roles"
	"github.com/accesshub/accesshub/internal/shared"
)

// RoleResolver resolves role identifiers in one batch lookup.
type RoleResolver interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]roles.Role, error)
}

// Service handles user business logic. Role assignment follows the same
// normalize, resolve, reject-or-replace protocol as role permissions.
type Service struct {
	repo     RepositoryPort
	roles    RoleResolver
	hasher   shared.CredentialHasher
	validate *validator.Validate
}

// NewService builds Service instance wired with its role resolver and
// credential hasher.
func NewService(repo RepositoryPort, roleResolver RoleResolver, hasher shared.CredentialHasher) *Service {
	return &Service{repo: repo, roles: roleResolver, hasher: hasher, validate: validator.New()}
}

// CreateInput carries attributes for a new user. Roles accepts bare
// identifiers or embedded objects.
type CreateInput struct {
	Username string             `json:"username" validate:"required,max=32"`
	Email    *string            `json:"email" validate:"omitempty,email"`
	FullName string             `json:"fullname" validate:"required"`
	Password string             `json:"password" validate:"required,min=8"`
	Roles    []shared.EntityRef `json:"roles"`
}

// UpdateInput carries a partial user update. A nil Roles field means the
// role set is untouched; an explicit empty list clears it.
type UpdateInput struct {
	Username *string             `json:"username"`
	Email    *string             `json:"email"`
	FullName *string             `json:"fullname"`
	Password *string             `json:"password"`
	IsActive *bool               `json:"is_active"`
	Roles    *[]shared.EntityRef `json:"roles"`
}

// List returns all users ordered by username.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get fetches a user by ID with roles and permissions loaded.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (User, error) {
	return s.repo.Get(ctx, id)
}

// CreateWithRoles hashes the credential, creates the user row with an empty
// role set, then runs the assignment protocol. As with roles, a failed
// assignment leaves the bare user row in place.
func (s *Service) CreateWithRoles(ctx context.Context, input CreateInput) (User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.FullName = strings.TrimSpace(input.FullName)
	if err := s.validate.Struct(input); err != nil {
		return User{}, fmt.Errorf("%w: %s", shared.ErrValidation, validationDetail(err))
	}
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return User{}, err
	}
	now := time.Now().UTC()
	user, err := s.repo.Create(ctx, User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        normalizeEmail(input.Email),
		FullName:     input.FullName,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if err == shared.ErrDuplicateKey {
			return User{}, fmt.Errorf("%w: username or email already in use", shared.ErrDuplicateKey)
		}
		return User{}, err
	}
	if len(input.Roles) == 0 {
		return user, nil
	}
	return s.AssignRoles(ctx, user.ID, input.Roles)
}

// UpdateWithRoles applies scalar updates first (hashing any supplied
// plaintext password before it goes anywhere near persistence), then
// reassigns the role set only when the patch carried one.
func (s *Service) UpdateWithRoles(ctx context.Context, id uuid.UUID, patch UpdateInput) (User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if patch.Username != nil {
		user.Username = strings.TrimSpace(*patch.Username)
	}
	if patch.Email != nil {
		user.Email = normalizeEmail(patch.Email)
	}
	if patch.FullName != nil {
		user.FullName = strings.TrimSpace(*patch.FullName)
	}
	if patch.Password != nil {
		hash, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return User{}, err
		}
		user.PasswordHash = hash
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	if user.Username == "" || user.FullName == "" {
		return User{}, fmt.Errorf("%w: username and fullname are required", shared.ErrValidation)
	}
	user.UpdatedAt = time.Now().UTC()
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		if err == shared.ErrDuplicateKey {
			return User{}, fmt.Errorf("%w: username or email already in use", shared.ErrDuplicateKey)
		}
		return User{}, err
	}
	if patch.Roles == nil {
		return updated, nil
	}
	return s.AssignRoles(ctx, updated.ID, *patch.Roles)
}

// AssignRoles atomically replaces the user's role set with the resolved
// referents. Any unresolved identifier fails the whole call, naming every
// one of them, and nothing is applied.
func (s *Service) AssignRoles(ctx context.Context, userID uuid.UUID, refs []shared.EntityRef) (User, error) {
	if s.roles == nil {
		return User{}, fmt.Errorf("%w: role resolver", shared.ErrDependencyMissing)
	}
	ids, err := s.resolve(ctx, refs)
	if err != nil {
		return User{}, err
	}
	if err := s.repo.ReplaceRoles(ctx, userID, ids); err != nil {
		return User{}, err
	}
	return s.repo.Get(ctx, userID)
}

// UpdatePassword changes the user's password after verifying the current
// one.
func (s *Service) UpdatePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: new password must be at least 8 characters", shared.ErrValidation)
	}
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return fmt.Errorf("%w: invalid current password", shared.ErrValidation)
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	_, err = s.repo.Update(ctx, user)
	return err
}

// CheckUsernameAvailability answers whether a username is free right now.
func (s *Service) CheckUsernameAvailability(ctx context.Context, username string) (UsernameAvailability, error) {
	exists, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return UsernameAvailability{}, err
	}
	return UsernameAvailability{Username: username, Available: !exists}, nil
}

// Delete removes a user and its role associations.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) resolve(ctx context.Context, refs []shared.EntityRef) ([]uuid.UUID, error) {
	raw := shared.NormalizeRefs(refs)
	if len(raw) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(raw))
	keys := make([]string, 0, len(raw))
	originals := make([]string, 0, len(raw))
	parsed := make([]uuid.UUID, 0, len(raw))
	for _, id := range raw {
		key := id
		u, parseErr := uuid.Parse(id)
		if parseErr == nil {
			key = u.String()
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
		originals = append(originals, id)
		if parseErr == nil {
			parsed = append(parsed, u)
		}
	}
	resolved, err := s.roles.ListByIDs(ctx, parsed)
	if err != nil {
		return nil, err
	}
	have := make(map[string]struct{}, len(resolved))
	for _, role := range resolved {
		have[role.ID.String()] = struct{}{}
	}
	var missing []string
	for i, key := range keys {
		if _, ok := have[key]; !ok {
			missing = append(missing, originals[i])
		}
	}
	if len(missing) > 0 {
		return nil, &shared.UnresolvedError{Entity: "role", IDs: missing}
	}
	return parsed, nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*email)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func validationDetail(err error) string {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s is %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
