package roles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/accesshub/accesshub/internal/permissions"
	"github.com/accesshub/accesshub/internal/shared"
)

// PermissionResolver resolves permission identifiers in one batch lookup.
type PermissionResolver interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]permissions.Permission, error)
}

// Service handles role business logic, including the permission assignment
// protocol: normalize, resolve, reject-or-replace.
type Service struct {
	repo  RepositoryPort
	perms PermissionResolver
}

// NewService builds Service instance wired with its permission resolver.
func NewService(repo RepositoryPort, perms PermissionResolver) *Service {
	return &Service{repo: repo, perms: perms}
}

// CreateInput carries attributes for a new role. Permissions accepts bare
// identifiers or embedded objects.
type CreateInput struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Permissions []shared.EntityRef `json:"permissions"`
}

// UpdateInput carries a partial role update. A nil Permissions field means
// the permission set is untouched; an explicit empty list clears it.
type UpdateInput struct {
	Name        *string             `json:"name"`
	Description *string             `json:"description"`
	IsActive    *bool               `json:"is_active"`
	Permissions *[]shared.EntityRef `json:"permissions"`
}

// List returns all roles ordered by name.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Get fetches a role by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Role, error) {
	return s.repo.Get(ctx, id)
}

// ListByIDs resolves a batch of role identifiers.
func (s *Service) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Role, error) {
	return s.repo.ListByIDs(ctx, ids)
}

// CreateWithPermissions creates the role row with an empty association set
// first, then runs the assignment protocol. A failed assignment leaves the
// bare role row in place; that partial state is accepted, not rolled back.
func (s *Service) CreateWithPermissions(ctx context.Context, input CreateInput) (Role, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", shared.ErrValidation)
	}
	now := time.Now().UTC()
	role, err := s.repo.Create(ctx, Role{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Role{}, err
	}
	if len(input.Permissions) == 0 {
		return role, nil
	}
	return s.AssignPermissions(ctx, role.ID, input.Permissions)
}

// UpdateWithPermissions applies scalar updates first, then reassigns the
// permission set only when the patch carried one.
func (s *Service) UpdateWithPermissions(ctx context.Context, id uuid.UUID, patch UpdateInput) (Role, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return Role{}, err
	}
	if patch.Name != nil {
		role.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		role.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.IsActive != nil {
		role.IsActive = *patch.IsActive
	}
	if role.Name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", shared.ErrValidation)
	}
	role.UpdatedAt = time.Now().UTC()
	updated, err := s.repo.Update(ctx, role)
	if err != nil {
		return Role{}, err
	}
	if patch.Permissions == nil {
		return updated, nil
	}
	return s.AssignPermissions(ctx, updated.ID, *patch.Permissions)
}

// AssignPermissions atomically replaces the role's permission set with the
// resolved referents. If any identifier fails to resolve, nothing is
// applied and the error names every unresolved identifier.
func (s *Service) AssignPermissions(ctx context.Context, roleID uuid.UUID, refs []shared.EntityRef) (Role, error) {
	if s.perms == nil {
		return Role{}, fmt.Errorf("%w: permission resolver", shared.ErrDependencyMissing)
	}
	ids, err := s.resolve(ctx, refs)
	if err != nil {
		return Role{}, err
	}
	if err := s.repo.ReplacePermissions(ctx, roleID, ids); err != nil {
		return Role{}, err
	}
	return s.repo.Get(ctx, roleID)
}

// Delete removes a role and its association rows.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// resolve normalizes refs and validates every identifier against the
// permission registry. Identifiers that are not well-formed UUIDs are
// reported as unresolved alongside unknown ones.
func (s *Service) resolve(ctx context.Context, refs []shared.EntityRef) ([]uuid.UUID, error) {
	raw := shared.NormalizeRefs(refs)
	if len(raw) == 0 {
		return nil, nil
	}
	// Dedupe on the canonical UUID form so case variants collapse too.
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
	resolved, err := s.perms.ListByIDs(ctx, parsed)
	if err != nil {
		return nil, err
	}
	have := make(map[string]struct{}, len(resolved))
	for _, p := range resolved {
		have[p.ID.String()] = struct{}{}
	}
	var missing []string
	for i, key := range keys {
		if _, ok := have[key]; !ok {
			missing = append(missing, originals[i])
		}
	}
	if len(missing) > 0 {
		return nil, &shared.UnresolvedError{Entity: "permission", IDs: missing}
	}
	return parsed, nil
}
