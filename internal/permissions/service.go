package permissions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/accesshub/accesshub/internal/shared"
)

// Service handles permission business logic.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

// CreateInput carries attributes for a new permission.
type CreateInput struct {
	Name        string `json:"name" validate:"required,max=64"`
	Resource    string `json:"resource" validate:"required,max=64"`
	Action      string `json:"action" validate:"required,max=32"`
	Description string `json:"description" validate:"max=255"`
}

// UpdateInput carries a partial permission update. Nil fields are left
// untouched.
type UpdateInput struct {
	Name        *string `json:"name"`
	Resource    *string `json:"resource"`
	Action      *string `json:"action"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// List returns all permissions ordered by name.
func (s *Service) List(ctx context.Context) ([]Permission, error) {
	return s.repo.List(ctx)
}

// Get fetches a permission by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Permission, error) {
	return s.repo.Get(ctx, id)
}

// ListByIDs resolves a batch of permission identifiers.
func (s *Service) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Permission, error) {
	return s.repo.ListByIDs(ctx, ids)
}

// Create inserts a new active permission.
func (s *Service) Create(ctx context.Context, input CreateInput) (Permission, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Resource = strings.TrimSpace(input.Resource)
	input.Action = strings.TrimSpace(input.Action)
	if err := s.validate.Struct(input); err != nil {
		return Permission{}, fmt.Errorf("%w: %s", shared.ErrValidation, validationDetail(err))
	}
	now := time.Now().UTC()
	return s.repo.Create(ctx, Permission{
		ID:          uuid.New(),
		Name:        input.Name,
		Resource:    input.Resource,
		Action:      input.Action,
		Description: strings.TrimSpace(input.Description),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Update applies a partial update to an existing permission.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch UpdateInput) (Permission, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Permission{}, err
	}
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Resource != nil {
		p.Resource = strings.TrimSpace(*patch.Resource)
	}
	if patch.Action != nil {
		p.Action = strings.TrimSpace(*patch.Action)
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if p.Name == "" || p.Resource == "" || p.Action == "" {
		return Permission{}, fmt.Errorf("%w: name, resource and action are required", shared.ErrValidation)
	}
	p.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, p)
}

// Delete removes a permission and its role associations.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
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
