package permissions

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/accesshub/accesshub/internal/shared"
)

type memoryRepo struct {
	perms map[uuid.UUID]Permission
	names map[string]uuid.UUID
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{perms: make(map[uuid.UUID]Permission), names: make(map[string]uuid.UUID)}
}

func (r *memoryRepo) List(ctx context.Context) ([]Permission, error) {
	out := make([]Permission, 0, len(r.perms))
	for _, p := range r.perms {
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (Permission, error) {
	p, ok := r.perms[id]
	if !ok {
		return Permission{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Permission, error) {
	var out []Permission
	for _, id := range ids {
		if p, ok := r.perms[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryRepo) Create(ctx context.Context, p Permission) (Permission, error) {
	if _, taken := r.names[p.Name]; taken {
		return Permission{}, shared.ErrDuplicateKey
	}
	r.perms[p.ID] = p
	r.names[p.Name] = p.ID
	return p, nil
}

func (r *memoryRepo) Update(ctx context.Context, p Permission) (Permission, error) {
	if _, ok := r.perms[p.ID]; !ok {
		return Permission{}, shared.ErrNotFound
	}
	r.perms[p.ID] = p
	return p, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	p, ok := r.perms[id]
	if !ok {
		return shared.ErrNotFound
	}
	delete(r.names, p.Name)
	delete(r.perms, id)
	return nil
}

func TestCreatePermission(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		Name:        "users:list",
		Resource:    "users",
		Action:      "list",
		Description: "Allows listing users",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	require.True(t, created.IsActive)
	require.Equal(t, "users", created.Resource)
	require.False(t, created.CreatedAt.IsZero())
}

func TestCreatePermissionValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Name: "users:list"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, CreateInput{Name: "   ", Resource: "users", Action: "list"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreatePermissionDuplicate(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	input := CreateInput{Name: "users:list", Resource: "users", Action: "list"}
	_, err := svc.Create(ctx, input)
	require.NoError(t, err)

	_, err = svc.Create(ctx, input)
	require.ErrorIs(t, err, shared.ErrDuplicateKey)
}

func TestUpdatePermissionPartial(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Name: "users:list", Resource: "users", Action: "list"})
	require.NoError(t, err)

	inactive := false
	desc := "updated"
	updated, err := svc.Update(ctx, created.ID, UpdateInput{Description: &desc, IsActive: &inactive})
	require.NoError(t, err)
	require.Equal(t, "updated", updated.Description)
	require.False(t, updated.IsActive)
	require.Equal(t, created.Name, updated.Name)
}

func TestUpdatePermissionCannotBlankRequired(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Name: "users:list", Resource: "users", Action: "list"})
	require.NoError(t, err)

	empty := "  "
	_, err = svc.Update(ctx, created.ID, UpdateInput{Resource: &empty})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdatePermissionNotFound(t *testing.T) {
	svc := NewService(newMemoryRepo())

	name := "x"
	_, err := svc.Update(context.Background(), uuid.New(), UpdateInput{Name: &name})
	require.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestDeletePermissionNotFound(t *testing.T) {
	svc := NewService(newMemoryRepo())
	require.ErrorIs(t, svc.Delete(context.Background(), uuid.New()), shared.ErrNotFound)
}
