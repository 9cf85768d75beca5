package roles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/accesshub/accesshub/internal/permissions"
	"github.com/accesshub/accesshub/internal/platform/db"
	"github.com/accesshub/accesshub/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	List(ctx context.Context) ([]Role, error)
	Get(ctx context.Context, id uuid.UUID) (Role, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Role, error)
	Create(ctx context.Context, role Role) (Role, error)
	Update(ctx context.Context, role Role) (Role, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ReplacePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error
}

const roleColumns = "id, name, description, is_active, created_at, updated_at"

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all roles ordered by name, permissions loaded.
func (r *Repository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM accounts_roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	roles, err := scanRoles(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachPermissions(ctx, roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// Get fetches a role by ID with its permissions loaded.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM accounts_roles WHERE id = $1`, id)
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	roles := []Role{role}
	if err := r.attachPermissions(ctx, roles); err != nil {
		return Role{}, err
	}
	return roles[0], nil
}

// ListByIDs returns the roles matching the given identifiers, permissions
// loaded, ordered by name. Unknown identifiers are absent from the result.
func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Role, error) {
	if len(ids) == 0 {
		return []Role{}, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM accounts_roles WHERE id = ANY($1) ORDER BY name`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	roles, err := scanRoles(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachPermissions(ctx, roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// Create inserts a new role with an empty permission set.
func (r *Repository) Create(ctx context.Context, role Role) (Role, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts_roles (id, name, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+roleColumns,
		role.ID, role.Name, role.Description, role.IsActive, role.CreatedAt, role.UpdatedAt)
	created, err := scanRole(row)
	if err != nil {
		return Role{}, translateError(err)
	}
	created.Permissions = []permissions.Permission{}
	return created, nil
}

// Update rewrites the scalar attributes of an existing role.
func (r *Repository) Update(ctx context.Context, role Role) (Role, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE accounts_roles
		SET name = $2, description = $3, is_active = $4, updated_at = $5
		WHERE id = $1
		RETURNING `+roleColumns,
		role.ID, role.Name, role.Description, role.IsActive, role.UpdatedAt)
	updated, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, translateError(err)
	}
	updated.Permissions = role.Permissions
	return updated, nil
}

// Delete removes a role together with its permission and user association
// rows, all in one transaction.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM accounts_roles_permissions WHERE role_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM accounts_users_roles WHERE role_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM accounts_roles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ReplacePermissions atomically swaps the role's permission set. Concurrent
// calls on the same role serialize on the association rows' locks.
func (r *Repository) ReplacePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM accounts_roles_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		for _, pid := range permissionIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO accounts_roles_permissions (role_id, permission_id) VALUES ($1, $2)`,
				roleID, pid); err != nil {
				return err
			}
		}
		return nil
	})
}

// attachPermissions loads the permission sets for all given roles in a
// single query and fills them in place.
func (r *Repository) attachPermissions(ctx context.Context, roles []Role) error {
	if len(roles) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(roles))
	index := make(map[uuid.UUID]int, len(roles))
	for i := range roles {
		ids[i] = roles[i].ID
		index[roles[i].ID] = i
		roles[i].Permissions = []permissions.Permission{}
	}
	rows, err := r.pool.Query(ctx, `
		SELECT rp.role_id, p.id, p.name, p.resource, p.action, p.description, p.is_active, p.created_at, p.updated_at
		FROM accounts_roles_permissions rp
		JOIN accounts_permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = ANY($1)
		ORDER BY p.name`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var roleID uuid.UUID
		var p permissions.Permission
		if err := rows.Scan(&roleID, &p.ID, &p.Name, &p.Resource, &p.Action, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return err
		}
		if i, ok := index[roleID]; ok {
			roles[i].Permissions = append(roles[i].Permissions, p)
		}
	}
	return rows.Err()
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt)
	return role, err
}

func scanRoles(rows pgx.Rows) ([]Role, error) {
	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicateKey
	}
	return err
}

var _ RepositoryPort = (*Repository)(nil)
