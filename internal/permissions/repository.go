package permissions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/accesshub/accesshub/internal/platform/db"
	"github.com/accesshub/accesshub/internal/shared"
)

// RepositoryPort defines data access methods for permissions.
type RepositoryPort interface {
	List(ctx context.Context) ([]Permission, error)
	Get(ctx context.Context, id uuid.UUID) (Permission, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Permission, error)
	Create(ctx context.Context, p Permission) (Permission, error)
	Update(ctx context.Context, p Permission) (Permission, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

const permissionColumns = "id, name, resource, action, description, is_active, created_at, updated_at"

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all permissions ordered by name.
func (r *Repository) List(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+permissionColumns+` FROM accounts_permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// Get fetches a permission by ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Permission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+permissionColumns+` FROM accounts_permissions WHERE id = $1`, id)
	p, err := scanPermission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, shared.ErrNotFound
		}
		return Permission{}, err
	}
	return p, nil
}

// ListByIDs returns the permissions matching the given identifiers, ordered
// by name. Unknown identifiers are simply absent from the result.
func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Permission, error) {
	if len(ids) == 0 {
		return []Permission{}, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+permissionColumns+` FROM accounts_permissions WHERE id = ANY($1) ORDER BY name`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// Create inserts a new permission.
func (r *Repository) Create(ctx context.Context, p Permission) (Permission, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts_permissions (id, name, resource, action, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+permissionColumns,
		p.ID, p.Name, p.Resource, p.Action, p.Description, p.IsActive, p.CreatedAt, p.UpdatedAt)
	created, err := scanPermission(row)
	if err != nil {
		return Permission{}, translateError(err)
	}
	return created, nil
}

// Update rewrites the mutable attributes of an existing permission.
func (r *Repository) Update(ctx context.Context, p Permission) (Permission, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE accounts_permissions
		SET name = $2, resource = $3, action = $4, description = $5, is_active = $6, updated_at = $7
		WHERE id = $1
		RETURNING `+permissionColumns,
		p.ID, p.Name, p.Resource, p.Action, p.Description, p.IsActive, p.UpdatedAt)
	updated, err := scanPermission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, shared.ErrNotFound
		}
		return Permission{}, translateError(err)
	}
	return updated, nil
}

// Delete removes a permission and unlinks it from every role in the same
// transaction so no dangling association rows survive.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM accounts_roles_permissions WHERE permission_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM accounts_permissions WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func scanPermission(row pgx.Row) (Permission, error) {
	var p Permission
	err := row.Scan(&p.ID, &p.Name, &p.Resource, &p.Action, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanPermissions(rows pgx.Rows) ([]Permission, error) {
	var perms []Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

// translateError maps unique violations to the shared sentinel.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicateKey
	}
	return err
}

var _ RepositoryPort = (*Repository)(nil)
