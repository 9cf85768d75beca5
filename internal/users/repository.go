package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/accesshub/accesshub/internal/permissions"
	"github.com/accesshub/accesshub/internal/platform/db"
	"github.com/accesshub/accesshub/internal/roles"
	"github.com/accesshub/accesshub/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, user User) (User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error
}

const userColumns = "id, username, email, fullname, password_hash, is_active, last_login, created_at, updated_at"

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all users ordered by username, roles and their permissions
// loaded.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM accounts_users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users, err := scanUsers(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachRoles(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

// Get fetches a user by ID with roles and permissions loaded.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM accounts_users WHERE id = $1`, id)
	return r.one(ctx, row)
}

// GetByUsername fetches a user by exact, case-sensitive username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM accounts_users WHERE username = $1`, username)
	return r.one(ctx, row)
}

// UsernameExists reports whether a username is already taken.
func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts_users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

// Create inserts a new user with an empty role set.
func (r *Repository) Create(ctx context.Context, user User) (User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts_users (id, username, email, fullname, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+userColumns,
		user.ID, user.Username, user.Email, user.FullName, user.PasswordHash, user.IsActive, user.CreatedAt, user.UpdatedAt)
	created, err := scanUser(row)
	if err != nil {
		return User{}, translateError(err)
	}
	created.Roles = []roles.Role{}
	return created, nil
}

// Update rewrites the scalar attributes of an existing user.
func (r *Repository) Update(ctx context.Context, user User) (User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE accounts_users
		SET username = $2, email = $3, fullname = $4, password_hash = $5, is_active = $6, updated_at = $7
		WHERE id = $1
		RETURNING `+userColumns,
		user.ID, user.Username, user.Email, user.FullName, user.PasswordHash, user.IsActive, user.UpdatedAt)
	updated, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, translateError(err)
	}
	updated.Roles = user.Roles
	return updated, nil
}

// TouchLastLogin persists the last authentication timestamp.
func (r *Repository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts_users SET last_login = $2, updated_at = $2 WHERE id = $1`, id, at.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a user and its role association rows in one transaction.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM accounts_users_roles WHERE user_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM accounts_users WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ReplaceRoles atomically swaps the user's role set.
func (r *Repository) ReplaceRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM accounts_users_roles WHERE user_id = $1`, userID); err != nil {
			return err
		}
		for _, rid := range roleIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO accounts_users_roles (user_id, role_id) VALUES ($1, $2)`,
				userID, rid); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) one(ctx context.Context, row pgx.Row) (User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	users := []User{user}
	if err := r.attachRoles(ctx, users); err != nil {
		return User{}, err
	}
	return users[0], nil
}

// attachRoles loads each user's roles (ordered by name) and every role's
// permission set, in two batch queries.
func (r *Repository) attachRoles(ctx context.Context, users []User) error {
	if len(users) == 0 {
		return nil
	}
	userIDs := make([]uuid.UUID, len(users))
	index := make(map[uuid.UUID]int, len(users))
	for i := range users {
		userIDs[i] = users[i].ID
		index[users[i].ID] = i
		users[i].Roles = []roles.Role{}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT ur.user_id, r.id, r.name, r.description, r.is_active, r.created_at, r.updated_at
		FROM accounts_users_roles ur
		JOIN accounts_roles r ON r.id = ur.role_id
		WHERE ur.user_id = ANY($1)
		ORDER BY r.name`, userIDs)
	if err != nil {
		return err
	}
	defer rows.Close()

	type placement struct {
		userIdx int
		roleIdx int
	}
	rolesByID := make(map[uuid.UUID][]placement)
	for rows.Next() {
		var userID uuid.UUID
		var role roles.Role
		if err := rows.Scan(&userID, &role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return err
		}
		role.Permissions = []permissions.Permission{}
		i := index[userID]
		users[i].Roles = append(users[i].Roles, role)
		rolesByID[role.ID] = append(rolesByID[role.ID], placement{userIdx: i, roleIdx: len(users[i].Roles) - 1})
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(rolesByID) == 0 {
		return nil
	}

	roleIDs := make([]uuid.UUID, 0, len(rolesByID))
	for id := range rolesByID {
		roleIDs = append(roleIDs, id)
	}
	permRows, err := r.pool.Query(ctx, `
		SELECT rp.role_id, p.id, p.name, p.resource, p.action, p.description, p.is_active, p.created_at, p.updated_at
		FROM accounts_roles_permissions rp
		JOIN accounts_permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = ANY($1)
		ORDER BY p.name`, roleIDs)
	if err != nil {
		return err
	}
	defer permRows.Close()
	for permRows.Next() {
		var roleID uuid.UUID
		var p permissions.Permission
		if err := permRows.Scan(&roleID, &p.ID, &p.Name, &p.Resource, &p.Action, &p.Description, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return err
		}
		for _, pl := range rolesByID[roleID] {
			users[pl.userIdx].Roles[pl.roleIdx].Permissions = append(users[pl.userIdx].Roles[pl.roleIdx].Permissions, p)
		}
	}
	return permRows.Err()
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.PasswordHash, &user.IsActive, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

func scanUsers(rows pgx.Rows) ([]User, error) {
	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicateKey
	}
	return err
}

var _ RepositoryPort = (*Repository)(nil)
