package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/accesshub/accesshub/internal/authz"
	"github.com/accesshub/accesshub/internal/roles"
)

// User represents a user account. The credential hash never serializes.
type User struct {
	ID           uuid.UUID    `json:"id"`
	Username     string       `json:"username"`
	Email        *string      `json:"email,omitempty"`
	FullName     string       `json:"fullname"`
	PasswordHash string       `json:"-"`
	IsActive     bool         `json:"is_active"`
	LastLogin    *time.Time   `json:"last_login,omitempty"`
	Roles        []roles.Role `json:"roles"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// SubjectName implements authz.Subject.
func (u *User) SubjectName() string {
	return u.Username
}

// SubjectRoles implements authz.Subject: each held role becomes a grant
// carrying the capabilities of its active permissions.
func (u *User) SubjectRoles() []authz.RoleGrant {
	grants := make([]authz.RoleGrant, 0, len(u.Roles))
	for _, role := range u.Roles {
		caps := make([]authz.Capability, 0, len(role.Permissions))
		for _, perm := range role.Permissions {
			if perm.IsActive {
				caps = append(caps, authz.Cap(perm.Resource, perm.Action))
			}
		}
		grants = append(grants, authz.RoleGrant{Name: role.Name, Active: role.IsActive, Capabilities: caps})
	}
	return grants
}

// UsernameAvailability is a point-in-time answer with no reservation; the
// create-time uniqueness constraint remains the authority.
type UsernameAvailability struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
}
