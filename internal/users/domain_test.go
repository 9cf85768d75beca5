package users

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/accesshub/accesshub/internal/authz"
	"github.com/accesshub/accesshub/internal/permissions"
	"github.com/accesshub/accesshub/internal/roles"
)

func TestSubjectRolesCarryOnlyActivePermissions(t *testing.T) {
	user := &User{
		Username: "alice",
		Roles: []roles.Role{
			{
				Name:     "viewer",
				IsActive: true,
				Permissions: []permissions.Permission{
					{Resource: "users", Action: "list", IsActive: true},
					{Resource: "users", Action: "delete", IsActive: false},
				},
			},
			{
				Name:     "dormant",
				IsActive: false,
				Permissions: []permissions.Permission{
					{Resource: "roles", Action: "list", IsActive: true},
				},
			},
		},
	}

	grants := user.SubjectRoles()
	require.Len(t, grants, 2)
	require.Equal(t, "viewer", grants[0].Name)
	require.True(t, grants[0].Active)
	require.Equal(t, []authz.Capability{authz.Cap("users", "list")}, grants[0].Capabilities)
	require.False(t, grants[1].Active)

	// The effective set honors both levels of deactivation.
	effective := authz.EffectivePermissions(user)
	require.Len(t, effective, 1)
	require.Contains(t, effective, authz.Cap("users", "list"))
}

func TestSubjectName(t *testing.T) {
	user := &User{Username: "alice"}
	require.Equal(t, "alice", user.SubjectName())
}
