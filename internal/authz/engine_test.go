package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type stubSubject struct {
	name   string
	grants []RoleGrant
}

func (s stubSubject) SubjectName() string       { return s.name }
func (s stubSubject) SubjectRoles() []RoleGrant { return s.grants }

func subjectWith(grants ...RoleGrant) stubSubject {
	return stubSubject{name: "tester", grants: grants}
}

func TestAuthorizeNilSubject(t *testing.T) {
	engine := Engine{SuperuserRole: "admin"}

	decision := engine.Authorize(nil, Permission("users", "list"))
	require.False(t, decision.Allowed)
	require.Equal(t, "Authentication required", decision.Reason)
}

func TestAuthorizeSinglePermission(t *testing.T) {
	engine := Engine{SuperuserRole: "admin"}
	subject := subjectWith(RoleGrant{
		Name:         "viewer",
		Active:       true,
		Capabilities: []Capability{Cap("users", "list")},
	})

	require.True(t, engine.Authorize(subject, Permission("users", "list")).Allowed)

	decision := engine.Authorize(subject, Permission("users", "delete"))
	require.False(t, decision.Allowed)
	require.Equal(t, "Permission denied: requires 'users:delete'", decision.Reason)
}

func TestAuthorizeAnyOf(t *testing.T) {
	engine := Engine{}
	subject := subjectWith(RoleGrant{
		Name:         "viewer",
		Active:       true,
		Capabilities: []Capability{Cap("roles", "read")},
	})

	require.True(t, engine.Authorize(subject, AnyOf(Cap("users", "read"), Cap("roles", "read"))).Allowed)

	decision := engine.Authorize(subject, AnyOf(Cap("users", "read"), Cap("users", "list")))
	require.False(t, decision.Allowed)
	require.Equal(t, "Permission denied: requires one of ['users:read', 'users:list']", decision.Reason)
}

func TestAuthorizeAllOfNamesOnlyMissing(t *testing.T) {
	engine := Engine{}
	subject := subjectWith(RoleGrant{
		Name:         "editor",
		Active:       true,
		Capabilities: []Capability{Cap("users", "read"), Cap("users", "update")},
	})

	require.True(t, engine.Authorize(subject, AllOf(Cap("users", "read"), Cap("users", "update"))).Allowed)

	decision := engine.Authorize(subject, AllOf(Cap("users", "read"), Cap("users", "delete"), Cap("roles", "list")))
	require.False(t, decision.Allowed)
	require.Equal(t, "Permission denied: missing ['users:delete', 'roles:list']", decision.Reason)
}

func TestAuthorizeRoles(t *testing.T) {
	engine := Engine{}
	subject := subjectWith(RoleGrant{Name: "auditor", Active: true})

	require.True(t, engine.Authorize(subject, Roles("auditor", "manager")).Allowed)

	decision := engine.Authorize(subject, Roles("manager", "operator"))
	require.False(t, decision.Allowed)
	require.Equal(t, "Permission denied: requires one of roles ['manager', 'operator']", decision.Reason)
}

func TestAuthorizeInactiveRoleDoesNotCount(t *testing.T) {
	engine := Engine{}
	subject := subjectWith(RoleGrant{
		Name:         "viewer",
		Active:       false,
		Capabilities: []Capability{Cap("users", "list")},
	})

	require.False(t, engine.Authorize(subject, Permission("users", "list")).Allowed)
	require.False(t, engine.Authorize(subject, Roles("viewer")).Allowed)
}

func TestSuperuserBypassesEveryCheck(t *testing.T) {
	engine := Engine{SuperuserRole: "admin"}
	subject := subjectWith(RoleGrant{Name: "admin", Active: true})

	require.True(t, engine.Authorize(subject, Permission("anything", "at-all")).Allowed)
	require.True(t, engine.Authorize(subject, AllOf(Cap("a", "b"), Cap("c", "d"))).Allowed)
	require.True(t, engine.Authorize(subject, Roles("some-other-role")).Allowed)
}

func TestSuperuserBypassRequiresActiveRole(t *testing.T) {
	engine := Engine{SuperuserRole: "admin"}
	subject := subjectWith(RoleGrant{Name: "admin", Active: false})

	require.False(t, engine.Authorize(subject, Permission("users", "list")).Allowed)
}

func TestEffectivePermissionsUnion(t *testing.T) {
	subject := subjectWith(
		RoleGrant{Name: "a", Active: true, Capabilities: []Capability{Cap("users", "list"), Cap("users", "read")}},
		RoleGrant{Name: "b", Active: true, Capabilities: []Capability{Cap("users", "read"), Cap("roles", "list")}},
		RoleGrant{Name: "c", Active: false, Capabilities: []Capability{Cap("permissions", "delete")}},
	)

	effective := EffectivePermissions(subject)
	require.Len(t, effective, 3)
	require.Contains(t, effective, Cap("users", "list"))
	require.Contains(t, effective, Cap("users", "read"))
	require.Contains(t, effective, Cap("roles", "list"))
	require.NotContains(t, effective, Cap("permissions", "delete"))
}

func TestHasPermissionNoSuperuserBypass(t *testing.T) {
	subject := subjectWith(RoleGrant{Name: "admin", Active: true})

	require.False(t, HasPermission(subject, "users", "list"))
	require.False(t, HasAnyPermission(subject, Cap("users", "list")))
	require.True(t, HasAllPermissions(subject))
	require.True(t, HasRole(subject, "admin"))
}
