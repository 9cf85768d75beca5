// Package authz implements the authorization core: a pure predicate over a
// subject's already-loaded role grants, exposed both as programmatic checks
// and as request-gating middleware.
package authz

import (
	"fmt"
	"strings"
)

// Capability is one permitted operation: an action on a resource.
type Capability struct {
	Resource string
	Action   string
}

func (c Capability) String() string {
	return c.Resource + ":" + c.Action
}

// Cap is shorthand for building a Capability.
func Cap(resource, action string) Capability {
	return Capability{Resource: resource, Action: action}
}

// RoleGrant is a subject's view of one held role: the role name, whether
// the role is active, and the capabilities its active permissions grant.
type RoleGrant struct {
	Name         string
	Active       bool
	Capabilities []Capability
}

// Subject is an authenticated principal. Implementations expose the role
// grants loaded with the principal so checks run without further I/O.
type Subject interface {
	SubjectName() string
	SubjectRoles() []RoleGrant
}

type requirementKind int

const (
	requireSingle requirementKind = iota
	requireAny
	requireAll
	requireRoles
)

// Requirement describes what a caller must hold: a single capability, a
// disjunction or conjunction of capabilities, or one of a set of roles.
type Requirement struct {
	kind  requirementKind
	caps  []Capability
	roles []string
}

// Permission requires a single capability.
func Permission(resource, action string) Requirement {
	return Requirement{kind: requireSingle, caps: []Capability{Cap(resource, action)}}
}

// AnyOf requires at least one of the given capabilities.
func AnyOf(caps ...Capability) Requirement {
	return Requirement{kind: requireAny, caps: caps}
}

// AllOf requires every one of the given capabilities.
func AllOf(caps ...Capability) Requirement {
	return Requirement{kind: requireAll, caps: caps}
}

// Roles requires any one of the named roles, active, on the subject.
func Roles(names ...string) Requirement {
	return Requirement{kind: requireRoles, roles: names}
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Engine evaluates requirements against subjects. It performs no I/O: every
// check runs over the associations loaded with the subject, so a single
// load supports any number of checks within the request.
type Engine struct {
	// SuperuserRole short-circuits every check when held as an active role.
	SuperuserRole string
}

// Authorize decides whether subject satisfies req.
func (e Engine) Authorize(subject Subject, req Requirement) Decision {
	if subject == nil {
		return deny("Authentication required")
	}
	if e.isSuperuser(subject) {
		return allow()
	}

	switch req.kind {
	case requireSingle:
		c := req.caps[0]
		if HasPermission(subject, c.Resource, c.Action) {
			return allow()
		}
		return deny(fmt.Sprintf("Permission denied: requires '%s'", c))
	case requireAny:
		if HasAnyPermission(subject, req.caps...) {
			return allow()
		}
		return deny(fmt.Sprintf("Permission denied: requires one of [%s]", quoteCaps(req.caps)))
	case requireAll:
		missing := missingCapabilities(subject, req.caps)
		if len(missing) == 0 {
			return allow()
		}
		return deny(fmt.Sprintf("Permission denied: missing [%s]", quoteCaps(missing)))
	case requireRoles:
		if HasRole(subject, req.roles...) {
			return allow()
		}
		return deny(fmt.Sprintf("Permission denied: requires one of roles [%s]", quoteStrings(req.roles)))
	default:
		return deny("Permission denied")
	}
}

func (e Engine) isSuperuser(subject Subject) bool {
	if e.SuperuserRole == "" {
		return false
	}
	for _, grant := range subject.SubjectRoles() {
		if grant.Active && grant.Name == e.SuperuserRole {
			return true
		}
	}
	return false
}

// EffectivePermissions returns the subject's effective capability set: the
// union, over active roles, of the capabilities each grants.
func EffectivePermissions(subject Subject) map[Capability]struct{} {
	set := make(map[Capability]struct{})
	if subject == nil {
		return set
	}
	for _, grant := range subject.SubjectRoles() {
		if !grant.Active {
			continue
		}
		for _, c := range grant.Capabilities {
			set[c] = struct{}{}
		}
	}
	return set
}

// HasPermission reports whether the subject's effective set contains the
// capability. No superuser bypass; use Engine.Authorize for that.
func HasPermission(subject Subject, resource, action string) bool {
	if subject == nil {
		return false
	}
	target := Cap(resource, action)
	for _, grant := range subject.SubjectRoles() {
		if !grant.Active {
			continue
		}
		for _, c := range grant.Capabilities {
			if c == target {
				return true
			}
		}
	}
	return false
}

// HasAnyPermission reports whether the subject holds at least one capability.
func HasAnyPermission(subject Subject, caps ...Capability) bool {
	effective := EffectivePermissions(subject)
	for _, c := range caps {
		if _, ok := effective[c]; ok {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the subject holds every capability.
func HasAllPermissions(subject Subject, caps ...Capability) bool {
	effective := EffectivePermissions(subject)
	for _, c := range caps {
		if _, ok := effective[c]; !ok {
			return false
		}
	}
	return true
}

// HasRole reports whether the subject holds any of the named roles, active.
func HasRole(subject Subject, names ...string) bool {
	if subject == nil {
		return false
	}
	held := make(map[string]struct{})
	for _, grant := range subject.SubjectRoles() {
		if grant.Active {
			held[grant.Name] = struct{}{}
		}
	}
	for _, name := range names {
		if _, ok := held[name]; ok {
			return true
		}
	}
	return false
}

func missingCapabilities(subject Subject, caps []Capability) []Capability {
	effective := EffectivePermissions(subject)
	var missing []Capability
	for _, c := range caps {
		if _, ok := effective[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

func quoteCaps(caps []Capability) string {
	parts := make([]string, len(caps))
	for i, c := range caps {
		parts[i] = "'" + c.String() + "'"
	}
	return strings.Join(parts, ", ")
}

func quoteStrings(items []string) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = "'" + item + "'"
	}
	return strings.Join(parts, ", ")
}
