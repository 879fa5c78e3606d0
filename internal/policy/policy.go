// Package policy decides whether an actor may perform an HTTP method on a user or organization.
//
// Every function here is a pure predicate over an Actor that was resolved once per request: no
// store access, no errors, no panics. Handlers translate a false result into a forbidden
// response; authentication failures never reach this package.
package policy

import (
	"net/http"

	"github.com/geocoder89/orgdir/internal/domain/group"
)

type Role string

const (
	RoleAdministrator Role = group.Administrator
	RoleViewer        Role = group.Viewer
)

// RoleSet is the actor's group membership. Only Administrator and Viewer carry meaning.
type RoleSet map[Role]struct{}

func NewRoleSet(names ...string) RoleSet {
	rs := make(RoleSet, len(names))
	for _, n := range names {
		rs[Role(n)] = struct{}{}
	}
	return rs
}

func (rs RoleSet) Has(r Role) bool {
	_, ok := rs[r]
	return ok
}

// Actor is the authenticated user making the request.
type Actor struct {
	UserID         int64
	OrganizationID *int64
	Roles          RoleSet
}

func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

func (a Actor) HasOrganization() bool {
	return a.OrganizationID != nil
}

func IsAdmin(a Actor) bool {
	return a.Authenticated() && a.Roles.Has(RoleAdministrator)
}

func IsViewer(a Actor) bool {
	return a.Authenticated() && a.Roles.Has(RoleViewer)
}

func IsAdminOrViewer(a Actor) bool {
	return IsAdmin(a) || IsViewer(a)
}

// InOrganization reports whether the actor belongs to orgID. An actor without an organization
// never matches, and neither does a nil target.
func InOrganization(a Actor, orgID *int64) bool {
	if !a.Authenticated() || a.OrganizationID == nil || orgID == nil {
		return false
	}
	return *a.OrganizationID == *orgID
}

func IsSelf(a Actor, userID int64) bool {
	return a.Authenticated() && a.UserID == userID
}

func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// CanAccessOrganization is the object-level rule for /organizations/{id}.
func CanAccessOrganization(a Actor, method string, orgID int64) bool {
	switch {
	case IsSafeMethod(method):
		return IsAdminOrViewer(a) && InOrganization(a, &orgID)
	case method == http.MethodPatch:
		return IsAdmin(a) && InOrganization(a, &orgID)
	default:
		return false
	}
}

// CanAccessUserCollection is the collection-level rule for /users. Listing and creating are
// both scoped to the actor's organization, so an actor without one is denied.
func CanAccessUserCollection(a Actor, method string) bool {
	if !a.HasOrganization() {
		return false
	}

	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return IsAdminOrViewer(a)
	case http.MethodPost:
		return IsAdmin(a)
	default:
		return false
	}
}

// CanAccessUser is the object-level rule for /users/{id}. targetOrgID is the target's
// organization, nil when the target has none.
func CanAccessUser(a Actor, method string, targetID int64, targetOrgID *int64) bool {
	self := IsSelf(a, targetID)
	sameOrg := InOrganization(a, targetOrgID)

	switch {
	case IsSafeMethod(method):
		return self || (IsAdminOrViewer(a) && sameOrg)
	case method == http.MethodPatch:
		return self || (IsAdmin(a) && sameOrg)
	case method == http.MethodDelete:
		return IsAdmin(a) && sameOrg
	default:
		return false
	}
}

// CanAccessOrganizationUsers is the rule for /organizations/{org_id}/users and its detail route.
// Only safe methods are ever allowed.
func CanAccessOrganizationUsers(a Actor, method string, orgID int64) bool {
	if !IsSafeMethod(method) {
		return false
	}
	return IsAdminOrViewer(a) && InOrganization(a, &orgID)
}

// InScope reports whether a user row is visible to the actor at all. Rows outside the scope are
// reported as not found rather than forbidden so other organizations' ids cannot be probed.
func InScope(a Actor, targetID int64, targetOrgID *int64) bool {
	return IsSelf(a, targetID) || InOrganization(a, targetOrgID)
}
