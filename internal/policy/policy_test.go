package policy_test

import (
	"net/http"
	"testing"

	"github.com/geocoder89/orgdir/internal/policy"
	"github.com/stretchr/testify/require"
)

func orgID(id int64) *int64 { return &id }

var (
	orgA = orgID(1)
	orgB = orgID(2)

	admin  = policy.Actor{UserID: 10, OrganizationID: orgA, Roles: policy.NewRoleSet("Administrator")}
	viewer = policy.Actor{UserID: 11, OrganizationID: orgA, Roles: policy.NewRoleSet("Viewer")}
	member = policy.Actor{UserID: 12, OrganizationID: orgA, Roles: policy.NewRoleSet()}
	guest  = policy.Actor{UserID: 13, OrganizationID: orgB, Roles: policy.NewRoleSet("Staff")}

	orglessAdmin = policy.Actor{UserID: 20, Roles: policy.NewRoleSet("Administrator", "Viewer")}
	anonymous    = policy.Actor{}
)

func TestRolePrimitives(t *testing.T) {
	require.True(t, policy.IsAdmin(admin))
	require.False(t, policy.IsViewer(admin))
	require.True(t, policy.IsAdminOrViewer(admin))

	require.True(t, policy.IsViewer(viewer))
	require.True(t, policy.IsAdminOrViewer(viewer))

	require.False(t, policy.IsAdminOrViewer(member))
	require.False(t, policy.IsAdminOrViewer(guest), "unrelated group names carry no meaning")

	require.False(t, policy.IsAdmin(policy.Actor{Roles: policy.NewRoleSet("Administrator")}),
		"an unauthenticated actor never holds a role")
}

func TestInOrganization(t *testing.T) {
	require.True(t, policy.InOrganization(admin, orgID(1)))
	require.False(t, policy.InOrganization(admin, orgB))
	require.False(t, policy.InOrganization(admin, nil))
	require.False(t, policy.InOrganization(orglessAdmin, nil))
	require.False(t, policy.InOrganization(orglessAdmin, orgA))
	require.False(t, policy.InOrganization(anonymous, orgA))
}

func TestCanAccessOrganization(t *testing.T) {
	tests := []struct {
		name   string
		actor  policy.Actor
		method string
		org    int64
		want   bool
	}{
		{"admin_get_own", admin, http.MethodGet, 1, true},
		{"viewer_get_own", viewer, http.MethodGet, 1, true},
		{"viewer_head_own", viewer, http.MethodHead, 1, true},
		{"member_get_own", member, http.MethodGet, 1, false},
		{"admin_get_other", admin, http.MethodGet, 2, false},
		{"admin_patch_own", admin, http.MethodPatch, 1, true},
		{"viewer_patch_own", viewer, http.MethodPatch, 1, false},
		{"guest_patch_other", guest, http.MethodPatch, 1, false},
		{"admin_patch_other", admin, http.MethodPatch, 2, false},
		{"admin_delete_own", admin, http.MethodDelete, 1, false},
		{"admin_put_own", admin, http.MethodPut, 1, false},
		{"orgless_admin_get", orglessAdmin, http.MethodGet, 1, false},
		{"anonymous_get", anonymous, http.MethodGet, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, policy.CanAccessOrganization(tt.actor, tt.method, tt.org))
		})
	}
}

func TestCanAccessUserCollection(t *testing.T) {
	tests := []struct {
		name   string
		actor  policy.Actor
		method string
		want   bool
	}{
		{"admin_list", admin, http.MethodGet, true},
		{"viewer_list", viewer, http.MethodGet, true},
		{"member_list", member, http.MethodGet, false},
		{"admin_create", admin, http.MethodPost, true},
		{"viewer_create", viewer, http.MethodPost, false},
		{"member_create", member, http.MethodPost, false},
		{"orgless_admin_list", orglessAdmin, http.MethodGet, false},
		{"orgless_admin_create", orglessAdmin, http.MethodPost, false},
		{"admin_put", admin, http.MethodPut, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, policy.CanAccessUserCollection(tt.actor, tt.method))
		})
	}
}

func TestCanAccessUser(t *testing.T) {
	tests := []struct {
		name      string
		actor     policy.Actor
		method    string
		targetID  int64
		targetOrg *int64
		want      bool
	}{
		{"admin_get_same_org", admin, http.MethodGet, 99, orgA, true},
		{"viewer_get_same_org", viewer, http.MethodGet, 99, orgA, true},
		{"member_get_same_org", member, http.MethodGet, 99, orgA, false},
		{"member_get_self", member, http.MethodGet, member.UserID, orgA, true},
		{"guest_get_self", guest, http.MethodOptions, guest.UserID, orgB, true},
		{"admin_get_other_org", admin, http.MethodGet, 99, orgB, false},

		{"admin_patch_same_org", admin, http.MethodPatch, 99, orgA, true},
		{"viewer_patch_same_org", viewer, http.MethodPatch, 99, orgA, false},
		{"member_patch_self", member, http.MethodPatch, member.UserID, orgA, true},
		{"admin_patch_self_without_org_match", admin, http.MethodPatch, admin.UserID, orgB, true},
		{"orgless_admin_patch_self", orglessAdmin, http.MethodPatch, orglessAdmin.UserID, nil, true},
		{"orgless_admin_patch_orgless", orglessAdmin, http.MethodPatch, 99, nil, false},

		{"admin_delete_same_org", admin, http.MethodDelete, 99, orgA, true},
		{"admin_delete_other_org", admin, http.MethodDelete, 99, orgB, false},
		{"viewer_delete_same_org", viewer, http.MethodDelete, 99, orgA, false},
		{"member_delete_self", member, http.MethodDelete, member.UserID, orgA, false},

		{"admin_put", admin, http.MethodPut, 99, orgA, false},
		{"anonymous_get", anonymous, http.MethodGet, 0, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.CanAccessUser(tt.actor, tt.method, tt.targetID, tt.targetOrg)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCanAccessOrganizationUsers(t *testing.T) {
	require.True(t, policy.CanAccessOrganizationUsers(admin, http.MethodGet, 1))
	require.True(t, policy.CanAccessOrganizationUsers(viewer, http.MethodGet, 1))
	require.False(t, policy.CanAccessOrganizationUsers(member, http.MethodGet, 1))
	require.False(t, policy.CanAccessOrganizationUsers(admin, http.MethodGet, 2))
	require.False(t, policy.CanAccessOrganizationUsers(admin, http.MethodPost, 1))
	require.False(t, policy.CanAccessOrganizationUsers(orglessAdmin, http.MethodGet, 1))
}

func TestOrglessActorIsDeniedEveryOrganizationScopedCheck(t *testing.T) {
	methods := []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPost, http.MethodPatch, http.MethodDelete}

	for _, m := range methods {
		for _, org := range []int64{0, 1, 2, 42} {
			require.False(t, policy.CanAccessOrganization(orglessAdmin, m, org), "org %s %d", m, org)
			require.False(t, policy.CanAccessOrganizationUsers(orglessAdmin, m, org), "org users %s %d", m, org)
			o := org
			require.False(t, policy.CanAccessUser(orglessAdmin, m, 99, &o), "user %s %d", m, org)
		}
		require.False(t, policy.CanAccessUserCollection(orglessAdmin, m), "collection %s", m)
		require.False(t, policy.InScope(orglessAdmin, 99, nil))
	}
}

func TestInScope(t *testing.T) {
	require.True(t, policy.InScope(member, member.UserID, nil))
	require.True(t, policy.InScope(member, 99, orgA))
	require.False(t, policy.InScope(member, 99, orgB))
	require.False(t, policy.InScope(member, 99, nil))
}
