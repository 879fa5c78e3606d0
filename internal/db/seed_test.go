package db

import (
	"context"
	"testing"

	"github.com/geocoder89/orgdir/internal/config"
	"github.com/geocoder89/orgdir/internal/domain/group"
	"github.com/geocoder89/orgdir/internal/domain/user"
	"github.com/geocoder89/orgdir/internal/repo/memory"
	"github.com/geocoder89/orgdir/internal/security"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdminUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	groups, err := EnsureGroups(ctx, store.Groups())
	require.NoError(t, err)
	require.Contains(t, groups, group.Administrator)
	require.Contains(t, groups, group.Viewer)

	cfg := config.Config{
		AdminEmail:        "admin@test.org",
		AdminPassword:     "12345",
		AdminName:         "Raul Novelo",
		AdminOrganization: "AAAIMX",
	}

	require.NoError(t, EnsureAdminUser(ctx, cfg, groups, store.Organizations(), store.Users()))
	// second run is a no-op
	require.NoError(t, EnsureAdminUser(ctx, cfg, groups, store.Organizations(), store.Users()))

	u, err := store.Users().GetByEmail(ctx, "admin@test.org")
	require.NoError(t, err)
	require.True(t, u.IsActive)
	require.Equal(t, []string{group.Administrator}, u.GroupNames())
	require.NotNil(t, u.Organization)
	require.Equal(t, "AAAIMX", u.Organization.Name)
	require.NoError(t, security.CheckPassword(u.PasswordHash, "12345"))

	_, total, err := store.Users().List(ctx, userFilter(u.Organization.ID))
	require.NoError(t, err)
	require.Equal(t, 1, total)
}

func TestEnsureAdminUserSkipsWithoutCredentials(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, EnsureAdminUser(context.Background(), config.Config{}, nil, store.Organizations(), store.Users()))
}

func userFilter(orgID int64) user.ListFilter {
	return user.ListFilter{OrganizationID: orgID, Limit: 10}
}
