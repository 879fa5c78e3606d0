package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/orgdir/internal/config"
	"github.com/geocoder89/orgdir/internal/domain/group"
	"github.com/geocoder89/orgdir/internal/domain/organization"
	"github.com/geocoder89/orgdir/internal/domain/user"
	"github.com/geocoder89/orgdir/internal/security"
)

type GroupSeeder interface {
	Ensure(ctx context.Context, g group.Group) (group.Group, error)
}

type OrganizationSeeder interface {
	GetByName(ctx context.Context, name string) (organization.Organization, error)
	Create(ctx context.Context, req organization.CreateRequest) (organization.Organization, error)
}

type UserSeeder interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, nu user.NewUser) (user.User, error)
}

// EnsureGroups provisions the Administrator and Viewer groups and returns them keyed by name.
func EnsureGroups(ctx context.Context, groups GroupSeeder) (map[string]group.Group, error) {
	out := make(map[string]group.Group, len(group.Seed))

	for _, g := range group.Seed {
		saved, err := groups.Ensure(ctx, g)
		if err != nil {
			return nil, fmt.Errorf("seed group %s: %w", g.Name, err)
		}
		out[saved.Name] = saved
	}
	return out, nil
}

// EnsureAdminUser creates the bootstrap administrator (and its organization when
// ADMIN_ORGANIZATION is set) unless a user with that email already exists.
func EnsureAdminUser(ctx context.Context, cfg config.Config, groups map[string]group.Group, orgs OrganizationSeeder, users UserSeeder) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	// check if the user exists
	_, err := users.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	var orgID *int64
	if cfg.AdminOrganization != "" {
		org, err := orgs.GetByName(ctx, cfg.AdminOrganization)
		if errors.Is(err, organization.ErrNotFound) {
			org, err = orgs.Create(ctx, organization.CreateRequest{Name: cfg.AdminOrganization})
		}
		if err != nil {
			return fmt.Errorf("seed admin organization: %w", err)
		}
		orgID = &org.ID
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	var groupIDs []int64
	if g, ok := groups[group.Administrator]; ok {
		groupIDs = append(groupIDs, g.ID)
	}

	_, err = users.Create(ctx, user.NewUser{
		Email:          cfg.AdminEmail,
		PasswordHash:   hash,
		Name:           cfg.AdminName,
		OrganizationID: orgID,
		GroupIDs:       groupIDs,
		IsActive:       true,
		IsStaff:        true,
	})

	return err
}
