// Package memory is an in-process identity store with the same behaviour as the Postgres
// repositories. It backs the handler tests and `APP_ENV=dev` runs without a database.
package memory

import (
	"sync"

	"github.com/geocoder89/orgdir/internal/domain/group"
	"github.com/geocoder89/orgdir/internal/domain/organization"
	"github.com/geocoder89/orgdir/internal/domain/session"
	"github.com/geocoder89/orgdir/internal/domain/user"
)

type Store struct {
	mu sync.RWMutex

	nextUserID  int64
	nextOrgID   int64
	nextGroupID int64

	users         map[int64]userRow
	organizations map[int64]organization.Organization
	groups        map[int64]group.Group
	refreshTokens map[string]session.RefreshToken
}

// userRow keeps references by id like the relational tables do, so renaming an organization or
// deleting one is reflected in every user.
type userRow struct {
	user     user.User
	orgID    *int64
	groupIDs []int64
}

func NewStore() *Store {
	return &Store{
		users:         make(map[int64]userRow),
		organizations: make(map[int64]organization.Organization),
		groups:        make(map[int64]group.Group),
		refreshTokens: make(map[string]session.RefreshToken),
	}
}

func (s *Store) Users() *UsersRepo                 { return &UsersRepo{s: s} }
func (s *Store) Organizations() *OrganizationsRepo { return &OrganizationsRepo{s: s} }
func (s *Store) Groups() *GroupsRepo               { return &GroupsRepo{s: s} }
func (s *Store) RefreshTokens() *RefreshTokensRepo { return &RefreshTokensRepo{s: s} }

// hydrate resolves a row's references. Callers hold at least the read lock.
func (s *Store) hydrate(r userRow) user.User {
	u := r.user

	u.Organization = nil
	if r.orgID != nil {
		if o, ok := s.organizations[*r.orgID]; ok {
			ref := o.Ref()
			u.Organization = &ref
		}
	}

	u.Groups = make([]group.Ref, 0, len(r.groupIDs))
	for _, id := range r.groupIDs {
		if g, ok := s.groups[id]; ok {
			u.Groups = append(u.Groups, group.Ref{ID: g.ID, Name: g.Name})
		}
	}

	return u
}
