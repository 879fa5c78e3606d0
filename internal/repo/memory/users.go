package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/geocoder89/orgdir/internal/domain/group"
	"github.com/geocoder89/orgdir/internal/domain/user"
)

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.s.hydrate(row), nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	email = user.NormalizeEmail(email)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, row := range r.s.users {
		if row.user.Email == email {
			return r.s.hydrate(row), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) List(_ context.Context, filter user.ListFilter) ([]user.User, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var search string
	if filter.Search != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.Search))
	}

	matched := make([]user.User, 0)
	for _, row := range r.s.users {
		if row.orgID == nil || *row.orgID != filter.OrganizationID {
			continue
		}
		if filter.Phone != nil && (row.user.Phone == nil || *row.user.Phone != *filter.Phone) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(row.user.Name), search) &&
			!strings.Contains(strings.ToLower(row.user.Email), search) {
			continue
		}
		matched = append(matched, r.s.hydrate(row))
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}

	return matched[start:end], total, nil
}

func (r *UsersRepo) Create(_ context.Context, nu user.NewUser) (user.User, error) {
	email := user.NormalizeEmail(nu.Email)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, id := range nu.GroupIDs {
		if _, ok := r.s.groups[id]; !ok {
			return user.User{}, group.ErrUnknownGroup
		}
	}

	for _, row := range r.s.users {
		if row.user.Email == email {
			return user.User{}, user.ErrEmailTaken
		}
	}

	r.s.nextUserID++
	row := userRow{
		user: user.User{
			ID:           r.s.nextUserID,
			Email:        email,
			PasswordHash: nu.PasswordHash,
			Name:         nu.Name,
			Phone:        nu.Phone,
			Birthdate:    nu.Birthdate,
			IsActive:     nu.IsActive,
			IsStaff:      nu.IsStaff,
			IsSuperuser:  nu.IsSuperuser,
			DateJoined:   time.Now().UTC(),
		},
		orgID:    nu.OrganizationID,
		groupIDs: dedupe(nu.GroupIDs),
	}
	r.s.users[row.user.ID] = row

	return r.s.hydrate(row), nil
}

func (r *UsersRepo) Update(_ context.Context, id int64, req user.UpdateRequest) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	updated := req.Apply(row.user)
	if updated.Email != row.user.Email {
		for otherID, other := range r.s.users {
			if otherID != id && other.user.Email == updated.Email {
				return user.User{}, user.ErrEmailTaken
			}
		}
	}

	row.user = updated
	r.s.users[id] = row

	return r.s.hydrate(row), nil
}

func (r *UsersRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(r.s.users, id)

	for k, t := range r.s.refreshTokens {
		if t.UserID == id {
			delete(r.s.refreshTokens, k)
		}
	}
	return nil
}

func (r *UsersRepo) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	row.user.LastLogin = &at
	r.s.users[id] = row
	return nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
