package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/orgdir/internal/domain/group"
)

type GroupsRepo struct {
	s *Store
}

func (r *GroupsRepo) List(_ context.Context) ([]group.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]group.Group, 0, len(r.s.groups))
	for _, g := range r.s.groups {
		g.Permissions = append([]string(nil), g.Permissions...)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *GroupsRepo) Ensure(_ context.Context, g group.Group) (group.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, existing := range r.s.groups {
		if existing.Name != g.Name {
			continue
		}
		have := make(map[string]struct{}, len(existing.Permissions))
		for _, p := range existing.Permissions {
			have[p] = struct{}{}
		}
		for _, p := range g.Permissions {
			if _, ok := have[p]; !ok {
				existing.Permissions = append(existing.Permissions, p)
			}
		}
		r.s.groups[id] = existing
		return existing, nil
	}

	r.s.nextGroupID++
	g.ID = r.s.nextGroupID
	g.Permissions = append([]string(nil), g.Permissions...)
	r.s.groups[g.ID] = g
	return g, nil
}

func (r *GroupsRepo) GetByName(_ context.Context, name string) (group.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, g := range r.s.groups {
		if g.Name == name {
			return g, nil
		}
	}
	return group.Group{}, group.ErrNotFound
}
