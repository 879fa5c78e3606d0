package memory

import (
	"context"

	"github.com/geocoder89/orgdir/internal/domain/organization"
)

type OrganizationsRepo struct {
	s *Store
}

func (r *OrganizationsRepo) Create(_ context.Context, req organization.CreateRequest) (organization.Organization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextOrgID++
	o := organization.Organization{
		ID:      r.s.nextOrgID,
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	}
	r.s.organizations[o.ID] = o

	return o, nil
}

func (r *OrganizationsRepo) GetByID(_ context.Context, id int64) (organization.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.organizations[id]
	if !ok {
		return organization.Organization{}, organization.ErrNotFound
	}
	return o, nil
}

func (r *OrganizationsRepo) GetByName(_ context.Context, name string) (organization.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var found *organization.Organization
	for _, o := range r.s.organizations {
		if o.Name == name && (found == nil || o.ID < found.ID) {
			o := o
			found = &o
		}
	}
	if found == nil {
		return organization.Organization{}, organization.ErrNotFound
	}
	return *found, nil
}

func (r *OrganizationsRepo) Update(_ context.Context, id int64, req organization.UpdateRequest) (organization.Organization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.organizations[id]
	if !ok {
		return organization.Organization{}, organization.ErrNotFound
	}

	o = req.Apply(o)
	r.s.organizations[id] = o
	return o, nil
}

// Delete removes the organization and detaches its users, mirroring ON DELETE SET NULL.
func (r *OrganizationsRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.organizations[id]; !ok {
		return organization.ErrNotFound
	}
	delete(r.s.organizations, id)

	for uid, row := range r.s.users {
		if row.orgID != nil && *row.orgID == id {
			row.orgID = nil
			r.s.users[uid] = row
		}
	}
	return nil
}
