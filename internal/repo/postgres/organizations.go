package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/orgdir/internal/domain/organization"
	"github.com/geocoder89/orgdir/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrganizationsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewOrganizationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *OrganizationsRepo {
	return &OrganizationsRepo{pool: pool, prom: prom}
}

func (r *OrganizationsRepo) Create(ctx context.Context, req organization.CreateRequest) (organization.Organization, error) {
	o := organization.Organization{Name: req.Name, Phone: req.Phone, Address: req.Address}

	err := observe(r.prom, "organizations.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO organizations (name, phone, address) VALUES ($1,$2,$3) RETURNING id`,
			o.Name, o.Phone, o.Address,
		).Scan(&o.ID)
	})
	if err != nil {
		return organization.Organization{}, err
	}

	return o, nil
}

func (r *OrganizationsRepo) GetByID(ctx context.Context, id int64) (organization.Organization, error) {
	var o organization.Organization

	err := observe(r.prom, "organizations.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, phone, address FROM organizations WHERE id = $1`, id,
		).Scan(&o.ID, &o.Name, &o.Phone, &o.Address)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return organization.Organization{}, organization.ErrNotFound
		}
		return organization.Organization{}, err
	}

	return o, nil
}

// GetByName returns the lowest-id organization with that name; names are not unique.
func (r *OrganizationsRepo) GetByName(ctx context.Context, name string) (organization.Organization, error) {
	var o organization.Organization

	err := observe(r.prom, "organizations.get_by_name", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, phone, address FROM organizations WHERE name = $1 ORDER BY id LIMIT 1`, name,
		).Scan(&o.ID, &o.Name, &o.Phone, &o.Address)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return organization.Organization{}, organization.ErrNotFound
		}
		return organization.Organization{}, err
	}

	return o, nil
}

func (r *OrganizationsRepo) Update(ctx context.Context, id int64, req organization.UpdateRequest) (organization.Organization, error) {
	var o organization.Organization

	err := observe(r.prom, "organizations.update", func() error {
		return r.pool.QueryRow(ctx, `
			UPDATE organizations
			SET name = COALESCE($2, name),
			    phone = COALESCE($3, phone),
			    address = COALESCE($4, address)
			WHERE id = $1
			RETURNING id, name, phone, address`,
			id, req.Name, req.Phone, req.Address,
		).Scan(&o.ID, &o.Name, &o.Phone, &o.Address)
	})

	if err != nil {
		// if there are no rows matching the id
		if errors.Is(err, pgx.ErrNoRows) {
			return organization.Organization{}, organization.ErrNotFound
		}
		return organization.Organization{}, err
	}

	return o, nil
}
