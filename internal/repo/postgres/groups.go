package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/orgdir/internal/domain/group"
	"github.com/geocoder89/orgdir/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GroupsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewGroupsRepo(pool *pgxpool.Pool, prom *observability.Prom) *GroupsRepo {
	return &GroupsRepo{pool: pool, prom: prom}
}

func (r *GroupsRepo) List(ctx context.Context) ([]group.Group, error) {
	out := []group.Group{}

	err := observe(r.prom, "groups.list", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT g.id, g.name,
			       COALESCE(array_agg(p.codename ORDER BY p.id) FILTER (WHERE p.id IS NOT NULL), '{}')
			FROM groups g
			LEFT JOIN group_permissions gp ON gp.group_id = g.id
			LEFT JOIN permissions p ON p.id = gp.permission_id
			GROUP BY g.id
			ORDER BY g.id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var g group.Group
			if err := rows.Scan(&g.ID, &g.Name, &g.Permissions); err != nil {
				return err
			}
			out = append(out, g)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Ensure creates the group and its permission codenames if missing and links them. It is safe to
// run on every startup.
func (r *GroupsRepo) Ensure(ctx context.Context, g group.Group) (group.Group, error) {
	err := observe(r.prom, "groups.ensure", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		err = tx.QueryRow(ctx, `
			INSERT INTO groups (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, g.Name).Scan(&g.ID)
		if err != nil {
			return fmt.Errorf("upsert group %s: %w", g.Name, err)
		}

		for _, codename := range g.Permissions {
			var permID int64
			err = tx.QueryRow(ctx, `
				INSERT INTO permissions (codename) VALUES ($1)
				ON CONFLICT (codename) DO UPDATE SET codename = EXCLUDED.codename
				RETURNING id`, codename).Scan(&permID)
			if err != nil {
				return fmt.Errorf("upsert permission %s: %w", codename, err)
			}

			_, err = tx.Exec(ctx, `
				INSERT INTO group_permissions (group_id, permission_id) VALUES ($1,$2)
				ON CONFLICT DO NOTHING`, g.ID, permID)
			if err != nil {
				return err
			}
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return group.Group{}, err
	}

	return g, nil
}

func (r *GroupsRepo) GetByName(ctx context.Context, name string) (group.Group, error) {
	var g group.Group

	err := observe(r.prom, "groups.get_by_name", func() error {
		return r.pool.QueryRow(ctx, `SELECT id, name FROM groups WHERE name = $1`, name).Scan(&g.ID, &g.Name)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return group.Group{}, group.ErrNotFound
		}
		return group.Group{}, err
	}
	return g, nil
}
