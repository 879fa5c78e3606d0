package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/orgdir/internal/domain/group"
	"github.com/geocoder89/orgdir/internal/domain/organization"
	"github.com/geocoder89/orgdir/internal/domain/user"
	"github.com/geocoder89/orgdir/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

// selectUsers loads a user with its organization summary and group memberships in one round
// trip, so the actor's role set never needs a second query.
const selectUsers = `
SELECT u.id, u.email, u.password_hash, u.name, u.phone, u.birthdate,
       u.is_active, u.is_staff, u.is_superuser, u.date_joined, u.last_login,
       o.id, o.name,
       COALESCE(array_agg(g.id ORDER BY g.id) FILTER (WHERE g.id IS NOT NULL), '{}') AS group_ids,
       COALESCE(array_agg(g.name ORDER BY g.id) FILTER (WHERE g.id IS NOT NULL), '{}') AS group_names%s
FROM users u
LEFT JOIN organizations o ON o.id = u.organization_id
LEFT JOIN user_groups ug ON ug.user_id = u.id
LEFT JOIN groups g ON g.id = ug.group_id
%s
GROUP BY u.id, o.id
%s`

func scanUser(row rowScanner, extra ...any) (user.User, error) {
	var (
		u          user.User
		orgID      *int64
		orgName    *string
		groupIDs   []int64
		groupNames []string
	)

	dest := []any{
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Phone, &u.Birthdate,
		&u.IsActive, &u.IsStaff, &u.IsSuperuser, &u.DateJoined, &u.LastLogin,
		&orgID, &orgName,
		&groupIDs, &groupNames,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return user.User{}, err
	}

	if orgID != nil {
		ref := organization.Ref{ID: *orgID}
		if orgName != nil {
			ref.Name = *orgName
		}
		u.Organization = &ref
	}

	u.Groups = make([]group.Ref, 0, len(groupIDs))
	for i, id := range groupIDs {
		ref := group.Ref{ID: id}
		if i < len(groupNames) {
			ref.Name = groupNames[i]
		}
		u.Groups = append(u.Groups, ref)
	}

	return u, nil
}

func (r *UsersRepo) getOne(ctx context.Context, op, where string, arg any) (user.User, error) {
	var u user.User

	err := observe(r.prom, op, func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, fmt.Sprintf(selectUsers, "", where, ""), arg))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id", "WHERE u.id = $1", id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email", "WHERE u.email = $1", user.NormalizeEmail(email))
}

// List returns one page of users in filter.OrganizationID plus the total match count.
func (r *UsersRepo) List(ctx context.Context, filter user.ListFilter) ([]user.User, int, error) {
	conds := []string{"u.organization_id = $1"}
	args := []any{filter.OrganizationID}
	argsPosition := 2

	if filter.Phone != nil {
		conds = append(conds, fmt.Sprintf("u.phone = $%d", argsPosition))
		args = append(args, *filter.Phone)
		argsPosition++
	}

	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		conds = append(conds, fmt.Sprintf("(u.name ILIKE $%d OR u.email ILIKE $%d)", argsPosition, argsPosition))
		args = append(args, containsPattern(strings.TrimSpace(*filter.Search)))
		argsPosition++
	}

	where := "WHERE " + strings.Join(conds, " AND ")

	// stable ordering for pagination
	tail := fmt.Sprintf("ORDER BY u.id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
	args = append(args, filter.Limit, filter.Offset)

	query := fmt.Sprintf(selectUsers, ",\n       COUNT(*) OVER() AS total", where, tail)

	output := make([]user.User, 0, filter.Limit)
	total := 0

	err := observe(r.prom, "users.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t int
			u, err := scanUser(rows, &t)
			if err != nil {
				return err
			}
			total = t
			output = append(output, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	// an offset past the end returns no rows, so COUNT(*) OVER() is unavailable
	if len(output) == 0 && filter.Offset > 0 {
		total, err = r.count(ctx, where, args[:len(args)-2])
		if err != nil {
			return nil, 0, err
		}
	}

	return output, total, nil
}

func (r *UsersRepo) count(ctx context.Context, where string, args []any) (int, error) {
	var n int
	err := observe(r.prom, "users.count", func() error {
		return r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users u "+where, args...).Scan(&n)
	})
	return n, err
}

// Create inserts the user and its group memberships in one transaction. Unknown group ids fail
// with group.ErrUnknownGroup before anything is written.
func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (user.User, error) {
	var id int64

	err := observe(r.prom, "users.create", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		groupIDs := uniqueIDs(nu.GroupIDs)
		if len(groupIDs) > 0 {
			var found int
			err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM groups WHERE id = ANY($1)`, groupIDs).Scan(&found)
			if err != nil {
				return err
			}
			if found != len(groupIDs) {
				return group.ErrUnknownGroup
			}
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO users (email, password_hash, name, phone, birthdate, is_active, is_staff, is_superuser, date_joined, organization_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			RETURNING id`,
			user.NormalizeEmail(nu.Email), nu.PasswordHash, nu.Name, nu.Phone, nu.Birthdate,
			nu.IsActive, nu.IsStaff, nu.IsSuperuser, time.Now().UTC(), nu.OrganizationID,
		).Scan(&id)
		if err != nil {
			return err
		}

		if len(groupIDs) > 0 {
			_, err = tx.Exec(ctx, `
				INSERT INTO user_groups (user_id, group_id)
				SELECT $1, unnest($2::bigint[])`, id, groupIDs)
			if err != nil {
				return err
			}
		}

		return tx.Commit(ctx)
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return r.GetByID(ctx, id)
}

// Update applies a partial update in a single statement; concurrent updates are last-writer-wins.
func (r *UsersRepo) Update(ctx context.Context, id int64, req user.UpdateRequest) (user.User, error) {
	var email *string
	if req.Email != nil {
		e := user.NormalizeEmail(*req.Email)
		email = &e
	}

	err := observe(r.prom, "users.update", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE users
			SET email = COALESCE($2, email),
			    name = COALESCE($3, name),
			    phone = CASE WHEN $6 THEN NULL ELSE COALESCE($4, phone) END,
			    birthdate = CASE WHEN $7 THEN NULL ELSE COALESCE($5, birthdate) END
			WHERE id = $1`,
			id, email, req.Name, req.Phone, req.Birthdate, req.ClearPhone, req.ClearBirthdate,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}
		return nil
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return r.GetByID(ctx, id)
}

func (r *UsersRepo) Delete(ctx context.Context, id int64) error {
	return observe(r.prom, "users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return err
		}

		// if no rows were deleted as a result return a not found error
		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}
		return nil
	})
}

func (r *UsersRepo) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return observe(r.prom, "users.touch_last_login", func() error {
		_, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
		return err
	})
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
