package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/orgdir/internal/domain/session"
	"github.com/geocoder89/orgdir/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RefreshTokensRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRefreshTokensRepo(pool *pgxpool.Pool, prom *observability.Prom) *RefreshTokensRepo {
	return &RefreshTokensRepo{pool: pool, prom: prom}
}

func (r *RefreshTokensRepo) Save(ctx context.Context, row session.RefreshToken) error {
	return observe(r.prom, "refresh_tokens.save", func() error {
		return insertRefreshToken(ctx, r.pool, row)
	})
}

// Rotate revokes the presented token and stores next in its place, all under a row lock so two
// concurrent refreshes of the same token cannot both succeed. It returns the owning user id.
func (r *RefreshTokensRepo) Rotate(ctx context.Context, id, tokenHash string, next session.RefreshToken) (int64, error) {
	var userID int64

	err := observe(r.prom, "refresh_tokens.rotate", func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		row, err := getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := row.Check(tokenHash, time.Now().UTC()); err != nil {
			return err
		}

		next.UserID = row.UserID
		if err := revoke(ctx, tx, row.ID, &next.ID); err != nil {
			return err
		}
		if err := insertRefreshToken(ctx, tx, next); err != nil {
			return err
		}

		userID = row.UserID
		return tx.Commit(ctx)
	})

	return userID, err
}

// Revoke is idempotent: revoking an unknown or already revoked token is not an error.
func (r *RefreshTokensRepo) Revoke(ctx context.Context, id string) error {
	return observe(r.prom, "refresh_tokens.revoke", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE refresh_tokens
			SET revoked_at = NOW()
			WHERE id = $1 AND revoked_at IS NULL
		`, id)
		return err
	})
}

func (r *RefreshTokensRepo) RevokeAllForUser(ctx context.Context, userID int64) error {
	return observe(r.prom, "refresh_tokens.revoke_all", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE refresh_tokens
			SET revoked_at = NOW()
			WHERE user_id = $1 AND revoked_at IS NULL
		`, userID)
		return err
	})
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertRefreshToken(ctx context.Context, db execer, row session.RefreshToken) error {
	_, err := db.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked_at, replaced_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
		row.ID, row.UserID, row.TokenHash, row.ExpiresAt, row.RevokedAt, row.ReplacedBy, row.CreatedAt,
	)
	return err
}

// getForUpdate locks the row to prevent concurrent refresh races.
func getForUpdate(ctx context.Context, tx pgx.Tx, id string) (session.RefreshToken, error) {
	var row session.RefreshToken

	err := tx.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, revoked_at, replaced_by, created_at
		FROM refresh_tokens
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(
		&row.ID,
		&row.UserID,
		&row.TokenHash,
		&row.ExpiresAt,
		&row.RevokedAt,
		&row.ReplacedBy,
		&row.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.RefreshToken{}, session.ErrRefreshTokenNotFound
		}

		return session.RefreshToken{}, err
	}

	return row, nil
}

func revoke(ctx context.Context, tx pgx.Tx, id string, replacedBy *string) error {
	_, err := tx.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = NOW(), replaced_by = $2
		WHERE id = $1
	`, id, replacedBy)

	return err
}
