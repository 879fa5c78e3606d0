package memory

import (
	"context"
	"time"

	"github.com/geocoder89/orgdir/internal/domain/session"
)

type RefreshTokensRepo struct {
	s *Store
}

func (r *RefreshTokensRepo) Save(_ context.Context, row session.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.refreshTokens[row.ID] = row
	return nil
}

func (r *RefreshTokensRepo) Rotate(_ context.Context, id, tokenHash string, next session.RefreshToken) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.refreshTokens[id]
	if !ok {
		return 0, session.ErrRefreshTokenNotFound
	}

	now := time.Now().UTC()
	if err := row.Check(tokenHash, now); err != nil {
		return 0, err
	}

	row.RevokedAt = &now
	row.ReplacedBy = &next.ID
	r.s.refreshTokens[id] = row

	next.UserID = row.UserID
	r.s.refreshTokens[next.ID] = next

	return row.UserID, nil
}

func (r *RefreshTokensRepo) Revoke(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.refreshTokens[id]
	if !ok || row.RevokedAt != nil {
		return nil
	}
	now := time.Now().UTC()
	row.RevokedAt = &now
	r.s.refreshTokens[id] = row
	return nil
}
