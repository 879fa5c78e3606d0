package session

import (
	"errors"
	"time"
)

// RefreshToken is the persisted half of a refresh token. The raw token is never stored, only an
// HMAC of it.
type RefreshToken struct {
	ID         string
	UserID     int64
	TokenHash  string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy *string
	CreatedAt  time.Time
}

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token revoked")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")
	ErrRefreshTokenMismatch = errors.New("refresh token mismatch")
)

// Check validates a locked row against the presented token hash at time now.
func (t RefreshToken) Check(tokenHash string, now time.Time) error {
	if t.RevokedAt != nil {
		return ErrRefreshTokenRevoked
	}
	if now.After(t.ExpiresAt) {
		return ErrRefreshTokenExpired
	}
	if t.TokenHash != tokenHash {
		return ErrRefreshTokenMismatch
	}
	return nil
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
