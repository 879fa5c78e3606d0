package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Minute, time.Hour)

	raw, err := m.GenerateAccessToken(42)
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(raw)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.UserID)
	require.Equal(t, "42", claims.Subject)
	require.NotEmpty(t, claims.ID)

	_, err = m.VerifyRefreshToken(raw)
	require.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Minute, time.Hour)

	raw, jti, expiresAt, err := m.GenerateRefreshToken(7)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.VerifyRefreshToken(raw)
	require.NoError(t, err)
	require.Equal(t, jti, claims.ID)

	_, err = m.VerifyAccessToken(raw)
	require.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestVerifyRejectsForeignAndExpiredTokens(t *testing.T) {
	m := NewManager("test-secret", time.Minute, time.Hour)
	other := NewManager("other-secret", time.Minute, time.Hour)

	raw, err := other.GenerateAccessToken(1)
	require.NoError(t, err)
	_, err = m.VerifyAccessToken(raw)
	require.Error(t, err)

	expired := NewManager("test-secret", -time.Minute, time.Hour)
	raw, err = expired.GenerateAccessToken(1)
	require.NoError(t, err)
	_, err = m.VerifyAccessToken(raw)
	require.Error(t, err)

	_, err = m.VerifyAccessToken("not-a-jwt")
	require.Error(t, err)
}

func TestHashRefreshTokenIsDeterministic(t *testing.T) {
	m := NewManager("test-secret", time.Minute, time.Hour)

	require.Equal(t, m.HashRefreshToken("abc"), m.HashRefreshToken("abc"))
	require.NotEqual(t, m.HashRefreshToken("abc"), m.HashRefreshToken("abd"))
}
