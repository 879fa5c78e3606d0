package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_ACCESS_TTL_MINUTES", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("DB_HOST", "db")

	cfg := Load()

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "postgres", cfg.Store)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL())
	require.Equal(t, time.Hour, cfg.RefreshTTL())
	require.Equal(t, "postgres://orgdir:orgdir@db:5432/orgdir?sslmode=disable", cfg.DBURL)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOGIN_RATE_LIMIT", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,,")
	t.Setenv("DATABASE_URL", "postgres://u:p@h/db")

	cfg := Load()

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 10, cfg.LoginRateLimit)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	require.Equal(t, "postgres://u:p@h/db", cfg.DBURL)
}

func TestValidateRejectsDefaultSecretInProd(t *testing.T) {
	cfg := Config{Env: "prod", JWTSecret: "dev-secret-change-me", JWTAccessTTLMinutes: 1, JWTRefreshTTLMinutes: 1}
	require.Error(t, cfg.Validate())

	cfg.JWTSecret = "something-else"
	require.NoError(t, cfg.Validate())
}

func TestValidateStoreBackend(t *testing.T) {
	cfg := Config{Env: "dev", Store: "memory", JWTAccessTTLMinutes: 1, JWTRefreshTTLMinutes: 1}
	require.NoError(t, cfg.Validate())

	cfg.Env = "prod"
	cfg.JWTSecret = "something-else"
	require.Error(t, cfg.Validate())

	cfg.Env = "dev"
	cfg.Store = "sqlite"
	require.Error(t, cfg.Validate())
}
