package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/orgdir/internal/config"
	"github.com/geocoder89/orgdir/internal/db"
	httpx "github.com/geocoder89/orgdir/internal/http"
	"github.com/geocoder89/orgdir/internal/http/handlers"
	"github.com/geocoder89/orgdir/internal/observability"
	"github.com/geocoder89/orgdir/internal/ratelimit"
	"github.com/geocoder89/orgdir/internal/redisclient"
	"github.com/geocoder89/orgdir/internal/repo/memory"
	"github.com/geocoder89/orgdir/internal/repo/postgres"
)

// buildDeps opens the configured store, provisions groups and the bootstrap administrator, and
// picks the login limiter. cleanup releases every connection opened here.
func buildDeps(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (httpx.Deps, func(), error) {
	deps := httpx.Deps{
		Prom:  prom,
		Ready: map[string]handlers.Pinger{},
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var (
		groups db.GroupSeeder
		orgs   db.OrganizationSeeder
		users  db.UserSeeder
	)

	switch cfg.Store {
	case "memory":
		log.Warn("using in-memory store, data is lost on restart")
		store := memory.NewStore()

		deps.Users = store.Users()
		deps.Organizations = store.Organizations()
		deps.Groups = store.Groups()
		deps.RefreshTokens = store.RefreshTokens()
		groups, orgs, users = store.Groups(), store.Organizations(), store.Users()

	default:
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return deps, cleanup, err
		}
		closers = append(closers, pool.Close)

		if err := db.EnsureSchema(ctx, pool); err != nil {
			return deps, cleanup, err
		}

		usersRepo := postgres.NewUsersRepo(pool, prom)
		orgsRepo := postgres.NewOrganizationsRepo(pool, prom)
		groupsRepo := postgres.NewGroupsRepo(pool, prom)

		deps.Users = usersRepo
		deps.Organizations = orgsRepo
		deps.Groups = groupsRepo
		deps.RefreshTokens = postgres.NewRefreshTokensRepo(pool, prom)
		deps.Ready["postgres"] = pool
		groups, orgs, users = groupsRepo, orgsRepo, usersRepo
	}

	seeded, err := db.EnsureGroups(ctx, groups)
	if err != nil {
		return deps, cleanup, err
	}
	if err := db.EnsureAdminUser(ctx, cfg, seeded, orgs, users); err != nil {
		return deps, cleanup, fmt.Errorf("seed admin: %w", err)
	}

	if cfg.RedisAddr != "" {
		rc, err := redisclient.Open(ctx, cfg)
		closers = append(closers, func() { _ = rc.Close() })
		if err != nil {
			// the limiter fails open, so a cold redis only degrades rate limiting
			log.Warn("redis unreachable at startup", "addr", cfg.RedisAddr, "err", err)
		}

		deps.LoginLimiter = rc.LoginLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
		deps.Ready["redis"] = rc
	} else {
		deps.LoginLimiter = ratelimit.NewMemoryLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
	}

	return deps, cleanup, nil
}
