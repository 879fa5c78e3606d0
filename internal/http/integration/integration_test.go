package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/orgdir/internal/config"
	"github.com/geocoder89/orgdir/internal/db"
	"github.com/geocoder89/orgdir/internal/domain/session"
	apphttp "github.com/geocoder89/orgdir/internal/http"
	"github.com/geocoder89/orgdir/internal/http/handlers"
	"github.com/geocoder89/orgdir/internal/observability"
	"github.com/geocoder89/orgdir/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

func testConfig() config.Config {
	return config.Config{
		Env:                  "test",
		JWTSecret:            "test-secret-key",
		JWTAccessTTLMinutes:  15,
		JWTRefreshTTLMinutes: 60,
		AdminEmail:           "admin@test.org",
		AdminPassword:        "12345",
		AdminName:            "Raul Novelo",
		AdminOrganization:    "AAAIMX",
		LoginRateLimit:       100,
		LoginRateWindow:      time.Minute,
	}
}

// setupRouter builds the full stack against TEST_DB_DSN, starting from empty tables.
func setupRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("schema: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE refresh_tokens, user_groups, users, organizations, group_permissions, permissions, groups
		RESTART IDENTITY CASCADE
	`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)
	cfg := testConfig()

	users := postgres.NewUsersRepo(pool, prom)
	orgs := postgres.NewOrganizationsRepo(pool, prom)
	groups := postgres.NewGroupsRepo(pool, prom)

	seeded, err := db.EnsureGroups(ctx, groups)
	if err != nil {
		t.Fatalf("seed groups: %v", err)
	}
	if err := db.EnsureAdminUser(ctx, cfg, seeded, orgs, users); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := apphttp.NewRouter(logger, cfg, apphttp.Deps{
		Users:         users,
		Organizations: orgs,
		Groups:        groups,
		RefreshTokens: postgres.NewRefreshTokensRepo(pool, prom),
		Prom:          prom,
		Gatherer:      reg,
		Ready:         map[string]handlers.Pinger{"postgres": pool},
	})

	return router, pool
}

func doJSON(t *testing.T, r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDirectoryAgainstPostgres(t *testing.T) {
	r, _ := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/readyz", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("readyz: got status %d, body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/auth/login", "", `{"email":"admin@test.org","password":"12345"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login: got status %d, body=%s", w.Code, w.Body.String())
	}
	var pair session.TokenPair
	if err := json.Unmarshal(w.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	w = doJSON(t, r, http.MethodPost, "/users", pair.Access, `{"name":"Example","email":"example@example.org","phone":"9991","password":"secret-pass","groups":[2]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got status %d, body=%s", w.Code, w.Body.String())
	}
	var created struct {
		ID     int64   `json:"id"`
		Groups []int64 `json:"groups"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	if len(created.Groups) != 1 || created.Groups[0] != 2 {
		t.Fatalf("unexpected groups: %v", created.Groups)
	}

	w = doJSON(t, r, http.MethodPost, "/users", pair.Access, `{"email":"example@example.org","password":"secret-pass"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate create: got status %d, body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/users?phone=9991", pair.Access, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: got status %d, body=%s", w.Code, w.Body.String())
	}
	var page struct {
		Count   int `json:"count"`
		Results []struct {
			ID           int64 `json:"id"`
			Organization struct {
				Name string `json:"name"`
			} `json:"organization"`
		} `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if page.Count != 1 || page.Results[0].ID != created.ID || page.Results[0].Organization.Name != "AAAIMX" {
		t.Fatalf("unexpected list: %s", w.Body.String())
	}

	path := "/users/" + strconv.FormatInt(created.ID, 10)
	first := doJSON(t, r, http.MethodPatch, path, pair.Access, `{"name":"Renamed"}`)
	second := doJSON(t, r, http.MethodPatch, path, pair.Access, `{"name":"Renamed"}`)
	if first.Code != http.StatusOK || first.Body.String() != second.Body.String() {
		t.Fatalf("patch not idempotent: %s / %s", first.Body.String(), second.Body.String())
	}

	w = doJSON(t, r, http.MethodPatch, path, pair.Access, `{"phone":null}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"phone":null`) || !strings.Contains(w.Body.String(), `"name":"Renamed"`) {
		t.Fatalf("clear phone: got status %d, body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/auth/refresh", "", `{"refresh":"`+pair.Refresh+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: got status %d, body=%s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodPost, "/auth/refresh", "", `{"refresh":"`+pair.Refresh+`"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh: got status %d, body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodDelete, path, pair.Access, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: got status %d, body=%s", w.Code, w.Body.String())
	}
}
