package http

import (
	"context"
	"log/slog"
	nethttp "net/http"
	"time"

	"github.com/geocoder89/orgdir/internal/auth"
	"github.com/geocoder89/orgdir/internal/cache"
	"github.com/geocoder89/orgdir/internal/config"
	"github.com/geocoder89/orgdir/internal/domain/group"
	"github.com/geocoder89/orgdir/internal/domain/user"
	"github.com/geocoder89/orgdir/internal/http/handlers"
	"github.com/geocoder89/orgdir/internal/http/middlewares"
	"github.com/geocoder89/orgdir/internal/observability"
	"github.com/geocoder89/orgdir/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// UserRepository is everything the HTTP layer needs from the user store.
type UserRepository interface {
	handlers.UserStore
	GetByEmail(ctx context.Context, email string) (user.User, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// Deps are the stores and shared collaborators the router wires into handlers. Postgres
// repositories and the in-memory store both satisfy them.
type Deps struct {
	Users         UserRepository
	Organizations handlers.OrganizationStore
	Groups        handlers.GroupLister
	RefreshTokens handlers.RefreshTokenStore

	LoginLimiter ratelimit.Limiter
	Prom         *observability.Prom
	Gatherer     prometheus.Gatherer
	Ready        map[string]handlers.Pinger
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true

	if deps.LoginLimiter == nil {
		deps.LoginLimiter = ratelimit.NewMemoryLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("orgdir"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	if cfg.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	}
	r.Use(middlewares.RequireJSON())

	r.NoRoute(func(c *gin.Context) {
		handlers.RespondNotFound(c, "Not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.RespondError(c, nethttp.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	// Routes
	h := handlers.NewHealthHandler(deps.Ready)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())
	authMW := middlewares.NewAuthMiddleware(jwtManager, deps.Users)

	// Wire up handlers
	authHandler := handlers.NewAuthHandler(deps.Users, jwtManager, deps.RefreshTokens, deps.Prom, log)
	usersHandler := handlers.NewUsersHandler(deps.Users, deps.Prom)
	orgsHandler := handlers.NewOrganizationsHandler(deps.Organizations, deps.Prom)
	orgUsersHandler := handlers.NewOrganizationUsersHandler(deps.Users, deps.Prom)
	infoHandler := handlers.NewInfoHandler(deps.Users)
	groupsHandler := handlers.NewGroupsHandler(deps.Groups, cache.New[[]group.Group](time.Minute))

	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/login", middlewares.RateLimit(deps.LoginLimiter, middlewares.KeyByIP, deps.Prom, log), authHandler.Login)
		authRoutes.POST("/refresh", authHandler.Refresh)
		authRoutes.POST("/logout", authHandler.Logout)
		authRoutes.GET("/groups", authMW.RequireAuth(), groupsHandler.List)
	}

	protected := r.Group("/", authMW.RequireAuth())
	{
		protected.GET("/users", usersHandler.List)
		protected.HEAD("/users", usersHandler.List)
		protected.OPTIONS("/users", usersHandler.OptionsCollection)
		protected.POST("/users", usersHandler.Create)
		protected.GET("/users/:id", usersHandler.Get)
		protected.HEAD("/users/:id", usersHandler.Get)
		protected.OPTIONS("/users/:id", usersHandler.Options)
		protected.PATCH("/users/:id", usersHandler.Update)
		protected.DELETE("/users/:id", usersHandler.Delete)

		protected.GET("/organizations/:id", orgsHandler.Get)
		protected.HEAD("/organizations/:id", orgsHandler.Get)
		protected.OPTIONS("/organizations/:id", orgsHandler.Options)
		protected.PATCH("/organizations/:id", orgsHandler.Update)
		protected.GET("/organizations/:id/users", orgUsersHandler.List)
		protected.HEAD("/organizations/:id/users", orgUsersHandler.List)
		protected.OPTIONS("/organizations/:id/users", orgUsersHandler.Options)
		protected.GET("/organizations/:id/users/:uid", orgUsersHandler.Get)
		protected.HEAD("/organizations/:id/users/:uid", orgUsersHandler.Get)
		protected.OPTIONS("/organizations/:id/users/:uid", orgUsersHandler.Options)

		protected.GET("/info", infoHandler.Info)
	}

	return r
}
