package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/geocoder89/orgdir/internal/actorctx"
	"github.com/geocoder89/orgdir/internal/auth"
	"github.com/geocoder89/orgdir/internal/domain/user"
	"github.com/geocoder89/orgdir/internal/policy"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

// ActorLoader fetches the user behind a token, with organization and groups, in one call.
type ActorLoader interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users ActorLoader
}

func NewAuthMiddleware(jwt TokenVerifier, users ActorLoader) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users}
}

// RequireAuth resolves the bearer token into a policy.Actor and stores it on the request
// context. Deleted or deactivated accounts are rejected even while their token is unexpired.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortError(c, http.StatusUnauthorized, "authentication_required", "Authentication credentials were not provided.")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortError(c, http.StatusUnauthorized, "authentication_required", "Missing or invalid access token")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			abortError(c, http.StatusUnauthorized, "authentication_required", "Invalid or expired access token")
			return
		}

		u, err := m.users.GetByID(c.Request.Context(), claims.UserID)
		if errors.Is(err, user.ErrNotFound) || (err == nil && !u.IsActive) {
			abortError(c, http.StatusUnauthorized, "authentication_required", "User is inactive or deleted.")
			return
		}
		if err != nil {
			abortError(c, http.StatusInternalServerError, "internal_error", "Could not resolve identity")
			return
		}

		actor := ActorFromUser(u)

		c.Request = c.Request.WithContext(actorctx.WithActor(c.Request.Context(), actor))

		c.Next()
	}
}

func ActorFromUser(u user.User) policy.Actor {
	return policy.Actor{
		UserID:         u.ID,
		OrganizationID: u.OrganizationID(),
		Roles:          policy.NewRoleSet(u.GroupNames()...),
	}
}
