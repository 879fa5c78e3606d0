package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/orgdir/internal/actorctx"
	"github.com/geocoder89/orgdir/internal/config"
	"github.com/geocoder89/orgdir/internal/policy"
	"github.com/gin-gonic/gin"
)

const storeTimeout = 3 * time.Second

// idParam parses a positive numeric path parameter. A malformed id can never match a row, so
// callers answer 404.
func idParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// requireActor returns the authenticated actor or writes a 401.
func requireActor(ctx *gin.Context) (policy.Actor, bool) {
	actor, ok := actorctx.ActorFrom(ctx.Request.Context())
	if !ok {
		RespondUnauthorized(ctx, "authentication_required", "Authentication credentials were not provided.")
		return policy.Actor{}, false
	}
	return actor, true
}

func storeCtx(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return config.WithTimeout(ctx.Request.Context(), storeTimeout)
}

// respondAllow answers an authorized OPTIONS request with the methods the route serves.
func respondAllow(ctx *gin.Context, methods ...string) {
	ctx.Header("Allow", strings.Join(methods, ", "))
	ctx.Status(http.StatusNoContent)
}
