package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/orgdir/internal/cache"
	"github.com/geocoder89/orgdir/internal/domain/group"
	"github.com/geocoder89/orgdir/internal/utils"
	"github.com/gin-gonic/gin"
)

type GroupLister interface {
	List(ctx context.Context) ([]group.Group, error)
}

type GroupsHandler struct {
	groups GroupLister
	cache  *cache.Cache[[]group.Group]
}

func NewGroupsHandler(groups GroupLister, c *cache.Cache[[]group.Group]) *GroupsHandler {
	return &GroupsHandler{groups: groups, cache: c}
}

func (h *GroupsHandler) List(ctx *gin.Context) {
	if _, ok := requireActor(ctx); !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	all, err := h.cache.GetOrLoad("groups", func() ([]group.Group, error) {
		return h.groups.List(cctx)
	})
	if err != nil {
		RespondInternal(ctx, "Could not list groups")
		return
	}

	page := utils.ParsePage(ctx.Request.URL.Query())

	start := min(page.Offset, len(all))
	end := min(start+page.Limit, len(all))

	ctx.JSON(http.StatusOK, utils.NewEnvelope(ctx.Request.URL, page, len(all), all[start:end]))
}
