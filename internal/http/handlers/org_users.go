package handlers

import (
	"errors"
	"net/http"

	"github.com/geocoder89/orgdir/internal/domain/user"
	"github.com/geocoder89/orgdir/internal/observability"
	"github.com/geocoder89/orgdir/internal/policy"
	"github.com/geocoder89/orgdir/internal/utils"
	"github.com/gin-gonic/gin"
)

// OrganizationUsersHandler serves the read-only member listing nested under an organization.
type OrganizationUsersHandler struct {
	users UserReader
	prom  *observability.Prom
}

func NewOrganizationUsersHandler(users UserReader, prom *observability.Prom) *OrganizationUsersHandler {
	return &OrganizationUsersHandler{users: users, prom: prom}
}

func (h *OrganizationUsersHandler) List(ctx *gin.Context) {
	orgID, ok := h.authorize(ctx)
	if !ok {
		return
	}

	page := utils.ParsePage(ctx.Request.URL.Query())

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	items, total, err := h.users.List(cctx, user.ListFilter{
		OrganizationID: orgID,
		Limit:          page.Limit,
		Offset:         page.Offset,
	})
	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, utils.NewEnvelope(ctx.Request.URL, page, total, user.RenderAll(items, user.ViewMember)))
}

func (h *OrganizationUsersHandler) Get(ctx *gin.Context) {
	orgID, ok := h.authorize(ctx)
	if !ok {
		return
	}

	id, ok := idParam(ctx, "uid")
	if !ok {
		RespondNotFound(ctx, "User not found")
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	u, err := h.users.GetByID(cctx, id)
	if errors.Is(err, user.ErrNotFound) || (err == nil && (u.Organization == nil || u.Organization.ID != orgID)) {
		RespondNotFound(ctx, "User not found")
		return
	}
	if err != nil {
		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, user.Render(u, user.ViewMember))
}

func (h *OrganizationUsersHandler) Options(ctx *gin.Context) {
	if _, ok := h.authorize(ctx); !ok {
		return
	}

	respondAllow(ctx, http.MethodGet, http.MethodHead, http.MethodOptions)
}

func (h *OrganizationUsersHandler) authorize(ctx *gin.Context) (int64, bool) {
	actor, ok := requireActor(ctx)
	if !ok {
		return 0, false
	}

	orgID, ok := idParam(ctx, "id")
	if !ok {
		RespondNotFound(ctx, "Organization not found")
		return 0, false
	}

	if !observeDecision(ctx, h.prom, "organization_users", policy.CanAccessOrganizationUsers(actor, ctx.Request.Method, orgID)) {
		return 0, false
	}

	return orgID, true
}
