package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/geocoder89/orgdir/internal/domain/organization"
	"github.com/geocoder89/orgdir/internal/observability"
	"github.com/geocoder89/orgdir/internal/policy"
	"github.com/gin-gonic/gin"
)

type OrganizationStore interface {
	GetByID(ctx context.Context, id int64) (organization.Organization, error)
	Update(ctx context.Context, id int64, req organization.UpdateRequest) (organization.Organization, error)
}

type OrganizationsHandler struct {
	orgs OrganizationStore
	prom *observability.Prom
}

func NewOrganizationsHandler(orgs OrganizationStore, prom *observability.Prom) *OrganizationsHandler {
	return &OrganizationsHandler{orgs: orgs, prom: prom}
}

func (h *OrganizationsHandler) Get(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	org, ok := h.load(ctx, actor)
	if !ok {
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, org)
}

func (h *OrganizationsHandler) Update(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	org, ok := h.load(ctx, actor)
	if !ok {
		return
	}

	var req organization.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	updated, err := h.orgs.Update(cctx, org.ID, req)
	if errors.Is(err, organization.ErrNotFound) {
		RespondNotFound(ctx, "Organization not found")
		return
	}
	if err != nil {
		RespondInternal(ctx, "Could not update organization")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *OrganizationsHandler) Options(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	if _, ok := h.load(ctx, actor); !ok {
		return
	}

	respondAllow(ctx, http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPatch)
}

func (h *OrganizationsHandler) load(ctx *gin.Context, actor policy.Actor) (organization.Organization, bool) {
	id, ok := idParam(ctx, "id")
	if !ok {
		RespondNotFound(ctx, "Organization not found")
		return organization.Organization{}, false
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	org, err := h.orgs.GetByID(cctx, id)
	if errors.Is(err, organization.ErrNotFound) {
		h.prom.ObserveDecision("organization", ctx.Request.Method, "not_found")
		RespondNotFound(ctx, "Organization not found")
		return organization.Organization{}, false
	}
	if err != nil {
		RespondInternal(ctx, "Could not fetch organization")
		return organization.Organization{}, false
	}

	if !observeDecision(ctx, h.prom, "organization", policy.CanAccessOrganization(actor, ctx.Request.Method, org.ID)) {
		return organization.Organization{}, false
	}

	return org, true
}
