package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/geocoder89/orgdir/internal/domain/group"
	"github.com/geocoder89/orgdir/internal/domain/user"
	"github.com/geocoder89/orgdir/internal/observability"
	"github.com/geocoder89/orgdir/internal/policy"
	"github.com/geocoder89/orgdir/internal/security"
	"github.com/geocoder89/orgdir/internal/utils"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
	List(ctx context.Context, filter user.ListFilter) ([]user.User, int, error)
}

type UserStore interface {
	UserReader
	Create(ctx context.Context, nu user.NewUser) (user.User, error)
	Update(ctx context.Context, id int64, req user.UpdateRequest) (user.User, error)
	Delete(ctx context.Context, id int64) error
}

type UsersHandler struct {
	users UserStore
	prom  *observability.Prom
}

func NewUsersHandler(users UserStore, prom *observability.Prom) *UsersHandler {
	return &UsersHandler{users: users, prom: prom}
}

// List returns the users of the actor's organization, optionally filtered by exact phone or a
// case-insensitive search over name and email.
func (h *UsersHandler) List(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	if !h.allow(ctx, "users", policy.CanAccessUserCollection(actor, ctx.Request.Method)) {
		return
	}

	page := utils.ParsePage(ctx.Request.URL.Query())
	filter := user.ListFilter{
		OrganizationID: *actor.OrganizationID,
		Limit:          page.Limit,
		Offset:         page.Offset,
	}
	if phone, ok := ctx.GetQuery("phone"); ok && phone != "" {
		filter.Phone = &phone
	}
	if search, ok := ctx.GetQuery("search"); ok && search != "" {
		filter.Search = &search
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	items, total, err := h.users.List(cctx, filter)
	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, utils.NewEnvelope(ctx.Request.URL, page, total, user.RenderAll(items, user.ViewFull)))
}

// Create adds a user to the acting administrator's organization. Any organization sent in the
// body is ignored.
func (h *UsersHandler) Create(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	if !h.allow(ctx, "users", policy.CanAccessUserCollection(actor, ctx.Request.Method)) {
		return
	}

	var req user.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	created, err := h.users.Create(cctx, user.NewUser{
		Email:          user.NormalizeEmail(req.Email),
		PasswordHash:   hash,
		Name:           req.Name,
		Phone:          req.Phone,
		Birthdate:      req.Birthdate,
		OrganizationID: actor.OrganizationID,
		GroupIDs:       req.Groups,
		IsActive:       true,
	})
	if err != nil {
		h.respondWriteError(ctx, err, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, user.Render(created, user.ViewCreated))
}

func (h *UsersHandler) Get(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	target, ok := h.load(ctx, actor)
	if !ok {
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, user.Render(target, user.ViewInfo))
}

func (h *UsersHandler) Update(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	target, ok := h.load(ctx, actor)
	if !ok {
		return
	}

	var req user.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if req.Email != nil {
		normalized := user.NormalizeEmail(*req.Email)
		req.Email = &normalized
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	updated, err := h.users.Update(cctx, target.ID, req)
	if err != nil {
		h.respondWriteError(ctx, err, "Could not update user")
		return
	}

	ctx.JSON(http.StatusOK, user.Render(updated, user.ViewInfo))
}

func (h *UsersHandler) Delete(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	target, ok := h.load(ctx, actor)
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	err := h.users.Delete(cctx, target.ID)
	if errors.Is(err, user.ErrNotFound) {
		RespondNotFound(ctx, "User not found")
		return
	}
	if err != nil {
		RespondInternal(ctx, "Could not delete user")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// OptionsCollection reports the methods of /users to actors allowed to read it.
func (h *UsersHandler) OptionsCollection(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	if !h.allow(ctx, "users", policy.CanAccessUserCollection(actor, ctx.Request.Method)) {
		return
	}

	respondAllow(ctx, http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPost)
}

func (h *UsersHandler) Options(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	if _, ok := h.load(ctx, actor); !ok {
		return
	}

	respondAllow(ctx, http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPatch, http.MethodDelete)
}

// load resolves /users/:id for the actor. Rows outside the actor's scope answer 404 before the
// method is checked, so other organizations' ids cannot be probed.
func (h *UsersHandler) load(ctx *gin.Context, actor policy.Actor) (user.User, bool) {
	id, ok := idParam(ctx, "id")
	if !ok {
		RespondNotFound(ctx, "User not found")
		return user.User{}, false
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	target, err := h.users.GetByID(cctx, id)
	if errors.Is(err, user.ErrNotFound) || (err == nil && !policy.InScope(actor, target.ID, target.OrganizationID())) {
		h.prom.ObserveDecision("user", ctx.Request.Method, "not_found")
		RespondNotFound(ctx, "User not found")
		return user.User{}, false
	}
	if err != nil {
		RespondInternal(ctx, "Could not fetch user")
		return user.User{}, false
	}

	if !h.allow(ctx, "user", policy.CanAccessUser(actor, ctx.Request.Method, target.ID, target.OrganizationID())) {
		return user.User{}, false
	}

	return target, true
}

func (h *UsersHandler) allow(ctx *gin.Context, resource string, allowed bool) bool {
	return observeDecision(ctx, h.prom, resource, allowed)
}

func (h *UsersHandler) respondWriteError(ctx *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, user.ErrEmailTaken):
		RespondFieldError(ctx, "email", "unique", "user with this email already exists.")
	case errors.Is(err, group.ErrUnknownGroup):
		RespondFieldError(ctx, "groups", "exists", "references a group that does not exist.")
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	default:
		RespondInternal(ctx, message)
	}
}

// observeDecision records the policy outcome and writes a 403 on deny.
func observeDecision(ctx *gin.Context, prom *observability.Prom, resource string, allowed bool) bool {
	if !allowed {
		prom.ObserveDecision(resource, ctx.Request.Method, "deny")
		RespondForbidden(ctx)
		return false
	}
	prom.ObserveDecision(resource, ctx.Request.Method, "allow")
	return true
}
