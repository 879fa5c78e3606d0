package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/geocoder89/orgdir/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UserGetter interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type InfoHandler struct {
	users UserGetter
}

func NewInfoHandler(users UserGetter) *InfoHandler {
	return &InfoHandler{users: users}
}

type InfoResponse struct {
	ID               int64   `json:"id"`
	UserName         string  `json:"user_name"`
	OrganizationName *string `json:"organization_name"`
	PublicIP         string  `json:"public_ip"`
}

// Info describes the caller: who they are, which organization they belong to and the address the
// request came from.
func (h *InfoHandler) Info(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	u, err := h.users.GetByID(cctx, actor.UserID)
	if errors.Is(err, user.ErrNotFound) {
		RespondUnauthorized(ctx, "authentication_required", "User no longer exists.")
		return
	}
	if err != nil {
		RespondInternal(ctx, "Could not load user")
		return
	}

	resp := InfoResponse{
		ID:       u.ID,
		UserName: u.Name,
		PublicIP: ctx.ClientIP(),
	}
	if u.Organization != nil {
		name := u.Organization.Name
		resp.OrganizationName = &name
	}

	ctx.JSON(http.StatusOK, resp)
}
