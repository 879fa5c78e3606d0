package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/orgdir/internal/auth"
	"github.com/geocoder89/orgdir/internal/domain/session"
	"github.com/geocoder89/orgdir/internal/domain/user"
	"github.com/geocoder89/orgdir/internal/observability"
	"github.com/geocoder89/orgdir/internal/security"
	"github.com/gin-gonic/gin"
)

type Credentials interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

type RefreshTokenStore interface {
	Save(ctx context.Context, row session.RefreshToken) error
	Rotate(ctx context.Context, id, tokenHash string, next session.RefreshToken) (int64, error)
	Revoke(ctx context.Context, id string) error
}

type AuthHandler struct {
	users        Credentials
	jwt          *auth.Manager
	refreshStore RefreshTokenStore
	prom         *observability.Prom
	log          *slog.Logger
}

func NewAuthHandler(users Credentials, jwtManager *auth.Manager, refreshStore RefreshTokenStore, prom *observability.Prom, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:        users,
		jwt:          jwtManager,
		refreshStore: refreshStore,
		prom:         prom,
		log:          log,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := storeCtx(ctx)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, user.NormalizeEmail(req.Email))
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		RespondInternal(ctx, "Could not log in")
		return
	}

	// unknown emails still pay for a bcrypt comparison
	if !security.VerifyLogin(foundUser.PasswordHash, req.Password) || !foundUser.IsActive {
		h.prom.ObserveLogin("invalid_credentials")
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	pair, err := h.issue(cctx, foundUser.ID)
	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	if err := h.users.TouchLastLogin(cctx, foundUser.ID, time.Now().UTC()); err != nil {
		h.log.Warn("last_login update failed", "user_id", foundUser.ID, "err", err)
	}

	h.prom.ObserveLogin("ok")
	ctx.JSON(http.StatusOK, pair)
}

// Refresh rotates a refresh token: the presented one is revoked and a new pair is issued.
// Presenting an already rotated token fails.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	var req RefreshRequest

	if !BindJSON(ctx, &req) {
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(req.Refresh)
	if err != nil {
		RespondUnauthorized(ctx, "invalid_refresh", "Invalid refresh token.")
		return
	}

	newRaw, newJTI, newExpiresAt, err := h.jwt.GenerateRefreshToken(claims.UserID)
	if err != nil {
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	userID, err := h.refreshStore.Rotate(cctx, claims.ID, h.jwt.HashRefreshToken(req.Refresh), session.RefreshToken{
		ID:        newJTI,
		UserID:    claims.UserID,
		TokenHash: h.jwt.HashRefreshToken(newRaw),
		ExpiresAt: newExpiresAt,
		CreatedAt: time.Now().UTC(),
	})

	switch {
	case errors.Is(err, session.ErrRefreshTokenExpired):
		RespondUnauthorized(ctx, "expired_refresh", "Refresh token expired.")
		return
	case errors.Is(err, session.ErrRefreshTokenNotFound),
		errors.Is(err, session.ErrRefreshTokenRevoked),
		errors.Is(err, session.ErrRefreshTokenMismatch):
		RespondUnauthorized(ctx, "invalid_refresh", "Invalid refresh token.")
		return
	case err != nil:
		RespondInternal(ctx, "Could not refresh session")
		return
	}

	// the account may have been deactivated since the token was issued
	u, err := h.users.GetByID(cctx, userID)
	if err != nil || !u.IsActive {
		_ = h.refreshStore.Revoke(cctx, newJTI)
		RespondUnauthorized(ctx, "invalid_refresh", "Invalid refresh token.")
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(userID)
	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, session.TokenPair{Access: accessToken, Refresh: newRaw})
}

// Logout revokes the presented refresh token. Unknown or already revoked tokens are not an error.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	var req RefreshRequest

	if !BindJSON(ctx, &req) {
		return
	}

	claims, err := h.jwt.VerifyRefreshToken(req.Refresh)
	if err != nil {
		ctx.Status(http.StatusNoContent)
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	if err := h.refreshStore.Revoke(cctx, claims.ID); err != nil {
		h.log.Warn("refresh revoke failed", "jti", claims.ID, "err", err)
	}

	ctx.Status(http.StatusNoContent)
}

func (h *AuthHandler) issue(ctx context.Context, userID int64) (session.TokenPair, error) {
	accessToken, err := h.jwt.GenerateAccessToken(userID)
	if err != nil {
		return session.TokenPair{}, err
	}

	rawRefreshToken, jti, expiresAt, err := h.jwt.GenerateRefreshToken(userID)
	if err != nil {
		return session.TokenPair{}, err
	}

	err = h.refreshStore.Save(ctx, session.RefreshToken{
		ID:        jti,
		UserID:    userID,
		TokenHash: h.jwt.HashRefreshToken(rawRefreshToken),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return session.TokenPair{}, err
	}

	return session.TokenPair{Access: accessToken, Refresh: rawRefreshToken}, nil
}
