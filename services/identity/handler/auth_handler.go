package handler

import (
	"context"
	"net/http"

	"auction-backend/internal/auctionerrors"
	model "auction-backend/internal/models"
	"auction-backend/services/helpers"
	"auction-backend/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=auth_handler.go -destination=mock_auth_handler.go -package=handler

type IdentityServiceInterface interface {
	Register(ctx context.Context, username, email, password string) (model.User, error)
	Login(ctx context.Context, email, password string) (model.User, error)
}

type AuthHandler struct {
	service IdentityServiceInterface
}

func NewAuthHandler(service IdentityServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterHandler handles POST /register
func (h *AuthHandler) RegisterHandler(c *gin.Context) {
	var req helpers.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterHandler", err)
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		helpers.RespondError(c, "RegisterHandler", err, map[string]any{"username": req.Username})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewUserResponse(user), "user registered successfully")
	helpers.LogSuccess("RegisterHandler", "user registered successfully", map[string]any{
		"user_id":  user.UserID,
		"username": user.Username,
	})
}

// LoginHandler handles POST /login and starts a session
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	user, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		helpers.RespondError(c, "LoginHandler", err, nil)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(helpers.SessionKeyUserID, user.UserID)
	if err := session.Save(); err != nil {
		helpers.RespondError(c, "LoginHandler", err, map[string]any{"user_id": user.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, user.Identity(), "logged in successfully")
	helpers.LogSuccess("LoginHandler", "logged in successfully", map[string]any{"user_id": user.UserID})
}

// LogoutHandler handles POST /logout
func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		helpers.RespondError(c, "LogoutHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, nil, "logged out successfully")
}

// MeHandler handles GET /me
func (h *AuthHandler) MeHandler(c *gin.Context) {
	identity, ok := helpers.CurrentIdentity(c)
	if !ok {
		helpers.RespondError(c, "MeHandler", auctionerrors.ErrUnauthenticated, nil)
		return
	}
	utils.JSONResponse(c, http.StatusOK, identity, "user retrieved successfully")
}
