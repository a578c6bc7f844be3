package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/id"
	"partsledger/internal/domain/auth"
	"partsledger/internal/infrastructure/http/v1/dto"
)

// AuthHandler serves login and account management.
type AuthHandler struct {
	*BaseHandler

	service *auth.Service
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{BaseHandler: base, service: service}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, u, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.LoginResponse{
		Token:        token,
		UserID:       u.ID.String(),
		Username:     u.Username,
		DisplayName:  u.DisplayName,
		Capabilities: u.Capabilities,
	})
}

// CreateUser handles POST /users.
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	u, err := h.service.CreateUser(c.Request.Context(), req.Username, req.Password, req.DisplayName, req.Capabilities)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewIDResponse(u.ID))
}

// ListUsers handles GET /users.
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": users})
}

// ChangePassword handles POST /auth/change-password for the authenticated
// user.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	actorID := h.ActorID(c)
	if id.IsNil(actorID) {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), actorID, req.CurrentPassword, req.NewPassword); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "password changed")
}

// SetUserActive handles POST /users/:id/active.
func (h *AuthHandler) SetUserActive(c *gin.Context) {
	userID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.SetActiveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetActive(c.Request.Context(), userID, req.IsActive); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "user updated")
}
