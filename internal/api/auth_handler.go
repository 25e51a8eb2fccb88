package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/inventory-backend/internal/api/responses"
	"github.com/example/inventory-backend/internal/core"
	"github.com/example/inventory-backend/internal/middleware"
	"github.com/example/inventory-backend/internal/models"
)

// AuthHandler handles registration, login and user management.
type AuthHandler struct {
	authService core.AuthService
	logger      *zap.Logger
	detailed    bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as core.AuthService, logger *zap.Logger, detailed bool) *AuthHandler {
	return &AuthHandler{authService: as, logger: logger, detailed: detailed}
}

func (h *AuthHandler) mapAuthErrorToStatus(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, core.ErrEmailTaken):
		responses.FailDetail(c, http.StatusConflict, message, core.ErrEmailTaken.Error())
	case errors.Is(err, core.ErrInvalidCredentials):
		responses.Fail(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, core.ErrUserNotFound):
		responses.Fail(c, http.StatusNotFound, "User not found")
	default:
		h.logger.Error(message, zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
		responses.Internal(c, message, err, h.detailed)
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		h.mapAuthErrorToStatus(c, "Failed to register user", err)
		return
	}
	responses.OK(c, http.StatusCreated, "User registered successfully", result)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.mapAuthErrorToStatus(c, "Failed to log in", err)
		return
	}
	responses.OK(c, http.StatusOK, "User logged in successfully", result)
}

// Me handles GET /api/auth/profile/me. The auth middleware has already
// resolved the user.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		responses.FailDetail(c, http.StatusUnauthorized, "Authentication required", "No token provided")
		return
	}
	responses.OK(c, http.StatusOK, "Token verified successfully", UserData{User: user})
}

// GetUser handles GET /api/auth/users/:id
func (h *AuthHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), id)
	if err != nil {
		h.mapAuthErrorToStatus(c, "Failed to retrieve user", err)
		return
	}
	responses.OK(c, http.StatusOK, "User retrieved successfully", UserData{User: user})
}

// UpdateUser handles PUT /api/auth/users/:id
func (h *AuthHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch models.UserPatch
	if !bindJSON(c, &patch) {
		return
	}
	if patch.IsEmpty() {
		responses.Invalid(c, []responses.FieldError{{
			Field:   "body",
			Message: "at least one of username, photo_url, status is required",
		}})
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), id, patch)
	if err != nil {
		h.mapAuthErrorToStatus(c, "Failed to update user profile", err)
		return
	}
	responses.OK(c, http.StatusOK, "User profile updated successfully", UserData{User: user})
}

// DeleteUser handles DELETE /api/auth/users/:id
func (h *AuthHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.authService.DeleteUser(c.Request.Context(), id); err != nil {
		h.mapAuthErrorToStatus(c, "Failed to delete user", err)
		return
	}
	responses.OK(c, http.StatusOK, "User deleted successfully", nil)
}
