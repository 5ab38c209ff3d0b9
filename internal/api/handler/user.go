package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/quran_app_server/internal/api/middleware"
	"github.com/qs3c/quran_app_server/internal/pkg/response"
	"github.com/qs3c/quran_app_server/internal/service"
)

type UserHandler struct {
	authService *service.AuthService
}

func NewUserHandler(authService *service.AuthService) *UserHandler {
	return &UserHandler{
		authService: authService,
	}
}

// Me 获取当前用户信息
// GET /api/v1/auth/me
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, middleware.ErrMissingToken)
		return
	}

	profile, err := h.authService.GetUserByID(userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if profile == nil {
		response.FromError(c, service.ErrUserNotFound)
		return
	}

	response.Success(c, profile)
}
