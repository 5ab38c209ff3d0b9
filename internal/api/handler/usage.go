package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/quran_app_server/internal/api/middleware"
	"github.com/qs3c/quran_app_server/internal/pkg/response"
	"github.com/qs3c/quran_app_server/internal/service"
)

// UsageHandler 搜索配额接口。登录用户按用户计数，否则按 X-Device-Id 计数
type UsageHandler struct {
	usageService *service.UsageService
}

func NewUsageHandler(usageService *service.UsageService) *UsageHandler {
	return &UsageHandler{
		usageService: usageService,
	}
}

// subject 返回当前请求的计数主体，二者都没有时写出 400
func subject(c *gin.Context) (userID int64, deviceID string, ok bool) {
	if userID, ok := middleware.GetUserID(c); ok {
		return userID, "", true
	}
	if deviceID, ok := middleware.GetDeviceID(c); ok {
		return 0, deviceID, true
	}
	response.FromError(c, middleware.ErrIdentityRequired)
	return 0, "", false
}

// Validate 检查是否还能搜索
// GET /api/v1/usage/validate
func (h *UsageHandler) Validate(c *gin.Context) {
	userID, deviceID, ok := subject(c)
	if !ok {
		return
	}

	var (
		result interface{}
		err    error
	)
	if deviceID == "" {
		result, err = h.usageService.CanUserSearch(userID)
	} else {
		result, err = h.usageService.CanAnonymousSearch(deviceID)
	}
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, result)
}

// Increment 记录一次搜索
// POST /api/v1/usage/increment
func (h *UsageHandler) Increment(c *gin.Context) {
	userID, deviceID, ok := subject(c)
	if !ok {
		return
	}

	var (
		result interface{}
		err    error
	)
	if deviceID == "" {
		result, err = h.usageService.IncrementUserUsage(userID)
	} else {
		result, err = h.usageService.IncrementAnonymousUsage(deviceID)
	}
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, result)
}

// Stats 当前窗口的用量
// GET /api/v1/usage/stats
func (h *UsageHandler) Stats(c *gin.Context) {
	userID, deviceID, ok := subject(c)
	if !ok {
		return
	}

	var (
		result interface{}
		err    error
	)
	if deviceID == "" {
		result, err = h.usageService.GetUserUsageStats(userID)
	} else {
		result, err = h.usageService.GetAnonymousUsageStats(deviceID)
	}
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, result)
}
