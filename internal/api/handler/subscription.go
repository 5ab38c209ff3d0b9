package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/quran_app_server/internal/api/middleware"
	"github.com/qs3c/quran_app_server/internal/model/dto"
	"github.com/qs3c/quran_app_server/internal/pkg/response"
	"github.com/qs3c/quran_app_server/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// Sync 客户端购买成功后同步 RevenueCat 客户 ID
// POST /api/v1/subscriptions/sync
func (h *SubscriptionHandler) Sync(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, middleware.ErrMissingToken)
		return
	}

	var req dto.SyncSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	info, err := h.subscriptionService.SyncSubscription(userID, req.RevenueCatCustomerID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "subscription synced", info)
}

// Get 当前用户的订阅
// GET /api/v1/subscriptions/me
func (h *SubscriptionHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.FromError(c, middleware.ErrMissingToken)
		return
	}

	info, err := h.subscriptionService.GetSubscription(userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, info)
}
