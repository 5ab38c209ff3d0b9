package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qs3c/quran_app_server/internal/pkg/apperr"
	"github.com/qs3c/quran_app_server/internal/pkg/response"
	"github.com/qs3c/quran_app_server/internal/service"
)

var ErrIdentityRequired = apperr.Validation("IDENTITY_REQUIRED", "a bearer token or X-Device-Id header is required")

// UsageGate 搜索配额检查，放在 OptionalAuth 之后。
// 进入前预占一次额度，额度用完返回 429；请求未成功（非 2xx）时归还。
func UsageGate(usage *service.UsageService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			reservation *service.Reservation
			err         error
		)

		if userID, ok := GetUserID(c); ok {
			reservation, err = usage.ReserveUserSearch(userID)
		} else if deviceID, ok := GetDeviceID(c); ok {
			reservation, err = usage.ReserveAnonymousSearch(deviceID)
		} else {
			response.FromError(c, ErrIdentityRequired)
			return
		}
		if err != nil {
			response.FromError(c, err)
			return
		}

		c.Next()

		if status := c.Writer.Status(); status < 200 || status >= 300 {
			if err := usage.Release(reservation); err != nil {
				log.Error("failed to release search usage", zap.Error(err))
			}
		}
	}
}
