package middleware

import (
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/gin-gonic/gin"

	"github.com/qs3c/quran_app_server/config"
	"github.com/qs3c/quran_app_server/internal/pkg/apperr"
	"github.com/qs3c/quran_app_server/internal/pkg/response"
)

var ErrTooManyRequests = apperr.RateLimit("RATE_LIMITED", "too many requests, slow down")

// NewAuthLimiter 按客户端 IP 限流
func NewAuthLimiter(cfg config.RateLimitConfig) *limiter.Limiter {
	rps := cfg.AuthRequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	lmt := tollbooth.NewLimiter(rps, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	if cfg.AuthBurst > 0 {
		lmt.SetBurst(cfg.AuthBurst)
	}
	lmt.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP", "RemoteAddr"})
	return lmt
}

// RateLimit 超出限额返回 429
func RateLimit(lmt *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if httpErr := tollbooth.LimitByRequest(lmt, c.Writer, c.Request); httpErr != nil {
			response.FromError(c, ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
