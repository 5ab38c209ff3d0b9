package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/quran_app_server/internal/pkg/apperr"
	"github.com/qs3c/quran_app_server/internal/pkg/jwt"
	"github.com/qs3c/quran_app_server/internal/pkg/response"
)

const (
	UserIDKey      = "userID"
	DeviceIDKey    = "deviceID"
	DeviceIDHeader = "X-Device-Id"
)

var (
	ErrMissingToken   = apperr.Authentication("MISSING_TOKEN", "authorization bearer token is required")
	ErrMalformedToken = apperr.Authentication("MALFORMED_TOKEN", "authorization header must be 'Bearer <token>'")
	ErrInvalidToken   = apperr.Authentication("INVALID_TOKEN", "access token is invalid")
	ErrExpiredToken   = apperr.Authentication("TOKEN_EXPIRED", "access token has expired")
)

// Identity 已认证的调用方
type Identity struct {
	UserID int64
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMalformedToken
	}
	return parts[1], nil
}

// AuthenticateRequest 解析 Authorization 头中的访问令牌
func AuthenticateRequest(r *http.Request, tokens *jwt.Manager) (*Identity, error) {
	raw, err := bearerToken(r)
	if err != nil {
		return nil, err
	}

	claims, err := tokens.ParseAccessToken(raw)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	return &Identity{UserID: claims.UserID}, nil
}

// OptionalIdentity 认证失败时返回 nil
func OptionalIdentity(r *http.Request, tokens *jwt.Manager) *Identity {
	identity, err := AuthenticateRequest(r, tokens)
	if err != nil {
		return nil
	}
	return identity
}

// ExtractDeviceID 读取 X-Device-Id，缺失时返回空串
func ExtractDeviceID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(DeviceIDHeader))
}

// Auth JWT 认证中间件
func Auth(tokens *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := AuthenticateRequest(c.Request, tokens)
		if err != nil {
			response.FromError(c, err)
			return
		}

		c.Set(UserIDKey, identity.UserID)
		c.Next()
	}
}

// OptionalAuth 可选认证中间件。令牌无效时按匿名处理，并读取设备 ID
func OptionalAuth(tokens *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity := OptionalIdentity(c.Request, tokens); identity != nil {
			c.Set(UserIDKey, identity.UserID)
		} else if deviceID := ExtractDeviceID(c.Request); deviceID != "" {
			c.Set(DeviceIDKey, deviceID)
		}

		c.Next()
	}
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(int64)
	return id, ok
}

// GetDeviceID 从上下文获取设备 ID（仅匿名请求）
func GetDeviceID(c *gin.Context) (string, bool) {
	deviceID, exists := c.Get(DeviceIDKey)
	if !exists {
		return "", false
	}
	id, ok := deviceID.(string)
	return id, ok && id != ""
}
