package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/quran_app_server/internal/model/dto"
	"github.com/qs3c/quran_app_server/internal/pkg/response"
	"github.com/qs3c/quran_app_server/internal/service"
)

const (
	msgResetRequested  = "if the email is registered, a password reset link has been sent"
	msgResendRequested = "if the email is registered and unverified, a new verification link has been sent"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register 用户注册
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	message := "registration successful, please check your email to verify your account"
	response.Created(c, message, dto.RegisterResponse{
		UserID:  result.UserID,
		Message: message,
	})
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "login successful", pair)
}

// VerifyEmail 验证邮箱
// POST /api/v1/auth/verify
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "email verified", dto.MessageResponse{Message: "email verified"})
}

// ResendVerification 重发验证邮件
// POST /api/v1/auth/verify/resend
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req dto.EmailRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ResendVerification(c.Request.Context(), req.Email); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, msgResendRequested, dto.MessageResponse{Message: msgResendRequested})
}

// RequestPasswordReset 申请重置密码，无论邮箱是否存在都返回相同结果
// POST /api/v1/auth/reset-password
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.EmailRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, msgResetRequested, dto.MessageResponse{Message: msgResetRequested})
}

// ResetPassword 使用令牌设置新密码
// POST /api/v1/auth/reset-password/confirm
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "password has been reset", dto.MessageResponse{Message: "password has been reset"})
}

// RefreshToken 轮换令牌对
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, pair)
}

// Logout 吊销刷新令牌
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMessage(c, "logged out", dto.MessageResponse{Message: "logged out"})
}
