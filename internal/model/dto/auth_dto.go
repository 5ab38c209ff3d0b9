package dto

// RegisterRequest 注册请求。密码强度由服务层校验，这里只限制长度上限（bcrypt 72 字节）
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email,max=255"`
	Password    string `json:"password" binding:"required,max=72"`
	DisplayName string `json:"displayName" binding:"omitempty,max=100"`
}

// RegisterResponse 注册响应
type RegisterResponse struct {
	UserID  int64  `json:"userId"`
	Message string `json:"message"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenPair 登录 / 刷新返回的令牌对
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
}

// VerifyEmailRequest 邮箱验证请求
type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required,max=128"`
}

// EmailRequest 只带邮箱的请求（重发验证邮件、申请重置密码）
type EmailRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

// ResetPasswordRequest 重置密码确认请求
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required,max=128"`
	NewPassword string `json:"newPassword" binding:"required,max=72"`
}

// RefreshTokenRequest 刷新 / 注销请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// MessageResponse 只有提示信息的响应
type MessageResponse struct {
	Message string `json:"message"`
}

// UserInfo 用户信息（返回给前端）
type UserInfo struct {
	ID            int64   `json:"id"`
	Email         string  `json:"email"`
	DisplayName   string  `json:"displayName"`
	EmailVerified bool    `json:"emailVerified"`
	Tier          string  `json:"tier"`
	CreatedAt     string  `json:"createdAt"`
	LastLoginAt   *string `json:"lastLoginAt,omitempty"`
}
