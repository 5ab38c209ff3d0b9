package model

import (
	"time"
)

const (
	PurposeEmailVerification = "email_verification"
	PurposePasswordReset     = "password_reset"
)

// AuthToken 一次性令牌（邮箱验证 / 密码重置），只保存令牌的 SHA-256 摘要
type AuthToken struct {
	ID        int64      `gorm:"primaryKey"`
	UserID    int64      `gorm:"not null;index:idx_auth_tokens_user_purpose"`
	Purpose   string     `gorm:"size:32;not null;index:idx_auth_tokens_user_purpose"`
	TokenHash string     `gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	UsedAt    *time.Time `gorm:"index"`
	CreatedAt time.Time
}

func (AuthToken) TableName() string {
	return "auth_tokens"
}

func (t *AuthToken) IsActive(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
