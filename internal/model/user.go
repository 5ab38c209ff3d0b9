package model

import (
	"time"
)

const (
	TierFree    = "free"
	TierPremium = "premium"
)

type User struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	Email         string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash  string     `gorm:"size:255;not null" json:"-"`
	DisplayName   string     `gorm:"size:100" json:"display_name"`
	EmailVerified bool       `gorm:"default:false" json:"email_verified"`
	Tier          string     `gorm:"size:20;default:free;not null" json:"tier"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsPremium() bool {
	return u.Tier == TierPremium
}
