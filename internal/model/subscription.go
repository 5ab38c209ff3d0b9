package model

import (
	"time"
)

const (
	SubscriptionPending   = "pending"
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// Subscription RevenueCat 订阅状态。客户端同步后为 pending，等待 webhook 确认。
type Subscription struct {
	ID                   int64      `gorm:"primaryKey" json:"id"`
	UserID               int64      `gorm:"not null;uniqueIndex" json:"user_id"`
	RevenueCatCustomerID string     `gorm:"column:revenuecat_customer_id;size:255;not null;index" json:"revenuecat_customer_id"`
	Status               string     `gorm:"size:20;default:pending;index" json:"status"`
	Entitlement          string     `gorm:"size:50" json:"entitlement,omitempty"`
	SyncedAt             *time.Time `json:"synced_at,omitempty"`
	ConfirmedAt          *time.Time `json:"confirmed_at,omitempty"`
	ExpiresAt            *time.Time `json:"expires_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
