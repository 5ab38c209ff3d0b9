package dto

// SyncSubscriptionRequest 客户端购买后上报 RevenueCat 客户 ID
type SyncSubscriptionRequest struct {
	RevenueCatCustomerID string `json:"revenueCatCustomerId" binding:"required,max=255"`
}

// SubscriptionInfo 订阅信息
type SubscriptionInfo struct {
	RevenueCatCustomerID string  `json:"revenueCatCustomerId"`
	Status               string  `json:"status"`
	Entitlement          string  `json:"entitlement,omitempty"`
	Tier                 string  `json:"tier"`
	SyncedAt             *string `json:"syncedAt,omitempty"`
	ExpiresAt            *string `json:"expiresAt,omitempty"`
}
