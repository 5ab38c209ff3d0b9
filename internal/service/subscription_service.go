package service

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/quran_app_server/internal/model"
	"github.com/qs3c/quran_app_server/internal/model/dto"
	"github.com/qs3c/quran_app_server/internal/pkg/apperr"
	"github.com/qs3c/quran_app_server/internal/repository"
)

var (
	ErrInvalidCustomerID    = apperr.Validation("INVALID_CUSTOMER_ID", "revenueCatCustomerId must be 1-255 characters")
	ErrSubscriptionNotFound = apperr.NotFound("SUBSCRIPTION_NOT_FOUND", "no subscription on record")
)

// SubscriptionService 客户端购买后的订阅同步。
// 同步后状态为 pending，最终状态由 RevenueCat webhook 确认（不在本服务内）。
type SubscriptionService struct {
	subRepo  *repository.SubscriptionRepository
	userRepo *repository.UserRepository
	now      func() time.Time
}

func NewSubscriptionService(subRepo *repository.SubscriptionRepository, userRepo *repository.UserRepository) *SubscriptionService {
	return &SubscriptionService{
		subRepo:  subRepo,
		userRepo: userRepo,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SyncSubscription 记录客户 ID 并将用户升级为 premium，可重复调用
func (s *SubscriptionService) SyncSubscription(userID int64, customerID string) (*dto.SubscriptionInfo, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" || len(customerID) > 255 {
		return nil, ErrInvalidCustomerID.WithFields(apperr.FieldError{
			Field:   "revenueCatCustomerId",
			Message: "must be 1-255 characters",
		})
	}

	sub, err := s.subRepo.Sync(userID, customerID, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Internal(err)
	}

	return toSubscriptionInfo(sub, model.TierPremium), nil
}

// GetSubscription 当前用户的订阅
func (s *SubscriptionService) GetSubscription(userID int64) (*dto.SubscriptionInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Internal(err)
	}

	sub, err := s.subRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, apperr.Internal(err)
	}

	return toSubscriptionInfo(sub, user.Tier), nil
}

func toSubscriptionInfo(sub *model.Subscription, tier string) *dto.SubscriptionInfo {
	info := &dto.SubscriptionInfo{
		RevenueCatCustomerID: sub.RevenueCatCustomerID,
		Status:               sub.Status,
		Entitlement:          sub.Entitlement,
		Tier:                 tier,
	}
	if sub.SyncedAt != nil {
		t := sub.SyncedAt.UTC().Format(time.RFC3339)
		info.SyncedAt = &t
	}
	if sub.ExpiresAt != nil {
		t := sub.ExpiresAt.UTC().Format(time.RFC3339)
		info.ExpiresAt = &t
	}
	return info
}
