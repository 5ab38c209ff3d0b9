package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/quran_app_server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) GetByUserID(userID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Sync 在一个事务内写入订阅（pending）并把用户升级为 premium。
// 用户不存在时返回 gorm.ErrRecordNotFound。
func (r *SubscriptionRepository) Sync(userID int64, customerID string, now time.Time) (*model.Subscription, error) {
	var sub *model.Subscription

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := NewUserRepository(tx).SetTier(userID, model.TierPremium); err != nil {
			return err
		}

		row := &model.Subscription{
			UserID:               userID,
			RevenueCatCustomerID: customerID,
			Status:               model.SubscriptionPending,
			SyncedAt:             &now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"revenuecat_customer_id", "status", "synced_at", "updated_at"}),
		}).Create(row).Error
		if err != nil {
			return err
		}

		sub, err = NewSubscriptionRepository(tx).GetByUserID(userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}
