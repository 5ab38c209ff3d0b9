package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/quran_app_server/internal/model"
)

// ErrTokenInvalid 令牌不存在、已过期或已被使用
var ErrTokenInvalid = errors.New("token invalid or already used")

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *TokenRepository) WithTx(tx *gorm.DB) *TokenRepository {
	return &TokenRepository{db: tx}
}

// Issue 写入新令牌，同一用户同一用途下未使用的旧令牌一并作废。
// 先锁住用户行，并发签发时作废与写入按顺序执行，保证只有一个有效令牌
func (r *TokenRepository) Issue(userID int64, purpose, tokenHash string, expiresAt time.Time) (*model.AuthToken, error) {
	token := &model.AuthToken{
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var owner model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").First(&owner, userID).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND purpose = ? AND used_at IS NULL", userID, purpose).
			Delete(&model.AuthToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// Consume 原子地消费令牌。条件更新 used_at IS NULL 只有一个请求能成功；
// then 在同一事务内执行，失败时令牌不会被消费。
func (r *TokenRepository) Consume(purpose, tokenHash string, now time.Time, then func(tx *gorm.DB, token *model.AuthToken) error) (*model.AuthToken, error) {
	var token model.AuthToken

	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("token_hash = ? AND purpose = ?", tokenHash, purpose).First(&token).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTokenInvalid
		}
		if err != nil {
			return err
		}
		if !token.IsActive(now) {
			return ErrTokenInvalid
		}

		result := tx.Model(&model.AuthToken{}).
			Where("id = ? AND used_at IS NULL", token.ID).
			Update("used_at", now)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return ErrTokenInvalid
		}
		token.UsedAt = &now

		if then != nil {
			return then(tx, &token)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *TokenRepository) spent(before time.Time) *gorm.DB {
	return r.db.Where("expires_at < ? OR (used_at IS NOT NULL AND used_at < ?)", before, before)
}

// DeleteSpent 删除 before 之前过期或已使用的令牌
func (r *TokenRepository) DeleteSpent(before time.Time) (int64, error) {
	result := r.spent(before).Delete(&model.AuthToken{})
	return result.RowsAffected, result.Error
}

func (r *TokenRepository) CountSpent(before time.Time) (int64, error) {
	var count int64
	err := r.spent(before).Model(&model.AuthToken{}).Count(&count).Error
	return count, err
}
