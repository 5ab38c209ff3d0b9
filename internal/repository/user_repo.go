package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/quran_app_server/internal/model"
)

var ErrDuplicateEmail = errors.New("email already registered")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx 返回绑定到事务的仓库
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

// Transaction 在同一事务中执行多个仓库操作，配合 WithTx 使用
func (r *UserRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func (r *UserRepository) Create(user *model.User) error {
	err := r.db.Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *UserRepository) GetByID(id int64) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	result := r.db.Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) MarkEmailVerified(id int64) error {
	return r.UpdateFields(id, map[string]interface{}{"email_verified": true})
}

func (r *UserRepository) UpdatePassword(id int64, passwordHash string) error {
	return r.UpdateFields(id, map[string]interface{}{"password_hash": passwordHash})
}

func (r *UserRepository) TouchLastLogin(id int64, at time.Time) error {
	return r.UpdateFields(id, map[string]interface{}{"last_login_at": at})
}

func (r *UserRepository) SetTier(id int64, tier string) error {
	return r.UpdateFields(id, map[string]interface{}{"tier": tier})
}

func (r *UserRepository) ExistsByEmail(email string) (bool, error) {
	var count int64
	err := r.db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}
