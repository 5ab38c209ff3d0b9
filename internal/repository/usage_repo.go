package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/quran_app_server/internal/model"
)

type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// Get 返回计数记录，不存在时返回 nil
func (r *UsageRepository) Get(subjectType, subjectKey string) (*model.UsageRecord, error) {
	var records []model.UsageRecord
	err := r.db.Where("subject_type = ? AND subject_key = ?", subjectType, subjectKey).
		Limit(1).Find(&records).Error
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Increment 单条 upsert 完成计数 +1；窗口变化时从 1 重新计数。
// used 的赋值必须排在 window_start 之前（MySQL 按顺序求值）。
func (r *UsageRepository) Increment(subjectType, subjectKey string, windowStart int64, now time.Time) (*model.UsageRecord, error) {
	var record *model.UsageRecord

	err := r.db.Transaction(func(tx *gorm.DB) error {
		row := &model.UsageRecord{
			SubjectType: subjectType,
			SubjectKey:  subjectKey,
			Used:        1,
			WindowStart: windowStart,
		}

		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "subject_type"}, {Name: "subject_key"}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "used"}, Value: gorm.Expr("CASE WHEN window_start = ? THEN used + 1 ELSE 1 END", windowStart)},
				{Column: clause.Column{Name: "window_start"}, Value: windowStart},
				{Column: clause.Column{Name: "updated_at"}, Value: now},
			},
		}).Create(row).Error
		if err != nil {
			return err
		}

		record, err = NewUsageRepository(tx).Get(subjectType, subjectKey)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Release 归还一次计数，只作用于 windowStart 所在窗口，计数不会低于 0
func (r *UsageRepository) Release(subjectType, subjectKey string, windowStart int64) error {
	return r.db.Model(&model.UsageRecord{}).
		Where("subject_type = ? AND subject_key = ? AND window_start = ? AND used > 0", subjectType, subjectKey, windowStart).
		Update("used", gorm.Expr("used - 1")).Error
}

// DeleteStale 删除窗口早于 before 的记录（这些记录逻辑上已经归零）
func (r *UsageRepository) DeleteStale(before int64) (int64, error) {
	result := r.db.Where("window_start < ?", before).Delete(&model.UsageRecord{})
	return result.RowsAffected, result.Error
}

func (r *UsageRepository) CountStale(before int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.UsageRecord{}).Where("window_start < ?", before).Count(&count).Error
	return count, err
}
