package model

import (
	"time"
)

const (
	SubjectUser   = "user"
	SubjectDevice = "device"
)

// UsageRecord 搜索次数计数。WindowStart 为当前窗口起点（Unix 秒），
// 与当前窗口不一致时计数视为 0。
type UsageRecord struct {
	ID          int64     `gorm:"primaryKey"`
	SubjectType string    `gorm:"size:16;not null;uniqueIndex:idx_usage_subject"`
	SubjectKey  string    `gorm:"size:128;not null;uniqueIndex:idx_usage_subject"`
	Used        int       `gorm:"not null;default:0"`
	WindowStart int64     `gorm:"not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (UsageRecord) TableName() string {
	return "usage_records"
}
