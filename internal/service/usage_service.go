package service

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/quran_app_server/config"
	"github.com/qs3c/quran_app_server/internal/model"
	"github.com/qs3c/quran_app_server/internal/model/dto"
	"github.com/qs3c/quran_app_server/internal/pkg/apperr"
	"github.com/qs3c/quran_app_server/internal/repository"
)

// Unlimited premium 用户的 limit / remaining
const Unlimited = -1

var (
	ErrInvalidDeviceID = apperr.Validation("INVALID_DEVICE_ID", "device id must be 1-128 characters of letters, digits, '.', '_', ':' or '-'")
	ErrQuotaExceeded   = apperr.RateLimit("QUOTA_EXCEEDED", "search limit reached for the current period")
)

var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// ValidateDeviceID 返回去除空白后的设备 ID
func ValidateDeviceID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if !deviceIDPattern.MatchString(id) {
		return "", ErrInvalidDeviceID.WithFields(apperr.FieldError{Field: "X-Device-Id", Message: "invalid device id"})
	}
	return id, nil
}

// UsageService 按固定窗口统计搜索次数。登录用户按 user id 计数，匿名用户按设备 ID 计数。
// 窗口从 Unix 纪元开始对齐，记录的 window_start 与当前窗口不同即视为 0。
type UsageService struct {
	usageRepo      *repository.UsageRepository
	userRepo       *repository.UserRepository
	window         time.Duration
	freeLimit      int
	anonymousLimit int
	now            func() time.Time
}

func NewUsageService(usageRepo *repository.UsageRepository, userRepo *repository.UserRepository, cfg *config.Config) *UsageService {
	window := time.Duration(cfg.Usage.WindowHours) * time.Hour
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &UsageService{
		usageRepo:      usageRepo,
		userRepo:       userRepo,
		window:         window,
		freeLimit:      cfg.Usage.FreeLimit,
		anonymousLimit: cfg.Usage.AnonymousLimit,
		now:            time.Now,
	}
}

func (s *UsageService) Window() time.Duration {
	return s.window
}

func (s *UsageService) windowStart() time.Time {
	now := s.now().UTC().Unix()
	size := int64(s.window / time.Second)
	return time.Unix(now-now%size, 0).UTC()
}

func (s *UsageService) used(subjectType, subjectKey string, windowStart time.Time) (int, error) {
	rec, err := s.usageRepo.Get(subjectType, subjectKey)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	if rec == nil || rec.WindowStart != windowStart.Unix() {
		return 0, nil
	}
	return rec.Used, nil
}

func (s *UsageService) user(userID int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Internal(err)
	}
	return user, nil
}

func validation(used, limit int) *dto.UsageValidation {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return &dto.UsageValidation{
		Allowed:   used < limit,
		Remaining: remaining,
		Limit:     limit,
	}
}

func unlimitedValidation() *dto.UsageValidation {
	return &dto.UsageValidation{Allowed: true, Remaining: Unlimited, Limit: Unlimited, Unlimited: true}
}

// CanUserSearch 登录用户是否还能搜索
func (s *UsageService) CanUserSearch(userID int64) (*dto.UsageValidation, error) {
	user, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	if user.IsPremium() {
		return unlimitedValidation(), nil
	}

	used, err := s.used(model.SubjectUser, userKey(userID), s.windowStart())
	if err != nil {
		return nil, err
	}
	return validation(used, s.freeLimit), nil
}

// CanAnonymousSearch 匿名设备是否还能搜索
func (s *UsageService) CanAnonymousSearch(deviceID string) (*dto.UsageValidation, error) {
	id, err := ValidateDeviceID(deviceID)
	if err != nil {
		return nil, err
	}

	used, err := s.used(model.SubjectDevice, id, s.windowStart())
	if err != nil {
		return nil, err
	}
	return validation(used, s.anonymousLimit), nil
}

// IncrementUserUsage 计数 +1。premium 用户同样计数，但不受限制
func (s *UsageService) IncrementUserUsage(userID int64) (*dto.UsageStats, error) {
	user, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	start := s.windowStart()
	rec, err := s.usageRepo.Increment(model.SubjectUser, userKey(userID), start.Unix(), s.now().UTC())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return s.userStats(user, rec.Used, start), nil
}

// IncrementAnonymousUsage 匿名设备计数 +1
func (s *UsageService) IncrementAnonymousUsage(deviceID string) (*dto.UsageStats, error) {
	id, err := ValidateDeviceID(deviceID)
	if err != nil {
		return nil, err
	}

	start := s.windowStart()
	rec, err := s.usageRepo.Increment(model.SubjectDevice, id, start.Unix(), s.now().UTC())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return s.deviceStats(rec.Used, start), nil
}

// Reservation 已预占的一次搜索额度，请求失败时用 Release 归还
type Reservation struct {
	SubjectType string
	SubjectKey  string
	WindowStart int64
	Used        int
}

// ReserveUserSearch 先计数再判断额度：超出时立即归还并返回 ErrQuotaExceeded。
// 计数与判断基于同一次 upsert 的结果，并发请求合计不会超过额度
func (s *UsageService) ReserveUserSearch(userID int64) (*Reservation, error) {
	user, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	limit := s.freeLimit
	if user.IsPremium() {
		limit = Unlimited
	}
	return s.reserve(model.SubjectUser, userKey(userID), limit)
}

// ReserveAnonymousSearch 匿名设备预占一次额度
func (s *UsageService) ReserveAnonymousSearch(deviceID string) (*Reservation, error) {
	id, err := ValidateDeviceID(deviceID)
	if err != nil {
		return nil, err
	}
	return s.reserve(model.SubjectDevice, id, s.anonymousLimit)
}

func (s *UsageService) reserve(subjectType, subjectKey string, limit int) (*Reservation, error) {
	start := s.windowStart().Unix()
	rec, err := s.usageRepo.Increment(subjectType, subjectKey, start, s.now().UTC())
	if err != nil {
		return nil, apperr.Internal(err)
	}

	r := &Reservation{SubjectType: subjectType, SubjectKey: subjectKey, WindowStart: start, Used: rec.Used}
	if limit != Unlimited && rec.Used > limit {
		if err := s.Release(r); err != nil {
			return nil, err
		}
		return nil, ErrQuotaExceeded
	}
	return r, nil
}

// Release 归还预占的额度
func (s *UsageService) Release(r *Reservation) error {
	if r == nil {
		return nil
	}
	if err := s.usageRepo.Release(r.SubjectType, r.SubjectKey, r.WindowStart); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *UsageService) GetUserUsageStats(userID int64) (*dto.UsageStats, error) {
	user, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	start := s.windowStart()
	used, err := s.used(model.SubjectUser, userKey(userID), start)
	if err != nil {
		return nil, err
	}
	return s.userStats(user, used, start), nil
}

func (s *UsageService) GetAnonymousUsageStats(deviceID string) (*dto.UsageStats, error) {
	id, err := ValidateDeviceID(deviceID)
	if err != nil {
		return nil, err
	}

	start := s.windowStart()
	used, err := s.used(model.SubjectDevice, id, start)
	if err != nil {
		return nil, err
	}
	return s.deviceStats(used, start), nil
}

func (s *UsageService) userStats(user *model.User, used int, start time.Time) *dto.UsageStats {
	stats := &dto.UsageStats{
		Subject: model.SubjectUser,
		Tier:    user.Tier,
		Used:    used,
		ResetAt: start.Add(s.window).Format(time.RFC3339),
	}
	if user.IsPremium() {
		stats.Limit = Unlimited
		stats.Remaining = Unlimited
		stats.Unlimited = true
		return stats
	}
	v := validation(used, s.freeLimit)
	stats.Limit = v.Limit
	stats.Remaining = v.Remaining
	return stats
}

func (s *UsageService) deviceStats(used int, start time.Time) *dto.UsageStats {
	v := validation(used, s.anonymousLimit)
	return &dto.UsageStats{
		Subject:   model.SubjectDevice,
		Used:      used,
		Limit:     v.Limit,
		Remaining: v.Remaining,
		ResetAt:   start.Add(s.window).Format(time.RFC3339),
	}
}

func userKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
