package testutil

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/quran_app_server/internal/model"
	"github.com/qs3c/quran_app_server/internal/pkg/credential"
)

// TestPassword 满足强度要求的默认测试密码
const TestPassword = "Passw0rdX"

var (
	seq = int64(0)

	hashOnce    sync.Once
	defaultHash string
)

func testPasswordHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		h, err := credential.HashPassword(TestPassword)
		if err != nil {
			panic(err)
		}
		defaultHash = h
	})
	return defaultHash
}

// TestUser 创建测试用户，密码为 TestPassword
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	n := atomic.AddInt64(&seq, 1)
	user := &model.User{
		Email:         fmt.Sprintf("test_%d_%d@example.com", n, time.Now().UnixNano()%100000),
		PasswordHash:  testPasswordHash(t),
		DisplayName:   fmt.Sprintf("tester %d", n),
		EmailVerified: true,
		Tier:          model.TierFree,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = email
	}
}

// WithTier 设置订阅等级
func WithTier(tier string) func(*model.User) {
	return func(u *model.User) {
		u.Tier = tier
	}
}

// WithUnverified 邮箱未验证
func WithUnverified() func(*model.User) {
	return func(u *model.User) {
		u.EmailVerified = false
	}
}

// WithPasswordHash 设置密码哈希
func WithPasswordHash(hash string) func(*model.User) {
	return func(u *model.User) {
		u.PasswordHash = hash
	}
}

// TestToken 直接写入一条一次性令牌，返回明文令牌
func TestToken(t *testing.T, db *gorm.DB, userID int64, purpose string, expiresAt time.Time) string {
	t.Helper()

	plain, err := credential.GenerateToken()
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	token := &model.AuthToken{
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: credential.HashToken(plain),
		ExpiresAt: expiresAt,
	}
	if err := db.Create(token).Error; err != nil {
		t.Fatalf("Failed to create test token: %v", err)
	}

	return plain
}

// TestSubscription 创建测试订阅
func TestSubscription(t *testing.T, db *gorm.DB, userID int64, customerID, status string) *model.Subscription {
	t.Helper()

	now := time.Now()
	sub := &model.Subscription{
		UserID:               userID,
		RevenueCatCustomerID: customerID,
		Status:               status,
		SyncedAt:             &now,
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

// TestUsage 写入用量记录
func TestUsage(t *testing.T, db *gorm.DB, subjectType, subjectKey string, used int, windowStart time.Time) *model.UsageRecord {
	t.Helper()

	rec := &model.UsageRecord{
		SubjectType: subjectType,
		SubjectKey:  subjectKey,
		Used:        used,
		WindowStart: windowStart.Unix(),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("Failed to create test usage record: %v", err)
	}

	return rec
}

// TestQuran 写入两章样例数据：1 (Al-Fatiha 前三节) 和 112 (Al-Ikhlas)
func TestQuran(t *testing.T, db *gorm.DB) {
	t.Helper()

	surahs := []model.Surah{
		{Number: 1, NameArabic: "الفاتحة", NameTransliterated: "Al-Fatiha", NameEnglish: "The Opening", RevelationPlace: "meccan", AyahCount: 7},
		{Number: 112, NameArabic: "الإخلاص", NameTransliterated: "Al-Ikhlas", NameEnglish: "Sincerity", RevelationPlace: "meccan", AyahCount: 4},
	}
	ayahs := []model.Ayah{
		{SurahNumber: 1, AyahNumber: 1, Juz: 1, TextArabic: "بِسْمِ اللَّهِ الرَّحْمَٰنِ الرَّحِيمِ", TextTranslation: "In the name of Allah, the Entirely Merciful, the Especially Merciful."},
		{SurahNumber: 1, AyahNumber: 2, Juz: 1, TextArabic: "الْحَمْدُ لِلَّهِ رَبِّ الْعَالَمِينَ", TextTranslation: "All praise is due to Allah, Lord of the worlds."},
		{SurahNumber: 1, AyahNumber: 3, Juz: 1, TextArabic: "الرَّحْمَٰنِ الرَّحِيمِ", TextTranslation: "The Entirely Merciful, the Especially Merciful."},
		{SurahNumber: 112, AyahNumber: 1, Juz: 30, TextArabic: "قُلْ هُوَ اللَّهُ أَحَدٌ", TextTranslation: "Say, He is Allah, One."},
		{SurahNumber: 112, AyahNumber: 2, Juz: 30, TextArabic: "اللَّهُ الصَّمَدُ", TextTranslation: "Allah, the Eternal Refuge."},
	}

	if err := db.Create(&surahs).Error; err != nil {
		t.Fatalf("Failed to create test surahs: %v", err)
	}
	if err := db.Create(&ayahs).Error; err != nil {
		t.Fatalf("Failed to create test ayahs: %v", err)
	}
}
