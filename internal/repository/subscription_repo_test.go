package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/quran_app_server/internal/model"
	"github.com/qs3c/quran_app_server/internal/testutil"
)

func TestSubscriptionRepository_Sync(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)
	users := NewUserRepository(db)
	user := testutil.TestUser(t, db)
	now := time.Now().UTC()

	sub, err := repo.Sync(user.ID, "rc_abc", now)
	require.NoError(t, err)
	assert.Equal(t, user.ID, sub.UserID)
	assert.Equal(t, "rc_abc", sub.RevenueCatCustomerID)
	assert.Equal(t, model.SubscriptionPending, sub.Status)
	require.NotNil(t, sub.SyncedAt)

	found, err := users.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TierPremium, found.Tier)
}

func TestSubscriptionRepository_SyncIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)
	user := testutil.TestUser(t, db)
	now := time.Now().UTC()

	first, err := repo.Sync(user.ID, "rc_abc", now)
	require.NoError(t, err)
	second, err := repo.Sync(user.ID, "rc_abc", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	third, err := repo.Sync(user.ID, "rc_new", now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)
	assert.Equal(t, "rc_new", third.RevenueCatCustomerID)

	var count int64
	db.Model(&model.Subscription{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSubscriptionRepository_SyncUnknownUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)

	_, err := repo.Sync(9999, "rc_abc", time.Now().UTC())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	db.Model(&model.Subscription{}).Count(&count)
	assert.Zero(t, count)
}

func TestSubscriptionRepository_GetByUserID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewSubscriptionRepository(db)
	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID, "rc_1", model.SubscriptionActive)

	sub, err := repo.GetByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionActive, sub.Status)

	_, err = repo.GetByUserID(user.ID + 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
