package repository

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/quran_app_server/internal/model"
	"github.com/qs3c/quran_app_server/internal/pkg/credential"
	"github.com/qs3c/quran_app_server/internal/testutil"
)

func TestTokenRepository_IssueInvalidatesPrevious(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTokenRepository(db)
	user := testutil.TestUser(t, db)
	now := time.Now().UTC()

	_, err := repo.Issue(user.ID, model.PurposePasswordReset, credential.HashToken("first"), now.Add(time.Hour))
	require.NoError(t, err)
	_, err = repo.Issue(user.ID, model.PurposeEmailVerification, credential.HashToken("verify"), now.Add(time.Hour))
	require.NoError(t, err)
	_, err = repo.Issue(user.ID, model.PurposePasswordReset, credential.HashToken("second"), now.Add(time.Hour))
	require.NoError(t, err)

	_, err = repo.Consume(model.PurposePasswordReset, credential.HashToken("first"), now, nil)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// 其他用途的令牌不受影响
	_, err = repo.Consume(model.PurposeEmailVerification, credential.HashToken("verify"), now, nil)
	assert.NoError(t, err)

	tok, err := repo.Consume(model.PurposePasswordReset, credential.HashToken("second"), now, nil)
	require.NoError(t, err)
	assert.Equal(t, user.ID, tok.UserID)
	assert.NotNil(t, tok.UsedAt)
}

func TestTokenRepository_ConsumeSingleUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTokenRepository(db)
	user := testutil.TestUser(t, db)
	now := time.Now().UTC()
	plain := testutil.TestToken(t, db, user.ID, model.PurposeEmailVerification, now.Add(time.Hour))

	_, err := repo.Consume(model.PurposeEmailVerification, credential.HashToken(plain), now, nil)
	require.NoError(t, err)

	_, err = repo.Consume(model.PurposeEmailVerification, credential.HashToken(plain), now, nil)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenRepository_ConsumeWrongPurpose(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTokenRepository(db)
	user := testutil.TestUser(t, db)
	now := time.Now().UTC()
	plain := testutil.TestToken(t, db, user.ID, model.PurposeEmailVerification, now.Add(time.Hour))

	_, err := repo.Consume(model.PurposePasswordReset, credential.HashToken(plain), now, nil)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenRepository_ConsumeExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTokenRepository(db)
	user := testutil.TestUser(t, db)
	now := time.Now().UTC()
	plain := testutil.TestToken(t, db, user.ID, model.PurposePasswordReset, now.Add(-time.Minute))

	_, err := repo.Consume(model.PurposePasswordReset, credential.HashToken(plain), now, nil)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenRepository_ConsumeRollbackOnCallbackError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTokenRepository(db)
	user := testutil.TestUser(t, db)
	now := time.Now().UTC()
	plain := testutil.TestToken(t, db, user.ID, model.PurposePasswordReset, now.Add(time.Hour))

	_, err := repo.Consume(model.PurposePasswordReset, credential.HashToken(plain), now, func(tx *gorm.DB, _ *model.AuthToken) error {
		return gorm.ErrInvalidData
	})
	assert.ErrorIs(t, err, gorm.ErrInvalidData)

	// 回滚后令牌仍可使用
	_, err = repo.Consume(model.PurposePasswordReset, credential.HashToken(plain), now, nil)
	assert.NoError(t, err)
}

func TestTokenRepository_ConcurrentConsume(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTokenRepository(db)
	user := testutil.TestUser(t, db)
	now := time.Now().UTC()
	plain := testutil.TestToken(t, db, user.ID, model.PurposePasswordReset, now.Add(time.Hour))

	const workers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Consume(model.PurposePasswordReset, credential.HashToken(plain), now, nil); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
}

func issueConcurrently(t *testing.T, db *gorm.DB, workers int) {
	t.Helper()

	repo := NewTokenRepository(db)
	user := testutil.TestUser(t, db)
	expires := time.Now().UTC().Add(time.Hour)

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Issue(user.ID, model.PurposePasswordReset, credential.HashToken(fmt.Sprintf("reset-%d", i)), expires)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	var active int64
	require.NoError(t, db.Model(&model.AuthToken{}).
		Where("user_id = ? AND purpose = ? AND used_at IS NULL", user.ID, model.PurposePasswordReset).
		Count(&active).Error)
	assert.Equal(t, int64(1), active)
}

func TestTokenRepository_ConcurrentIssueKeepsOneActive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	issueConcurrently(t, db, 8)
}

func TestTokenRepository_ConcurrentIssueKeepsOneActive_MySQL(t *testing.T) {
	db := testutil.SetupTestDBWithMySQL(t)
	defer testutil.CleanupTestDB(t, db)

	issueConcurrently(t, db, 8)
}

func TestTokenRepository_IssueUnknownUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTokenRepository(db)
	_, err := repo.Issue(999999, model.PurposePasswordReset, credential.HashToken("orphan"), time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	db.Model(&model.AuthToken{}).Count(&count)
	assert.Zero(t, count)
}

func TestTokenRepository_DeleteSpent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewTokenRepository(db)
	user := testutil.TestUser(t, db)
	now := time.Now().UTC()

	testutil.TestToken(t, db, user.ID, model.PurposePasswordReset, now.Add(-48*time.Hour))
	used := testutil.TestToken(t, db, user.ID, model.PurposeEmailVerification, now.Add(time.Hour))
	_, err := repo.Consume(model.PurposeEmailVerification, credential.HashToken(used), now.Add(-2*time.Hour), nil)
	require.NoError(t, err)
	testutil.TestToken(t, db, user.ID, model.PurposeEmailVerification, now.Add(time.Hour))

	count, err := repo.CountSpent(now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	deleted, err := repo.DeleteSpent(now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var remaining int64
	db.Model(&model.AuthToken{}).Count(&remaining)
	assert.Equal(t, int64(1), remaining)
}
