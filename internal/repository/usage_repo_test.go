package repository

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/quran_app_server/internal/model"
	"github.com/qs3c/quran_app_server/internal/testutil"
)

func TestUsageRepository_GetMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUsageRepository(db)

	rec, err := repo.Get(model.SubjectDevice, "nobody")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestUsageRepository_Increment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUsageRepository(db)
	now := time.Now().UTC()
	window := now.Truncate(24 * time.Hour).Unix()

	rec, err := repo.Increment(model.SubjectDevice, "device-1", window, now)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Used)
	assert.Equal(t, window, rec.WindowStart)

	rec, err = repo.Increment(model.SubjectDevice, "device-1", window, now)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Used)

	// 同一 key 不同主体类型互不影响
	rec, err = repo.Increment(model.SubjectUser, "device-1", window, now)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Used)
}

func TestUsageRepository_IncrementNewWindowRestarts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUsageRepository(db)
	now := time.Now().UTC()
	old := now.Add(-48 * time.Hour).Truncate(24 * time.Hour)
	testutil.TestUsage(t, db, model.SubjectUser, "7", 9, old)

	window := now.Truncate(24 * time.Hour).Unix()
	rec, err := repo.Increment(model.SubjectUser, "7", window, now)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Used)
	assert.Equal(t, window, rec.WindowStart)
}

func TestUsageRepository_ConcurrentIncrement(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUsageRepository(db)
	now := time.Now().UTC()
	window := now.Truncate(24 * time.Hour).Unix()

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Increment(model.SubjectDevice, "shared", window, now); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rec, err := repo.Get(model.SubjectDevice, "shared")
	require.NoError(t, err)
	assert.Equal(t, n, rec.Used)
}

func TestUsageRepository_DeleteStale(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUsageRepository(db)
	now := time.Now().UTC().Truncate(time.Hour)
	testutil.TestUsage(t, db, model.SubjectDevice, "old", 3, now.Add(-96*time.Hour))
	testutil.TestUsage(t, db, model.SubjectDevice, "fresh", 1, now)

	cutoff := now.Add(-72 * time.Hour).Unix()
	count, err := repo.CountStale(cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	deleted, err := repo.DeleteStale(cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	rec, err := repo.Get(model.SubjectDevice, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, rec)
}
