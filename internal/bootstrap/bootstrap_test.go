package bootstrap

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qs3c/quran_app_server/config"
	"github.com/qs3c/quran_app_server/internal/model"
)

func TestLoadConfig_FromEnvPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9191\ndatabase:\n  driver: sqlite\n"), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoadConfig_Missing(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestOpenDatabase_SQLite(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "app.db")}}

	db, err := OpenDatabase(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable(&model.User{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func TestOpenRedis(t *testing.T) {
	rdb, err := OpenRedis(&config.Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, rdb)

	mr := miniredis.RunT(t)
	cfg := &config.Config{Redis: config.RedisConfig{Host: mr.Host(), Port: mustAtoi(t, mr.Port())}}
	rdb, err = OpenRedis(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, rdb)
	_ = rdb.Close()
}

func TestAuthStores(t *testing.T) {
	cfg := &config.Config{}

	refresh, limiter := AuthStores(cfg, nil)
	assert.NotNil(t, refresh)
	assert.NotNil(t, limiter)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	refresh, limiter = AuthStores(cfg, rdb)
	assert.NotNil(t, refresh)
	assert.NotNil(t, limiter)
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}
