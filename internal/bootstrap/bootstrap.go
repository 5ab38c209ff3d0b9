// Package bootstrap 各个命令共用的启动步骤：读取 .env 与配置、创建日志、连接存储。
package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs3c/quran_app_server/config"
	"github.com/qs3c/quran_app_server/internal/database"
	"github.com/qs3c/quran_app_server/internal/pkg/logger"
	"github.com/qs3c/quran_app_server/internal/service"
)

// LoadConfig 先加载 .env（不存在时忽略），再读取 CONFIG_PATH 指定的配置文件
func LoadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Init 读取配置并创建日志
func Init() (*config.Config, *zap.Logger, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// OpenDatabase 连接数据库并迁移表结构
func OpenDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := database.Open(&cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}

	log.Info("database connected", zap.String("driver", driverName(cfg.Database.Driver)))
	return db, nil
}

func driverName(driver string) string {
	if driver == "" {
		return "mysql"
	}
	return driver
}

// OpenRedis 未配置 Redis 时返回 nil
func OpenRedis(cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	if !cfg.Redis.Enabled() {
		log.Info("redis not configured, using in-process stores")
		return nil, nil
	}

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		return nil, err
	}
	log.Info("redis connected", zap.String("host", cfg.Redis.Host))
	return rdb, nil
}

// AuthStores 根据是否有 Redis 选择刷新令牌存储和请求限流器
func AuthStores(cfg *config.Config, rdb *redis.Client) (service.RefreshTokenStore, service.RequestLimiter) {
	window := time.Duration(cfg.Auth.ResetRequestWindowMins) * time.Minute
	if window <= 0 {
		window = 15 * time.Minute
	}
	limit := cfg.Auth.ResetRequestLimit
	if limit <= 0 {
		limit = 3
	}

	if rdb == nil {
		return service.NewMemoryRefreshTokenStore(), service.NewMemoryRequestLimiter(window, limit)
	}
	return service.NewRedisRefreshTokenStore(rdb), service.NewRedisRequestLimiter(rdb, window, limit)
}
