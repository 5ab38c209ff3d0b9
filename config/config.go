package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Email     EmailConfig     `mapstructure:"email"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Usage     UsageConfig     `mapstructure:"usage"`
	Quran     QuranConfig     `mapstructure:"quran"`
	Log       LogConfig       `mapstructure:"log"`
	Janitor   JanitorConfig   `mapstructure:"janitor"`
}

type ServerConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	Mode                   string `mapstructure:"mode"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql, sqlite
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SQLitePath   string `mapstructure:"sqlite_path"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Enabled reports whether a Redis server is configured. Without one the
// server falls back to in-process stores.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	Issuer           string `mapstructure:"issuer"`
	AccessTTLMinutes int    `mapstructure:"access_ttl_minutes"`
	RefreshTTLHours  int    `mapstructure:"refresh_ttl_hours"`
}

type AuthConfig struct {
	VerificationTTLHours   int    `mapstructure:"verification_ttl_hours"`
	ResetTTLMinutes        int    `mapstructure:"reset_ttl_minutes"`
	RequireVerifiedEmail   bool   `mapstructure:"require_verified_email"`
	ResetRequestLimit      int    `mapstructure:"reset_request_limit"`
	ResetRequestWindowMins int    `mapstructure:"reset_request_window_minutes"`
	LinkBaseURL            string `mapstructure:"link_base_url"`
}

type EmailConfig struct {
	SMTPHost    string `mapstructure:"smtp_host"`
	SMTPPort    int    `mapstructure:"smtp_port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	From        string `mapstructure:"from"`
	Async       bool   `mapstructure:"async"`
	QueueName   string `mapstructure:"queue_name"`
	Workers     int    `mapstructure:"workers"`      // worker 进程并发数
	MaxAttempts int    `mapstructure:"max_attempts"` // 发送失败后的最大尝试次数
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type RateLimitConfig struct {
	AuthRequestsPerSecond float64 `mapstructure:"auth_requests_per_second"`
	AuthBurst             int     `mapstructure:"auth_burst"`
}

type UsageConfig struct {
	WindowHours     int  `mapstructure:"window_hours"`
	FreeLimit       int  `mapstructure:"free_limit"`
	AnonymousLimit  int  `mapstructure:"anonymous_limit"`
	EnforceOnSearch bool `mapstructure:"enforce_on_search"`
}

type QuranConfig struct {
	SeedOnStart bool   `mapstructure:"seed_on_start"`
	SeedFile    string `mapstructure:"seed_file"` // 为空时使用内置样例数据
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, console
}

type JanitorConfig struct {
	IntervalMinutes int `mapstructure:"interval_minutes"`
	RetentionHours  int `mapstructure:"retention_hours"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout_seconds", 10)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "quran_app")
	v.SetDefault("database.sqlite_path", "quran_app.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "quran-app")
	v.SetDefault("jwt.access_ttl_minutes", 15)
	v.SetDefault("jwt.refresh_ttl_hours", 720)

	v.SetDefault("auth.verification_ttl_hours", 24)
	v.SetDefault("auth.reset_ttl_minutes", 30)
	v.SetDefault("auth.reset_request_limit", 3)
	v.SetDefault("auth.reset_request_window_minutes", 15)

	v.SetDefault("email.smtp_host", "")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.queue_name", "queue:email")
	v.SetDefault("email.workers", 2)
	v.SetDefault("email.max_attempts", 3)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization", "X-Device-Id"})

	v.SetDefault("rate_limit.auth_requests_per_second", 5)
	v.SetDefault("rate_limit.auth_burst", 10)

	v.SetDefault("usage.window_hours", 24)
	v.SetDefault("usage.free_limit", 10)
	v.SetDefault("usage.anonymous_limit", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("janitor.interval_minutes", 60)
	v.SetDefault("janitor.retention_hours", 72)
}

func Load(configPath string) (*Config, error) {
	// 优先读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")
	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 环境变量覆盖，例如 JWT_SECRET、DATABASE_DRIVER
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
