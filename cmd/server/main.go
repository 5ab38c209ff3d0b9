package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/quran_app_server/internal/api"
	"github.com/qs3c/quran_app_server/internal/api/handler"
	"github.com/qs3c/quran_app_server/internal/bootstrap"
	"github.com/qs3c/quran_app_server/internal/pkg/cron"
	"github.com/qs3c/quran_app_server/internal/pkg/email"
	"github.com/qs3c/quran_app_server/internal/pkg/jwt"
	"github.com/qs3c/quran_app_server/internal/pkg/queue"
	"github.com/qs3c/quran_app_server/internal/repository"
	"github.com/qs3c/quran_app_server/internal/seed"
	"github.com/qs3c/quran_app_server/internal/service"
)

func main() {
	cfg, logger, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer logger.Sync()

	if cfg.JWT.Secret == "" {
		logger.Fatal("jwt.secret is required (set JWT_SECRET)")
	}

	// 初始化数据库
	db, err := bootstrap.OpenDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}

	// 初始化 Redis（可选）
	rdb, err := bootstrap.OpenRedis(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	quranRepo := repository.NewQuranRepository(db)

	if cfg.Quran.SeedOnStart {
		loaded, err := seed.LoadIfEmpty(quranRepo, cfg.Quran.SeedFile)
		if err != nil {
			logger.Fatal("failed to seed quran data", zap.Error(err))
		}
		if loaded {
			logger.Info("quran data seeded")
		}
	}

	// 邮件
	var emailQueue *queue.Queue
	if rdb != nil {
		emailQueue = queue.NewQueue(rdb, cfg.Email.QueueName)
	}
	mailer := email.NewService(email.NewSender(&cfg.Email, emailQueue, logger), cfg.Auth.LinkBaseURL)

	// 初始化 Service
	tokens := jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.Issuer,
		time.Duration(cfg.JWT.AccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWT.RefreshTTLHours)*time.Hour,
	)
	refreshStore, requestLimiter := bootstrap.AuthStores(cfg, rdb)
	authService := service.NewAuthService(userRepo, tokenRepo, tokens, refreshStore, requestLimiter, mailer, cfg, logger)
	usageService := service.NewUsageService(usageRepo, userRepo, cfg)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, userRepo)
	quranService := service.NewQuranService(quranRepo)

	// 定时清理
	janitor := cron.NewService(tokenRepo, usageRepo, cfg.Janitor, usageService.Window(), logger)
	janitor.Start()
	defer janitor.Stop()

	// 初始化 Router
	router := api.NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(authService),
		handler.NewUsageHandler(usageService),
		handler.NewSubscriptionHandler(subscriptionService),
		handler.NewQuranHandler(quranService),
		handler.NewHealthHandler(db, rdb),
		usageService,
		tokens,
		logger,
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	timeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server stopped")
}
