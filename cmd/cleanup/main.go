package main

import (
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/qs3c/quran_app_server/internal/bootstrap"
	"github.com/qs3c/quran_app_server/internal/pkg/cron"
	"github.com/qs3c/quran_app_server/internal/repository"
	"github.com/qs3c/quran_app_server/internal/service"
)

var dryRun = flag.Bool("dry-run", true, "Only count expired rows, don't delete them")

// 一次性清理过期令牌和旧窗口用量，适合由外部 cron 调度
func main() {
	flag.Parse()

	cfg, logger, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer logger.Sync()

	db, err := bootstrap.OpenDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	window := service.NewUsageService(usageRepo, userRepo, cfg).Window()
	janitor := cron.NewService(repository.NewTokenRepository(db), usageRepo, cfg.Janitor, window, logger)

	run := janitor.RunNow
	if *dryRun {
		run = janitor.Preview
	}

	report, err := run()
	if err != nil {
		logger.Fatal("cleanup failed", zap.Error(err))
	}

	logger.Info("cleanup finished",
		zap.Bool("dry_run", *dryRun),
		zap.Int64("tokens", report.Tokens),
		zap.Int64("usage_records", report.UsageRecords),
	)
	if *dryRun {
		logger.Info("dry run mode, nothing was deleted; run with -dry-run=false to delete")
	}
}
