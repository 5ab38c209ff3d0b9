package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/qs3c/quran_app_server/internal/bootstrap"
	"github.com/qs3c/quran_app_server/internal/pkg/email"
	"github.com/qs3c/quran_app_server/internal/pkg/queue"
	"github.com/qs3c/quran_app_server/internal/worker"
)

// 邮件发送 worker：消费 server 在 email.async 模式下写入的队列
func main() {
	cfg, logger, err := bootstrap.Init()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer logger.Sync()

	if cfg.Email.SMTPHost == "" {
		logger.Fatal("email.smtp_host is required for the worker")
	}

	rdb, err := bootstrap.OpenRedis(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	if rdb == nil {
		logger.Fatal("redis is required for the worker")
	}
	defer rdb.Close()

	emailQueue := queue.NewQueue(rdb, cfg.Email.QueueName)
	processor := worker.NewProcessor(emailQueue, email.NewSMTPSender(&cfg.Email), cfg.Email.MaxAttempts, logger)

	// 创建 context 用于优雅关闭
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	logger.Info("worker started", zap.String("queue", emailQueue.Name()), zap.Int("workers", cfg.Email.Workers))
	processor.Run(ctx, cfg.Email.Workers)
	logger.Info("worker shutdown complete")
}
