package cron

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/quran_app_server/config"
	"github.com/qs3c/quran_app_server/internal/repository"
)

// Service 定时清理过期令牌和旧窗口的用量记录。
// 用量窗口的重置不依赖这里，读取时按 window_start 判断。
type Service struct {
	tokenRepo *repository.TokenRepository
	usageRepo *repository.UsageRepository
	interval  time.Duration
	retention time.Duration
	log       *zap.Logger
	now       func() time.Time
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// Report 一次清理的结果（dry-run 时为待清理数量）
type Report struct {
	Tokens       int64
	UsageRecords int64
}

func NewService(
	tokenRepo *repository.TokenRepository,
	usageRepo *repository.UsageRepository,
	cfg config.JanitorConfig,
	usageWindow time.Duration,
	log *zap.Logger,
) *Service {
	interval := time.Duration(cfg.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	retention := time.Duration(cfg.RetentionHours) * time.Hour
	// 保留期不能短于一个用量窗口，否则会删掉当前窗口的计数
	if retention < usageWindow {
		retention = usageWindow
	}

	return &Service{
		tokenRepo: tokenRepo,
		usageRepo: usageRepo,
		interval:  interval,
		retention: retention,
		log:       log,
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.loop()
	s.log.Info("janitor started",
		zap.Duration("interval", s.interval),
		zap.Duration("retention", s.retention),
	)
}

// Stop 停止定时任务，可重复调用
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.log.Info("janitor stopped")
	})
}

func (s *Service) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			report, err := s.RunNow()
			if err != nil {
				s.log.Error("janitor run failed", zap.Error(err))
				continue
			}
			if report.Tokens > 0 || report.UsageRecords > 0 {
				s.log.Info("janitor cleanup",
					zap.Int64("tokens", report.Tokens),
					zap.Int64("usage_records", report.UsageRecords),
				)
			}
		}
	}
}

func (s *Service) cutoff() time.Time {
	return s.now().UTC().Add(-s.retention)
}

// RunNow 立即执行一次清理
func (s *Service) RunNow() (Report, error) {
	cutoff := s.cutoff()

	tokens, err := s.tokenRepo.DeleteSpent(cutoff)
	if err != nil {
		return Report{}, err
	}
	usage, err := s.usageRepo.DeleteStale(cutoff.Unix())
	if err != nil {
		return Report{Tokens: tokens}, err
	}

	return Report{Tokens: tokens, UsageRecords: usage}, nil
}

// Preview 统计待清理数量，不删除
func (s *Service) Preview() (Report, error) {
	cutoff := s.cutoff()

	tokens, err := s.tokenRepo.CountSpent(cutoff)
	if err != nil {
		return Report{}, err
	}
	usage, err := s.usageRepo.CountStale(cutoff.Unix())
	if err != nil {
		return Report{}, err
	}

	return Report{Tokens: tokens, UsageRecords: usage}, nil
}
