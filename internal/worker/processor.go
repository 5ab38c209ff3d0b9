package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/qs3c/quran_app_server/internal/pkg/email"
	"github.com/qs3c/quran_app_server/internal/pkg/queue"
)

const popTimeout = 5 * time.Second

// Processor 从 Redis 队列取出邮件并通过 SMTP 发送
type Processor struct {
	queue       *queue.Queue
	sender      email.Sender
	maxAttempts int
	log         *zap.Logger
}

func NewProcessor(q *queue.Queue, sender email.Sender, maxAttempts int, log *zap.Logger) *Processor {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Processor{
		queue:       q,
		sender:      sender,
		maxAttempts: maxAttempts,
		log:         log,
	}
}

// Process 发送一封邮件。失败且未到上限时重新入队
func (p *Processor) Process(ctx context.Context, job *queue.EmailJob) error {
	job.Attempts++

	err := p.sender.Send(ctx, &email.Message{
		Kind:    job.Kind,
		To:      job.To,
		Subject: job.Subject,
		HTML:    job.HTML,
	})
	if err == nil {
		p.log.Info("email sent", zap.String("kind", job.Kind), zap.String("to", job.To), zap.Int("attempts", job.Attempts))
		return nil
	}

	if job.Attempts >= p.maxAttempts {
		p.log.Error("email dropped after max attempts",
			zap.String("kind", job.Kind),
			zap.String("to", job.To),
			zap.Int("attempts", job.Attempts),
			zap.Error(err),
		)
		return err
	}

	p.log.Warn("email send failed, requeueing", zap.String("to", job.To), zap.Int("attempts", job.Attempts), zap.Error(err))
	if perr := p.queue.Push(ctx, job); perr != nil {
		p.log.Error("failed to requeue email", zap.String("to", job.To), zap.Error(perr))
	}
	return err
}

// Run 启动 workers 个消费协程，ctx 取消后等待全部退出
func (p *Processor) Run(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.loop(ctx, workerID)
		}(i)
	}
	wg.Wait()
}

func (p *Processor) loop(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			p.log.Info("worker shutting down", zap.Int("worker", workerID))
			return
		default:
		}

		job, err := p.queue.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Error("failed to pop email job", zap.Int("worker", workerID), zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue // 超时，继续等待
		}

		_ = p.Process(ctx, job)
	}
}
