package email

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/qs3c/quran_app_server/config"
	"github.com/qs3c/quran_app_server/internal/pkg/queue"
)

const (
	KindVerification  = "verification"
	KindPasswordReset = "password_reset"
)

// Message 渲染好的邮件
type Message struct {
	Kind    string
	To      string
	Subject string
	HTML    string
}

// Sender 负责把邮件投递出去
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Service 渲染验证 / 重置邮件并交给 Sender
type Service struct {
	sender      Sender
	linkBaseURL string
}

func NewService(sender Sender, linkBaseURL string) *Service {
	return &Service{
		sender:      sender,
		linkBaseURL: strings.TrimRight(linkBaseURL, "/"),
	}
}

// SendVerification 发送邮箱验证邮件
func (s *Service) SendVerification(ctx context.Context, to, token string) error {
	link := s.link("/verify-email", token)
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #0f766e;">Verify your email</h2>
        <p>Assalamu alaikum,</p>
        <p>Please confirm your email address to finish setting up your account:</p>
        <div style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background-color: #0f766e; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Verify email</a>
        </div>
        <p>Or enter this code in the app:</p>
        <p style="background-color: #f3f4f6; padding: 10px; word-break: break-all;">%s</p>
        <p>If you did not create an account, you can ignore this email.</p>
    </div>
</body>
</html>
`, link, token)

	return s.sender.Send(ctx, &Message{
		Kind:    KindVerification,
		To:      to,
		Subject: "Verify your email",
		HTML:    body,
	})
}

// SendPasswordReset 发送密码重置邮件
func (s *Service) SendPasswordReset(ctx context.Context, to, token string) error {
	link := s.link("/reset-password", token)
	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #0f766e;">Reset your password</h2>
        <p>We received a request to reset the password for your account.</p>
        <div style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background-color: #0f766e; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Reset password</a>
        </div>
        <p>Or enter this code in the app:</p>
        <p style="background-color: #f3f4f6; padding: 10px; word-break: break-all;">%s</p>
        <p>If you did not request this change, you can ignore this email.</p>
    </div>
</body>
</html>
`, link, token)

	return s.sender.Send(ctx, &Message{
		Kind:    KindPasswordReset,
		To:      to,
		Subject: "Reset your password",
		HTML:    body,
	})
}

func (s *Service) link(path, token string) string {
	if s.linkBaseURL == "" {
		return "#"
	}
	return s.linkBaseURL + path + "?token=" + url.QueryEscape(token)
}

// SMTPSender 通过 SMTP 直接发送
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg *config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPSender) Send(_ context.Context, msg *Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send %s email: %w", msg.Kind, err)
	}
	return nil
}

// QueueSender 写入 Redis 队列，由 worker 进程发送
type QueueSender struct {
	queue *queue.Queue
	now   func() time.Time
}

func NewQueueSender(q *queue.Queue) *QueueSender {
	return &QueueSender{queue: q, now: time.Now}
}

func (s *QueueSender) Send(ctx context.Context, msg *Message) error {
	return s.queue.Push(ctx, &queue.EmailJob{
		Kind:     msg.Kind,
		To:       msg.To,
		Subject:  msg.Subject,
		HTML:     msg.HTML,
		QueuedAt: s.now().UTC(),
	})
}

// LogSender 未配置 SMTP 时使用，只记录日志
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg *Message) error {
	s.log.Info("email delivery disabled, dropping message",
		zap.String("kind", msg.Kind),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// NewSender 根据配置选择发送方式。async 需要 Redis 队列。
func NewSender(cfg *config.EmailConfig, q *queue.Queue, log *zap.Logger) Sender {
	switch {
	case cfg.Async && q != nil:
		return NewQueueSender(q)
	case cfg.SMTPHost != "":
		return NewSMTPSender(cfg)
	default:
		return NewLogSender(log)
	}
}
