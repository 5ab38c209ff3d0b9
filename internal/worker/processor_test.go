package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qs3c/quran_app_server/internal/pkg/email"
	"github.com/qs3c/quran_app_server/internal/pkg/queue"
)

type stubSender struct {
	mu    sync.Mutex
	fails int
	sent  []*email.Message
}

func (s *stubSender) Send(_ context.Context, msg *email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails > 0 {
		s.fails--
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *stubSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func newTestQueue(t *testing.T) *queue.Queue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return queue.NewQueue(client, "queue:email:test")
}

func TestProcessor_Process_Success(t *testing.T) {
	q := newTestQueue(t)
	sender := &stubSender{}
	p := NewProcessor(q, sender, 3, zap.NewNop())

	err := p.Process(context.Background(), &queue.EmailJob{Kind: email.KindVerification, To: "a@example.com", Subject: "hi", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	require.Equal(t, 1, sender.count())
	assert.Equal(t, "a@example.com", sender.sent[0].To)
	assert.Equal(t, email.KindVerification, sender.sent[0].Kind)

	n, err := q.Length(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessor_Process_RequeueThenDrop(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)
	sender := &stubSender{fails: 10}
	p := NewProcessor(q, sender, 2, zap.NewNop())

	job := &queue.EmailJob{Kind: email.KindPasswordReset, To: "b@example.com"}
	assert.Error(t, p.Process(ctx, job))

	requeued, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, requeued)
	assert.Equal(t, 1, requeued.Attempts)

	// 第二次失败达到上限，不再入队
	assert.Error(t, p.Process(ctx, requeued))
	n, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessor_Run(t *testing.T) {
	q := newTestQueue(t)
	sender := &stubSender{fails: 1}
	p := NewProcessor(q, sender, 3, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	for _, to := range []string{"x@example.com", "y@example.com"} {
		require.NoError(t, q.Push(ctx, &queue.EmailJob{Kind: email.KindVerification, To: to}))
	}

	done := make(chan struct{})
	go func() {
		p.Run(ctx, 2)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sender.count() == 2 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("workers did not stop")
	}
}

func TestNewProcessor_DefaultAttempts(t *testing.T) {
	p := NewProcessor(nil, &stubSender{}, 0, zap.NewNop())
	assert.Equal(t, 3, p.maxAttempts)
}
