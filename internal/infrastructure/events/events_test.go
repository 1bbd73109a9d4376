package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSender struct {
	mu        sync.Mutex
	keys      []string
	err       error
	ctxErrs   []error // 调用时ctx.Err()
	deadlines []bool
}

func (s *fakeSender) Publish(ctx context.Context, routingKey string, _ interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, routingKey)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	_, ok := ctx.Deadline()
	s.deadlines = append(s.deadlines, ok)
	return s.err
}

func TestMQPublisher_UsesEventTypeAsRoutingKey(t *testing.T) {
	sender := &fakeSender{}
	p := NewMQPublisher(sender, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Publish(ctx, New(OrderCreated, OrderPayload{OrderID: 1}))

	require.Len(t, sender.keys, 1)
	assert.Equal(t, OrderCreated, sender.keys[0])
	assert.NoError(t, sender.ctxErrs[0], "请求ctx取消后仍然发送")
	assert.True(t, sender.deadlines[0], "发送需要有超时")
}

func TestMQPublisher_FailureIsLoggedAndBreakerOpens(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	sender := &fakeSender{err: errors.New("connection reset")}
	p := NewMQPublisher(sender, zap.New(core))

	for i := 0; i < 7; i++ {
		p.Publish(context.Background(), New(OrderCancelled, OrderPayload{OrderID: 1}))
	}

	// 连续失败5次后熔断，后续事件不再到达sender
	assert.Len(t, sender.keys, 5)
	assert.GreaterOrEqual(t, logs.FilterMessage("发布事件失败").Len(), 7)
	assert.Equal(t, 1, logs.FilterMessage("熔断器状态变化").Len())
}

func TestNopPublisher(t *testing.T) {
	NewNopPublisher(nil).Publish(context.Background(), New(InvoiceCreated, InvoicePayload{InvoiceID: 1}))
}
