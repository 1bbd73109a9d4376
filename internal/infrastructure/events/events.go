// Package events 领域事件发布
//
// 事件在事务提交之后发布。发布失败只记日志，不影响已经提交的业务结果。
package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/bookshop/pkg/circuitbreaker"
	"github.com/xiebiao/bookshop/pkg/metrics"
)

// 事件类型，同时作为RabbitMQ的routing key
const (
	OrderCreated   = "order.created"
	OrderCancelled = "order.cancelled"
	OrderDelivered = "order.delivered"
	InvoiceCreated = "invoice.created"
)

// Event 消息体
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// New 创建事件
func New(eventType string, payload any) Event {
	return Event{Type: eventType, OccurredAt: time.Now(), Payload: payload}
}

// Publisher 事件发布器
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Sender 底层消息发送（pkg/mq.Publisher）
type Sender interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// MQPublisher 通过RabbitMQ发布事件，熔断器打开时直接丢弃
type MQPublisher struct {
	sender  Sender
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
	timeout time.Duration
}

// NewMQPublisher 创建发布器
func NewMQPublisher(sender Sender, logger *zap.Logger) *MQPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	breaker := circuitbreaker.NewCircuitBreaker("mq-publisher", circuitbreaker.Config{
		Timeout: 30 * time.Second,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			metrics.SetCircuitBreakerState(name, int(to))
			logger.Warn("熔断器状态变化",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		OnResult: metrics.IncCircuitBreakerRequest,
	})
	return &MQPublisher{
		sender:  sender,
		breaker: breaker,
		logger:  logger,
		timeout: 3 * time.Second,
	}
}

// Publish 发布事件
// 使用脱离请求取消信号的ctx，请求结束不会中断发送
func (p *MQPublisher) Publish(ctx context.Context, event Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	err := p.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
		return p.sender.Publish(ctx, event.Type, event)
	})
	metrics.IncMessagePublished(event.Type, err == nil)
	if err != nil {
		p.logger.Warn("发布事件失败",
			zap.String("type", event.Type),
			zap.Error(err))
		return
	}
	p.logger.Debug("事件已发布", zap.String("type", event.Type))
}

// NopPublisher mq.enabled=false时使用
type NopPublisher struct {
	logger *zap.Logger
}

// NewNopPublisher 创建空发布器
func NewNopPublisher(logger *zap.Logger) *NopPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NopPublisher{logger: logger}
}

func (p *NopPublisher) Publish(_ context.Context, event Event) {
	p.logger.Debug("消息队列未启用，忽略事件", zap.String("type", event.Type))
}

// OrderPayload 订单事件内容
type OrderPayload struct {
	OrderID   uint   `json:"order_id"`
	OrderNo   string `json:"order_no"`
	UserID    uint   `json:"user_id"`
	Status    string `json:"status"`
	Total     int64  `json:"total"`
	Restocked bool   `json:"restocked,omitempty"`
}

// InvoicePayload 发票事件内容
type InvoicePayload struct {
	InvoiceID uint   `json:"invoice_id"`
	InvoiceNo string `json:"invoice_no"`
	StaffID   uint   `json:"staff_id"`
	Total     int64  `json:"total"`
}
