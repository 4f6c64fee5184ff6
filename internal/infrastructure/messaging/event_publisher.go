// Package messaging 领域事件发布
package messaging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xiebiao/library/internal/domain/event"
	"github.com/xiebiao/library/pkg/circuitbreaker"
	"github.com/xiebiao/library/pkg/metrics"
)

// publishTimeout 单次发布的最长等待,请求路径不能被消息队列拖慢
const publishTimeout = 2 * time.Second

// messagePublisher mq.Publisher的能力
type messagePublisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// EventPublisher 通过熔断器把领域事件发布到RabbitMQ
// 1. 事件类型即routing key
// 2. 连续失败后熔断,期间直接丢弃事件,不再等待超时
// 3. 发布结果记入指标
type EventPublisher struct {
	publisher messagePublisher
	breaker   *circuitbreaker.CircuitBreaker
}

// NewEventPublisher 创建事件发布者
func NewEventPublisher(publisher messagePublisher) *EventPublisher {
	cfg := circuitbreaker.DefaultConfig()
	cfg.OnStateChange = func(name string, from, to circuitbreaker.State) {
		slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		metrics.SetGaugeVec(metrics.CircuitBreakerState, map[string]string{"name": name}, float64(to))
	}
	return &EventPublisher{
		publisher: publisher,
		breaker:   circuitbreaker.New("event-publisher", cfg),
	}
}

// Publish 发布事件
func (p *EventPublisher) Publish(ctx context.Context, e event.Event) error {
	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		return p.publisher.Publish(ctx, e.Type, e)
	})

	breakerLabels := map[string]string{"name": p.breaker.Name()}
	switch {
	case err == nil:
		metrics.RecordEvent(e.Type, "success")
		breakerLabels["result"] = "success"
	case errors.Is(err, circuitbreaker.ErrOpenState):
		metrics.RecordEvent(e.Type, "rejected")
		breakerLabels["result"] = "rejected"
		slog.DebugContext(ctx, "event dropped, circuit open", "type", e.Type, "event_id", e.ID)
	default:
		metrics.RecordEvent(e.Type, "failure")
		breakerLabels["result"] = "failure"
		slog.WarnContext(ctx, "publish event failed", "type", e.Type, "event_id", e.ID, "error", err)
	}
	metrics.IncCounterVec(metrics.CircuitBreakerRequests, breakerLabels)
	return err
}

// State 熔断器当前状态
func (p *EventPublisher) State() circuitbreaker.State {
	return p.breaker.State()
}
