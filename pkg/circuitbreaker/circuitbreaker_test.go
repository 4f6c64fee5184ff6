package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock 手动推进的时钟
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(cfg Config) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := New("test", cfg)
	cb.now = clock.now
	cb.resetWindow(clock.now())
	return cb, clock
}

var errBroker = errors.New("broker down")

func fail(context.Context) error    { return errBroker }
func succeed(context.Context) error { return nil }

func TestCircuitBreaker_Closed(t *testing.T) {
	cb, _ := newTestBreaker(Config{Timeout: time.Second})

	for i := 0; i < 10; i++ {
		require.NoError(t, cb.Execute(context.Background(), succeed))
	}

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(10), cb.Counts().TotalSuccesses)
}

func TestCircuitBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	var transitions []string
	cb, _ := newTestBreaker(Config{
		Timeout: time.Second,
		ReadyToTrip: func(c Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(context.Background(), fail), errBroker)
	}
	assert.Equal(t, StateOpen, cb.State())
	assert.Equal(t, []string{"CLOSED->OPEN"}, transitions)

	called := false
	err := cb.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpenState)
	assert.False(t, called, "熔断时不应调用fn")
}

func TestCircuitBreaker_HalfOpen(t *testing.T) {
	cfg := Config{
		MaxRequests: 1,
		Timeout:     time.Second,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	}

	t.Run("探测成功恢复为CLOSED", func(t *testing.T) {
		cb, clock := newTestBreaker(cfg)
		_ = cb.Execute(context.Background(), fail)
		require.Equal(t, StateOpen, cb.State())

		clock.advance(2 * time.Second)
		assert.Equal(t, StateHalfOpen, cb.State())

		require.NoError(t, cb.Execute(context.Background(), succeed))
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("探测失败回到OPEN", func(t *testing.T) {
		cb, clock := newTestBreaker(cfg)
		_ = cb.Execute(context.Background(), fail)
		clock.advance(2 * time.Second)

		assert.ErrorIs(t, cb.Execute(context.Background(), fail), errBroker)
		assert.Equal(t, StateOpen, cb.State())
	})
}

func TestCircuitBreaker_WindowReset(t *testing.T) {
	cb, clock := newTestBreaker(Config{
		Interval: 10 * time.Second,
		Timeout:  time.Second,
	})

	for i := 0; i < 4; i++ {
		_ = cb.Execute(context.Background(), fail)
	}
	assert.Equal(t, uint32(4), cb.Counts().ConsecutiveFailures)

	// 统计窗口过期后计数清零，第5次失败不会熔断
	clock.advance(11 * time.Second)
	_ = cb.Execute(context.Background(), fail)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.Counts().ConsecutiveFailures)
}

func TestCircuitBreaker_Context(t *testing.T) {
	cb, _ := newTestBreaker(Config{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})

	t.Run("已取消的ctx不执行", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := cb.Execute(ctx, succeed)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, uint32(0), cb.Counts().Requests)
	})

	t.Run("调用方取消不计为失败", func(t *testing.T) {
		err := cb.Execute(context.Background(), func(context.Context) error {
			return context.Canceled
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, StateClosed, cb.State())
	})
}
