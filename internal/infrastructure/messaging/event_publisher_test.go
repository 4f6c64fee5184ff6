package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/event"
	"github.com/xiebiao/library/pkg/circuitbreaker"
)

type fakePublisher struct {
	mu   sync.Mutex
	err  error
	keys []string
	msgs []interface{}
}

func (f *fakePublisher) Publish(_ context.Context, routingKey string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, routingKey)
	f.msgs = append(f.msgs, message)
	return nil
}

func TestEventPublisher_RoutesByType(t *testing.T) {
	fake := &fakePublisher{}
	p := NewEventPublisher(fake)

	e := event.New(event.LoanBorrowed, event.LoanPayload{LoanID: 1, UserID: 2, BookID: 3}, time.Now())
	require.NoError(t, p.Publish(context.Background(), e))

	assert.Equal(t, []string{event.LoanBorrowed}, fake.keys)
	assert.Equal(t, e, fake.msgs[0])
}

func TestEventPublisher_OpensAfterConsecutiveFailures(t *testing.T) {
	fake := &fakePublisher{err: errors.New("connection reset")}
	p := NewEventPublisher(fake)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := p.Publish(ctx, event.New(event.ReviewCreated, nil, time.Now()))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, circuitbreaker.ErrOpenState)
	}
	assert.Equal(t, circuitbreaker.StateOpen, p.State())

	// 熔断期间不再调用下游
	fake.err = nil
	err := p.Publish(ctx, event.New(event.ReviewCreated, nil, time.Now()))
	assert.ErrorIs(t, err, circuitbreaker.ErrOpenState)
	assert.Empty(t, fake.keys)
}
