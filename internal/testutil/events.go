package testutil

import (
	"context"
	"sync"

	"github.com/xiebiao/library/internal/domain/event"
)

// EventRecorder 记录发布的事件,Err非空时发布失败
type EventRecorder struct {
	mu     sync.Mutex
	Err    error
	events []event.Event
}

func (r *EventRecorder) Publish(_ context.Context, e event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, e)
	return nil
}

// Types 已发布事件的类型,按发布顺序
func (r *EventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

// Events 已发布事件的副本
func (r *EventRecorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}
