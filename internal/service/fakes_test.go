package service

import (
	"context"
	"sync"

	"github.com/spec-kit/support-mesh/internal/events"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
	inner  events.Dispatcher
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{inner: events.NewInMemoryDispatcher(nil)}
}

func (r *recordingDispatcher) Publish(ctx context.Context, e events.Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return r.inner.Publish(ctx, e)
}

func (r *recordingDispatcher) Subscribe(t events.EventType, h events.EventHandler) {
	r.inner.Subscribe(t, h)
}

func (r *recordingDispatcher) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
