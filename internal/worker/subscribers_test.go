package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-mesh/internal/config"
	"github.com/spec-kit/support-mesh/internal/events"
	"github.com/spec-kit/support-mesh/internal/service"
)

type countingSubscriber struct{ calls int }

func (c *countingSubscriber) RegisterHandlers() { c.calls++ }

func TestStartSubscribers_SkipsNil(t *testing.T) {
	var typedNil *countingSubscriber
	sub := &countingSubscriber{}

	n := StartSubscribers(nil, sub, nil, typedNil)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, sub.calls)
}

func TestStartSubscribers_NotificationService(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	notifications := service.NewNotificationService(dispatcher, nil, nil, config.NotificationConfig{})

	require.Equal(t, 1, StartSubscribers(nil, notifications))
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventTokenRevoked,
		UserID:  "7f8d2f4e-9a43-4c3b-8d7e-0a1b2c3d4e5f",
		Payload: events.TokenRevokedPayload{},
	}))
}
