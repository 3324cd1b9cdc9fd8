package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/messaging-sync/internal/model"
	"github.com/capitalize-ai/messaging-sync/pkg/logger"
)

func TestHub_FanOut(t *testing.T) {
	hub := NewHub(4, logger.NewNop())
	a, unsubA := hub.Subscribe()
	b, unsubB := hub.Subscribe()
	defer unsubA()
	defer unsubB()

	evt := &model.SyncEvent{ID: "e1", Type: model.EventUnreadCount}
	hub.Publish(context.Background(), evt)

	assert.Same(t, evt, <-a)
	assert.Same(t, evt, <-b)
	assert.Equal(t, 2, hub.Subscribers())
}

func TestHub_SlowSubscriberDropsEvents(t *testing.T) {
	hub := NewHub(1, logger.NewNop())
	ch, unsub := hub.Subscribe()
	defer unsub()

	hub.Publish(context.Background(), &model.SyncEvent{ID: "e1"})
	hub.Publish(context.Background(), &model.SyncEvent{ID: "e2"})

	got := <-ch
	assert.Equal(t, "e1", got.ID)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected event %s", extra.ID)
	default:
	}
}

func TestHub_UnsubscribeClosesOnce(t *testing.T) {
	hub := NewHub(1, logger.NewNop())
	ch, unsub := hub.Subscribe()

	unsub()
	unsub()

	_, ok := <-ch
	assert.False(t, ok)
	assert.Zero(t, hub.Subscribers())

	hub.Publish(context.Background(), &model.SyncEvent{ID: "late"})
}

func TestHub_ReceivesStoreEvents(t *testing.T) {
	hub := NewHub(8, logger.NewNop())
	store := NewStore("me", hub)
	ch, unsub := hub.Subscribe()
	defer unsub()

	store.Emit(context.Background(), model.EventUnreadCount, model.UnreadCountPayload{Count: 2, Previous: 0})

	evt := <-ch
	require.NotNil(t, evt)
	assert.Equal(t, model.EventUnreadCount, evt.Type)
}
