package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/capitalize-ai/messaging-sync/internal/model"
	"github.com/capitalize-ai/messaging-sync/pkg/logger"
)

// Hub fans sync events out to live subscribers such as SSE connections.
// Slow subscribers lose events rather than block publishers.
type Hub struct {
	buffer int
	logger *logger.Logger

	mu   sync.RWMutex
	subs map[chan *model.SyncEvent]struct{}
}

// NewHub creates a hub with the given per-subscriber buffer.
func NewHub(buffer int, log *logger.Logger) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		buffer: buffer,
		logger: log.Named("hub"),
		subs:   make(map[chan *model.SyncEvent]struct{}),
	}
}

// Subscribe registers a subscriber. The returned func unsubscribes it.
func (h *Hub) Subscribe() (<-chan *model.SyncEvent, func()) {
	ch := make(chan *model.SyncEvent, h.buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers evt to every subscriber that has room.
func (h *Hub) Publish(ctx context.Context, evt *model.SyncEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
			h.logger.Debug("dropping event for slow subscriber", zap.String("type", string(evt.Type)))
		}
	}
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
