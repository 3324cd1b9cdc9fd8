package nats

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/messaging-sync/internal/model"
	"github.com/capitalize-ai/messaging-sync/pkg/logger"
	"github.com/capitalize-ai/messaging-sync/pkg/metrics"
)

const publishTimeout = 5 * time.Second

// EventPublisher writes one event to the stream.
type EventPublisher interface {
	PublishEvent(ctx context.Context, tenantID string, evt *model.SyncEvent) (uint64, error)
}

// Publisher mirrors store events to JetStream off the caller's goroutine.
// When the queue is full the event is dropped.
type Publisher struct {
	stream   EventPublisher
	tenantID string
	queue    chan *model.SyncEvent
	logger   *logger.Logger
}

// NewPublisher creates a publisher with a queue of the given size.
func NewPublisher(stream EventPublisher, tenantID string, buffer int, log *logger.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		stream:   stream,
		tenantID: tenantID,
		queue:    make(chan *model.SyncEvent, buffer),
		logger:   log.Named("nats_publisher"),
	}
}

// Publish queues evt for delivery.
func (p *Publisher) Publish(ctx context.Context, evt *model.SyncEvent) {
	select {
	case p.queue <- evt:
	default:
		metrics.NATSPublishedTotal.WithLabelValues(string(evt.Type), "dropped").Inc()
		p.logger.Warn("NATS publish queue full, dropping event", zap.String("type", string(evt.Type)))
	}
}

// Run delivers queued events until ctx is done.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-p.queue:
			p.deliver(ctx, evt)
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, evt *model.SyncEvent) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	seq, err := p.stream.PublishEvent(ctx, p.tenantID, evt)
	if err != nil {
		metrics.NATSPublishedTotal.WithLabelValues(string(evt.Type), "error").Inc()
		p.logger.Warn("failed to publish sync event",
			zap.Error(err),
			zap.String("event_id", evt.ID),
			zap.String("type", string(evt.Type)),
		)
		return
	}

	metrics.NATSPublishedTotal.WithLabelValues(string(evt.Type), "ok").Inc()
	p.logger.Debug("sync event published", zap.String("type", string(evt.Type)), zap.Uint64("sequence", seq))
}
