package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/messaging-sync/internal/model"
)

const (
	// StreamName is the name of the sync event stream.
	StreamName = "MSGSYNC"

	// SubjectPrefix is the prefix for all sync event subjects.
	SubjectPrefix = "msgsync"
)

// StreamManager handles JetStream stream operations.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream ensures the sync event stream exists.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024, // 1GB
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Unread, conversation, thread and presence sync events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// EventSubject returns the subject for a user's sync event.
func EventSubject(tenantID, userID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.%s.%s", SubjectPrefix, token(tenantID), token(userID), token(string(eventType)))
}

// UserFilter returns the filter subject for all of a user's events.
func UserFilter(tenantID, userID string) string {
	return fmt.Sprintf("%s.%s.%s.>", SubjectPrefix, token(tenantID), token(userID))
}

// token makes s safe to use as a single subject token.
func token(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}

// PublishEvent publishes a sync event to JetStream.
func (m *StreamManager) PublishEvent(ctx context.Context, tenantID string, evt *model.SyncEvent) (uint64, error) {
	subject := EventSubject(tenantID, evt.UserID, evt.Type)

	data, err := json.Marshal(evt)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, subject, data, jetstream.WithMsgID(evt.ID))
	if err != nil {
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}

	return ack.Sequence, nil
}

// Replay retrieves a user's events stored after a sequence. Payloads are
// returned as raw JSON.
func (m *StreamManager) Replay(ctx context.Context, tenantID, userID string, afterSequence uint64, limit int) ([]*model.SyncEvent, uint64, bool, error) {
	js := m.client.JetStream()

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject:     UserFilter(tenantID, userID),
		AckPolicy:         jetstream.AckNonePolicy,
		DeliverPolicy:     jetstream.DeliverAllPolicy,
		InactiveThreshold: 30 * time.Second,
	}
	if afterSequence > 0 {
		consumerConfig.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		consumerConfig.OptStartSeq = afterSequence + 1
	}

	consumer, err := js.CreateConsumer(ctx, StreamName, consumerConfig)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to create consumer: %w", err)
	}

	batch, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to fetch events: %w", err)
	}

	var events []*model.SyncEvent
	lastSequence := afterSequence

	for msg := range batch.Messages() {
		evt, err := decodeEvent(msg.Data())
		if err != nil {
			continue
		}
		if meta, err := msg.Metadata(); err == nil {
			evt.Sequence = meta.Sequence.Stream
			lastSequence = meta.Sequence.Stream
		}
		events = append(events, evt)
	}

	if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, 0, false, fmt.Errorf("batch error: %w", err)
	}

	return events, lastSequence, len(events) == limit, nil
}

func decodeEvent(data []byte) (*model.SyncEvent, error) {
	var raw struct {
		model.SyncEvent
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	evt := raw.SyncEvent
	evt.Payload = raw.Payload
	return &evt, nil
}
