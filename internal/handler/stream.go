package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/messaging-sync/internal/model"
	"github.com/capitalize-ai/messaging-sync/pkg/logger"
	"github.com/capitalize-ai/messaging-sync/pkg/metrics"
)

const replayBatch = 50

// Subscriber hands out live event feeds.
type Subscriber interface {
	Subscribe() (<-chan *model.SyncEvent, func())
}

// Snapshotter returns the current reconciled state.
type Snapshotter interface {
	Snapshot() model.State
}

// Replayer reads a user's stored events after a sequence.
type Replayer interface {
	Replay(ctx context.Context, tenantID, userID string, afterSequence uint64, limit int) ([]*model.SyncEvent, uint64, bool, error)
}

// StreamConfig configures the stream handler.
type StreamConfig struct {
	TenantID  string
	UserID    string
	Heartbeat time.Duration
}

// StreamHandler serves the sync event stream over SSE.
type StreamHandler struct {
	hub      Subscriber
	state    Snapshotter
	replayer Replayer
	cfg      StreamConfig
	logger   *logger.Logger
}

// NewStreamHandler creates a new stream handler. replayer may be nil when
// events are not mirrored to JetStream.
func NewStreamHandler(hub Subscriber, state Snapshotter, replayer Replayer, cfg StreamConfig, log *logger.Logger) *StreamHandler {
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 30 * time.Second
	}
	return &StreamHandler{
		hub:      hub,
		state:    state,
		replayer: replayer,
		cfg:      cfg,
		logger:   log.Named("stream"),
	}
}

// Stream handles GET /api/v1/stream
// Sends a snapshot then live events. ?after_sequence=N first replays
// stored events when JetStream mirroring is enabled.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var afterSequence uint64
	replay := false
	if seqStr := r.URL.Query().Get("after_sequence"); seqStr != "" {
		seq, err := strconv.ParseUint(seqStr, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "after_sequence must be a non-negative integer")
			return
		}
		afterSequence = seq
		replay = true
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	// Subscribe before the snapshot so nothing falls in between.
	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	sendSSEEvent(w, flusher, "connected", map[string]string{
		"user_id": h.cfg.UserID,
	})

	if replay && h.replayer != nil {
		h.replay(ctx, w, flusher, afterSequence)
	}

	sendSSEEvent(w, flusher, "snapshot", h.state.Snapshot())

	heartbeat := time.NewTicker(h.cfg.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("SSE client disconnected")
			return

		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := sendSSEEvent(w, flusher, string(evt.Type), evt); err != nil {
				h.logger.Warn("failed to encode sync event", zap.Error(err), zap.String("type", string(evt.Type)))
			}

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", &model.HeartbeatEvent{
				Timestamp: time.Now().UTC(),
			})
		}
	}
}

func (h *StreamHandler) replay(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, afterSequence uint64) {
	lastSequence := afterSequence
	total := 0

	for {
		batch, last, hasMore, err := h.replayer.Replay(ctx, h.cfg.TenantID, h.cfg.UserID, lastSequence, replayBatch)
		if err != nil {
			h.logger.Error("failed to replay events", zap.Error(err), zap.Uint64("after_sequence", lastSequence))
			sendSSEEvent(w, flusher, "error", &model.ErrorEvent{
				Code:    "replay_error",
				Message: "Failed to replay events",
			})
			break
		}

		for _, evt := range batch {
			if ctx.Err() != nil {
				return
			}
			sendSSEEvent(w, flusher, string(evt.Type), evt)
			total++
		}
		lastSequence = last

		if !hasMore || len(batch) == 0 {
			break
		}
	}

	sendSSEEvent(w, flusher, "replay_complete", &model.ReplayCompleteEvent{
		LastSequence: lastSequence,
		EventCount:   total,
	})
	h.logger.Debug("event replay complete", zap.Int("events", total), zap.Uint64("last_sequence", lastSequence))
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}
