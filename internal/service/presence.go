package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/messaging-sync/internal/model"
	"github.com/capitalize-ai/messaging-sync/pkg/logger"
	"github.com/capitalize-ai/messaging-sync/pkg/metrics"
)

// ReplyBroadcaster tells the backend this user is replying to a peer's
// message. Beacons are fire-and-forget.
//
// States: idle, replying. Start enters replying and beacons immediately,
// then every interval with the same payload. Stop joins the beacon loop
// and then sends a clear beacon, so a clear is never followed by a stale
// refresh.
type ReplyBroadcaster struct {
	sink     ReplyingSink
	events   EventSink
	interval time.Duration
	logger   *logger.Logger

	mu     sync.Mutex
	state  model.ReplyState
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReplyBroadcaster creates an idle broadcaster.
func NewReplyBroadcaster(sink ReplyingSink, events EventSink, interval time.Duration, log *logger.Logger) *ReplyBroadcaster {
	if interval <= 0 {
		interval = 8 * time.Second
	}
	return &ReplyBroadcaster{
		sink:     sink,
		events:   events,
		interval: interval,
		logger:   log.Named("reply_broadcaster"),
	}
}

// Start begins replying to messageID from peerID. Switching to another
// peer clears the previous one first.
func (b *ReplyBroadcaster) Start(ctx context.Context, peerID, messageID string) {
	b.mu.Lock()
	prev := b.state
	if prev.Active && prev.PeerID == peerID && prev.ReplyToMessageID == messageID {
		b.mu.Unlock()
		return
	}
	b.haltLocked()

	next := model.ReplyState{Active: true, PeerID: peerID, ReplyToMessageID: messageID}
	b.state = next

	// The loop outlives the request that started it.
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	b.cancel = cancel
	b.done = done
	b.mu.Unlock()

	if prev.Active && prev.PeerID != peerID {
		b.send(context.WithoutCancel(ctx), "clear", &model.ReplyingRequest{WithUserID: prev.PeerID, Clear: true})
	}
	b.events.Emit(ctx, model.EventReplyState, next)

	req := &model.ReplyingRequest{WithUserID: peerID, ReplyToMessageID: messageID}
	go b.loop(loopCtx, done, req)
}

// Stop returns to idle, sending a clear beacon if a reply was active. The
// clear is sent even when ctx is already cancelled.
func (b *ReplyBroadcaster) Stop(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	b.mu.Lock()
	prev := b.state
	if !prev.Active {
		b.mu.Unlock()
		return
	}
	b.haltLocked()
	b.state = model.ReplyState{}
	b.mu.Unlock()

	b.send(ctx, "clear", &model.ReplyingRequest{WithUserID: prev.PeerID, Clear: true})
	b.events.Emit(ctx, model.EventReplyState, model.ReplyState{})
}

// State returns the current broadcast state.
func (b *ReplyBroadcaster) State() model.ReplyState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *ReplyBroadcaster) haltLocked() {
	if b.cancel == nil {
		return
	}
	b.cancel()
	<-b.done
	b.cancel = nil
	b.done = nil
}

func (b *ReplyBroadcaster) loop(ctx context.Context, done chan struct{}, req *model.ReplyingRequest) {
	defer close(done)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.send(ctx, "replying", req)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.send(ctx, "replying", req)
		}
	}
}

func (b *ReplyBroadcaster) send(ctx context.Context, kind string, req *model.ReplyingRequest) {
	if ctx.Err() != nil {
		return
	}
	err := b.sink.SetReplying(ctx, req)
	metrics.RecordBeacon(kind, err)
	if err != nil {
		b.logger.Debug("presence beacon failed",
			zap.Error(err),
			zap.String("kind", kind),
			zap.String("peer_id", req.WithUserID),
		)
	}
}

// IndicatorText renders the presence line for a replying peer.
func IndicatorText(name, replyToMessageID string) string {
	if replyToMessageID != "" {
		return name + " is replying…"
	}
	return name + " is typing…"
}

// ReplyPoller polls whether the active direct peer is replying.
type ReplyPoller struct {
	source   ReplyingSource
	events   EventSink
	interval time.Duration
	logger   *logger.Logger
}

// NewReplyPoller creates a reply-presence poller.
func NewReplyPoller(source ReplyingSource, events EventSink, interval time.Duration, log *logger.Logger) *ReplyPoller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &ReplyPoller{
		source:   source,
		events:   events,
		interval: interval,
		logger:   log.Named("reply_poller"),
	}
}

// Run polls immediately and then every interval until ctx is done,
// publishing the indicator whenever it changes.
func (p *ReplyPoller) Run(ctx context.Context, peer model.Ref) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var last *model.ReplyIndicator
	tick := func() {
		ind := p.Poll(ctx, peer)
		if ctx.Err() != nil {
			return
		}
		if last != nil && *last == ind {
			return
		}
		last = &ind
		p.events.Emit(ctx, model.EventReplyIndicator, ind)
	}

	tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}

// Poll asks the backend once. Failures read as "not replying".
func (p *ReplyPoller) Poll(ctx context.Context, peer model.Ref) model.ReplyIndicator {
	ind := model.ReplyIndicator{PeerID: peer.ID()}

	status, err := p.source.Replying(ctx, peer.ID())
	metrics.RecordPoll("replying", err)
	if err != nil {
		p.logger.Debug("replying poll failed", zap.Error(err), zap.String("peer_id", peer.ID()))
		return ind
	}
	if status == nil || !status.Replying {
		return ind
	}

	name := status.Name
	if name == "" {
		name = peer.DisplayName()
	}
	ind.Replying = true
	ind.ReplyToMessageID = status.ReplyToMessageID
	ind.Text = IndicatorText(name, status.ReplyToMessageID)
	return ind
}
