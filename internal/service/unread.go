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

const (
	// maxSoundRepeats bounds the beeps played for a single increase.
	maxSoundRepeats = 3

	// unobserved marks that no unread count has been polled yet.
	unobserved = -1
)

// ComputeSoundTrigger decides whether a change in unread count plays the
// notification sound and how many times. The first observation (prev < 0)
// and increases seen while the messages screen is open never play.
func ComputeSoundTrigger(prev, next int, onMessagesPage bool) (int, bool) {
	if prev < 0 || next <= prev || onMessagesPage {
		return 0, false
	}
	return min(next-prev, maxSoundRepeats), true
}

// UnreadPollerConfig configures an UnreadPoller.
type UnreadPollerConfig struct {
	Interval time.Duration
	// ViewingMessages reports whether the messages screen is open.
	ViewingMessages func() bool
	// OnChange runs after a poll observed a different count than the
	// previous poll. It is not called for the first observation.
	OnChange func(ctx context.Context, prev, next int)
}

// UnreadPoller polls the unread count and drives the badge and sound.
type UnreadPoller struct {
	source UnreadSource
	sound  SoundEmitter
	events EventSink
	cfg    UnreadPollerConfig
	logger *logger.Logger

	mu   sync.Mutex
	prev int
}

// NewUnreadPoller creates a poller that has not observed any count yet.
func NewUnreadPoller(source UnreadSource, sound SoundEmitter, events EventSink, cfg UnreadPollerConfig, log *logger.Logger) *UnreadPoller {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.ViewingMessages == nil {
		cfg.ViewingMessages = func() bool { return false }
	}
	return &UnreadPoller{
		source: source,
		sound:  sound,
		events: events,
		cfg:    cfg,
		logger: log.Named("unread"),
		prev:   unobserved,
	}
}

// Run polls immediately and then on every interval until ctx is done.
func (p *UnreadPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick performs a single poll. Errors skip the tick.
func (p *UnreadPoller) Tick(ctx context.Context) {
	count, err := p.source.UnreadCount(ctx)
	metrics.RecordPoll("unread", err)
	if err != nil {
		p.logger.Debug("unread poll failed", zap.Error(err))
		return
	}
	if ctx.Err() != nil {
		return
	}

	p.mu.Lock()
	prev := p.prev
	p.prev = count
	p.mu.Unlock()

	if repeats, ok := ComputeSoundTrigger(prev, count, p.cfg.ViewingMessages()); ok {
		p.sound.Emit(ctx, repeats)
		p.events.Emit(ctx, model.EventSound, model.SoundPayload{Repeats: repeats})
	}

	metrics.UnreadCount.Set(float64(count))
	if prev == count {
		return
	}
	p.events.Emit(ctx, model.EventUnreadCount, model.UnreadCountPayload{Count: count, Previous: prev})

	if prev >= 0 && p.cfg.OnChange != nil {
		p.cfg.OnChange(ctx, prev, count)
	}
}

// Previous returns the last observed count, or -1 before the first poll.
func (p *UnreadPoller) Previous() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prev
}
