package sound

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/messaging-sync/pkg/logger"
	"github.com/capitalize-ai/messaging-sync/pkg/metrics"
)

// Options tunes the emitter.
type Options struct {
	MaxRepeats int
	Spacing    time.Duration
	Tone       Tone
}

// DefaultOptions plays at most 3 beeps, 180ms apart.
var DefaultOptions = Options{
	MaxRepeats: 3,
	Spacing:    180 * time.Millisecond,
	Tone:       NotificationTone,
}

// Emitter schedules notification beeps on a lazily created context.
// Every failure is swallowed; sound never blocks the caller.
type Emitter struct {
	provider Provider
	opts     Options
	logger   *logger.Logger

	mu              sync.Mutex
	ac              Context
	awaitingGesture bool

	wg sync.WaitGroup
}

// NewEmitter creates an emitter. The context is not created until the
// first Emit.
func NewEmitter(provider Provider, opts Options, log *logger.Logger) *Emitter {
	if opts.MaxRepeats <= 0 {
		opts.MaxRepeats = DefaultOptions.MaxRepeats
	}
	if opts.Spacing <= 0 {
		opts.Spacing = DefaultOptions.Spacing
	}
	if opts.Tone == (Tone{}) {
		opts.Tone = DefaultOptions.Tone
	}
	return &Emitter{
		provider: provider,
		opts:     opts,
		logger:   log.Named("sound"),
	}
}

func (e *Emitter) context() Context {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ac != nil {
		return e.ac
	}

	ac, err := e.provider()
	if err != nil || ac == nil {
		e.logger.Debug("audio context unavailable", zap.Error(err))
		return nil
	}
	e.ac = ac
	if ac.State() == StateSuspended {
		e.awaitingGesture = true
	}
	return ac
}

// Gesture reports a user interaction. The first one after the context
// was created suspended resumes it; later calls are no-ops.
// A gesture that arrives before the first Emit is dropped, since no
// context exists yet to resume.
func (e *Emitter) Gesture(ctx context.Context) {
	e.mu.Lock()
	ac := e.ac
	armed := e.awaitingGesture
	e.awaitingGesture = false
	e.mu.Unlock()

	if !armed || ac == nil || ac.State() != StateSuspended {
		return
	}
	if err := ac.Resume(ctx); err != nil {
		e.logger.Debug("audio resume on gesture failed", zap.Error(err))
	}
}

// Emit schedules min(times, MaxRepeats) beeps and returns immediately.
func (e *Emitter) Emit(ctx context.Context, times int) {
	n := min(times, e.opts.MaxRepeats)
	if n <= 0 {
		return
	}

	ac := e.context()
	if ac == nil {
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.play(ctx, ac, n)
	}()
}

func (e *Emitter) play(ctx context.Context, ac Context, n int) {
	if ac.State() == StateSuspended {
		if err := ac.Resume(ctx); err != nil {
			e.logger.Debug("audio resume failed", zap.Error(err))
			metrics.SoundRepeatsTotal.WithLabelValues("suspended").Add(float64(n))
			return
		}
		if ac.State() != StateRunning {
			metrics.SoundRepeatsTotal.WithLabelValues("suspended").Add(float64(n))
			return
		}
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if err := ac.Beep(ctx, e.opts.Tone); err != nil {
			e.logger.Debug("beep failed", zap.Error(err))
			metrics.SoundRepeatsTotal.WithLabelValues("error").Inc()
		} else {
			metrics.SoundRepeatsTotal.WithLabelValues("ok").Inc()
		}
		timer.Reset(e.opts.Spacing)
	}
}

// Wait blocks until every scheduled beep has played or been abandoned.
func (e *Emitter) Wait() {
	e.wg.Wait()
}
