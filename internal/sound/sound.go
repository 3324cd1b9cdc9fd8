// Package sound plays the audible unread-message cue.
package sound

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// State is the lifecycle state of an audio context.
type State int

const (
	StateSuspended State = iota
	StateRunning
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrSuspended is returned when playing on a context that is not running.
var ErrSuspended = errors.New("audio context suspended")

// Tone describes a single beep: a sine at Frequency whose gain decays
// exponentially from Gain to FloorGain over Duration.
type Tone struct {
	Frequency float64
	Gain      float64
	FloorGain float64
	Duration  time.Duration
}

// NotificationTone is the unread-message beep.
var NotificationTone = Tone{
	Frequency: 800,
	Gain:      0.15,
	FloorGain: 0.01,
	Duration:  150 * time.Millisecond,
}

// Context is an audio output that may need a user gesture before it runs.
type Context interface {
	State() State
	Resume(ctx context.Context) error
	Beep(ctx context.Context, tone Tone) error
}

// Provider creates the process-wide audio context on first use.
type Provider func() (Context, error)

// BellContext rings the terminal bell. Frequency and gain are ignored.
type BellContext struct {
	mu    sync.Mutex
	w     io.Writer
	state State
}

// NewBellContext creates a bell context writing to w. With requireGesture
// it starts suspended until resumed.
func NewBellContext(w io.Writer, requireGesture bool) *BellContext {
	state := StateRunning
	if requireGesture {
		state = StateSuspended
	}
	return &BellContext{w: w, state: state}
}

// State returns the current state.
func (b *BellContext) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Resume moves a suspended context to running.
func (b *BellContext) Resume(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateClosed {
		return errors.New("audio context closed")
	}
	b.state = StateRunning
	return nil
}

// Beep writes a BEL character.
func (b *BellContext) Beep(ctx context.Context, tone Tone) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateRunning {
		return ErrSuspended
	}
	_, err := b.w.Write([]byte{'\a'})
	return err
}

// BellProvider returns a provider of terminal bell contexts.
func BellProvider(w io.Writer, requireGesture bool) Provider {
	return func() (Context, error) {
		if w == nil {
			return nil, errors.New("no bell output")
		}
		return NewBellContext(w, requireGesture), nil
	}
}

// NopContext accepts every beep and plays nothing.
type NopContext struct{}

func (NopContext) State() State { return StateRunning }

func (NopContext) Resume(context.Context) error { return nil }

func (NopContext) Beep(context.Context, Tone) error { return nil }

// NopProvider returns a provider of silent contexts.
func NopProvider() Provider {
	return func() (Context, error) { return NopContext{}, nil }
}
