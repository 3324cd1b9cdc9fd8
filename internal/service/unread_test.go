package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/messaging-sync/internal/model"
	"github.com/capitalize-ai/messaging-sync/pkg/logger"
)

func TestComputeSoundTrigger(t *testing.T) {
	tests := []struct {
		name       string
		prev, next int
		onMessages bool
		want       int
		wantOK     bool
	}{
		{"first observation", -1, 3, false, 0, false},
		{"first observation of zero", -1, 0, false, 0, false},
		{"capped at three", 5, 9, false, 3, true},
		{"single new message", 5, 6, false, 1, true},
		{"from zero", 0, 2, false, 2, true},
		{"unchanged", 5, 5, false, 0, false},
		{"decrease", 5, 2, false, 0, false},
		{"on messages page", 2, 5, true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ComputeSoundTrigger(tt.prev, tt.next, tt.onMessages)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestPoller(backend *MockBackend, sound *fakeSound, store *Store, viewing bool) *UnreadPoller {
	return NewUnreadPoller(backend, sound, store, UnreadPollerConfig{
		Interval:        time.Hour,
		ViewingMessages: func() bool { return viewing },
	}, logger.NewNop())
}

func TestUnreadPoller_FirstPollNeverSounds(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)
	backend.On("UnreadCount", mock.Anything).Return(3, nil).Once()

	sound := &fakeSound{}
	store := NewStore("me")
	p := newTestPoller(backend, sound, store, false)

	assert.Equal(t, -1, p.Previous())
	p.Tick(ctx)

	assert.Empty(t, sound.Emits())
	st := store.Snapshot()
	assert.Equal(t, 3, st.UnreadCount)
	assert.True(t, st.UnreadObserved)
	assert.Equal(t, 3, p.Previous())
	backend.AssertExpectations(t)
}

func TestUnreadPoller_IncreasePlaysCappedSound(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)
	backend.On("UnreadCount", mock.Anything).Return(5, nil).Once()
	backend.On("UnreadCount", mock.Anything).Return(9, nil).Once()

	sound := &fakeSound{}
	rec := &recorder{}
	store := NewStore("me", rec)
	p := newTestPoller(backend, sound, store, false)

	p.Tick(ctx)
	p.Tick(ctx)

	assert.Equal(t, []int{3}, sound.Emits())
	require.Len(t, rec.OfType(model.EventSound), 1)
	assert.Equal(t, model.SoundPayload{Repeats: 3}, rec.OfType(model.EventSound)[0].Payload)
	assert.Equal(t, 9, store.Snapshot().UnreadCount)
}

func TestUnreadPoller_DecreaseIsSilent(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)
	backend.On("UnreadCount", mock.Anything).Return(5, nil).Once()
	backend.On("UnreadCount", mock.Anything).Return(1, nil).Once()
	backend.On("UnreadCount", mock.Anything).Return(1, nil).Once()

	sound := &fakeSound{}
	store := NewStore("me")
	p := newTestPoller(backend, sound, store, false)

	assert.NotPanics(t, func() {
		p.Tick(ctx)
		p.Tick(ctx)
		p.Tick(ctx)
	})

	assert.Empty(t, sound.Emits())
	assert.Equal(t, 1, store.Snapshot().UnreadCount)
}

func TestUnreadPoller_SuppressedOnMessagesPage(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)
	backend.On("UnreadCount", mock.Anything).Return(2, nil).Once()
	backend.On("UnreadCount", mock.Anything).Return(5, nil).Once()

	sound := &fakeSound{}
	store := NewStore("me")
	p := newTestPoller(backend, sound, store, true)

	p.Tick(ctx)
	p.Tick(ctx)

	assert.Empty(t, sound.Emits())
	// Only audio is suppressed; the badge still moves.
	assert.Equal(t, 5, store.Snapshot().UnreadCount)
}

func TestUnreadPoller_ErrorSkipsTick(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)
	backend.On("UnreadCount", mock.Anything).Return(2, nil).Once()
	backend.On("UnreadCount", mock.Anything).Return(0, errors.New("502")).Once()
	backend.On("UnreadCount", mock.Anything).Return(4, nil).Once()

	sound := &fakeSound{}
	store := NewStore("me")
	p := newTestPoller(backend, sound, store, false)

	p.Tick(ctx)
	p.Tick(ctx)
	assert.Equal(t, 2, p.Previous())
	assert.Equal(t, 2, store.Snapshot().UnreadCount)

	p.Tick(ctx)
	assert.Equal(t, []int{2}, sound.Emits())
}

func TestUnreadPoller_OnChangeSkipsFirstObservation(t *testing.T) {
	ctx := context.Background()
	backend := new(MockBackend)
	backend.On("UnreadCount", mock.Anything).Return(1, nil).Once()
	backend.On("UnreadCount", mock.Anything).Return(1, nil).Once()
	backend.On("UnreadCount", mock.Anything).Return(2, nil).Once()

	var changes [][2]int
	p := NewUnreadPoller(backend, &fakeSound{}, NewStore("me"), UnreadPollerConfig{
		Interval: time.Hour,
		OnChange: func(_ context.Context, prev, next int) {
			changes = append(changes, [2]int{prev, next})
		},
	}, logger.NewNop())

	p.Tick(ctx)
	p.Tick(ctx)
	p.Tick(ctx)

	assert.Equal(t, [][2]int{{1, 2}}, changes)
}

func TestUnreadPoller_RunPollsImmediatelyAndStops(t *testing.T) {
	var polls atomic.Int32
	backend := new(MockBackend)
	backend.On("UnreadCount", mock.Anything).Return(0, nil).Run(func(mock.Arguments) {
		polls.Add(1)
	})

	p := NewUnreadPoller(backend, &fakeSound{}, NewStore("me"), UnreadPollerConfig{
		Interval: 10 * time.Millisecond,
	}, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Run(ctx)
	}()

	require.Eventually(t, func() bool { return p.Previous() == 0 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		return polls.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	wg.Wait()
}
