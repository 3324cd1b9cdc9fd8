package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/messaging-sync/internal/model"
)

const maxNotices = 20

// Publisher receives sync events.
type Publisher interface {
	Publish(ctx context.Context, evt *model.SyncEvent)
}

// EventSink is where components report state changes.
type EventSink interface {
	Emit(ctx context.Context, typ model.EventType, payload any)
}

// Store reduces sync events into the reconciled State and forwards every
// applied event to its publishers. Thread and indicator events for a
// conversation that is no longer active are dropped.
type Store struct {
	userID string
	sinks  []Publisher

	// pubMu orders apply and forward together so publishers see events
	// in the order they were applied. Publishers must not block.
	pubMu sync.Mutex

	mu    sync.RWMutex
	state model.State
}

// NewStore creates a store for userID.
func NewStore(userID string, sinks ...Publisher) *Store {
	return &Store{
		userID: userID,
		sinks:  sinks,
		state: model.State{
			UserID:        userID,
			Conversations: []model.Conversation{},
			Messages:      []model.Message{},
			Notices:       []model.Notice{},
		},
	}
}

// AddPublisher registers a downstream publisher.
func (s *Store) AddPublisher(p Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, p)
}

// Emit wraps payload into a SyncEvent and publishes it.
func (s *Store) Emit(ctx context.Context, typ model.EventType, payload any) {
	s.Publish(ctx, &model.SyncEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    s.userID,
		Type:      typ,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	})
}

// Publish applies evt and forwards it when it was applied.
func (s *Store) Publish(ctx context.Context, evt *model.SyncEvent) {
	if evt.UserID == "" {
		evt.UserID = s.userID
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	applied := s.apply(evt)
	sinks := s.sinks
	s.mu.Unlock()

	if !applied {
		return
	}
	for _, sink := range sinks {
		sink.Publish(ctx, evt)
	}
}

func (s *Store) apply(evt *model.SyncEvent) bool {
	st := &s.state

	switch p := evt.Payload.(type) {
	case model.UnreadCountPayload:
		st.UnreadCount = p.Count
		st.UnreadObserved = true

	case model.SoundPayload:
		// forwarded only

	case model.ConversationsPayload:
		st.Conversations = append([]model.Conversation{}, p.Conversations...)

	case model.SelectionPayload:
		if p.Selection == nil {
			st.Selection = nil
		} else {
			sel := *p.Selection
			st.Selection = &sel
		}
		st.Messages = []model.Message{}
		st.ReplyIndicator = nil

	case model.ThreadPayload:
		if st.Selection == nil || !st.Selection.Same(p.Selection) {
			return false
		}
		st.Messages = append([]model.Message{}, p.Messages...)

	case model.ReplyIndicator:
		if st.Selection == nil || !st.Selection.Direct() || st.Selection.TargetID() != p.PeerID {
			return false
		}
		if p.Replying {
			ind := p
			st.ReplyIndicator = &ind
		} else {
			st.ReplyIndicator = nil
		}

	case model.ReplyState:
		st.Reply = p

	case model.RoutePayload:
		st.Route = p.Path
		st.OnMessagesPage = p.OnMessagesPage

	case model.Notice:
		st.Notices = append(st.Notices, p)
		if len(st.Notices) > maxNotices {
			st.Notices = append([]model.Notice{}, st.Notices[len(st.Notices)-maxNotices:]...)
		}

	default:
		return false
	}

	st.UpdatedAt = evt.CreatedAt
	return true
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() model.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Conversations = append([]model.Conversation{}, s.state.Conversations...)
	st.Messages = append([]model.Message{}, s.state.Messages...)
	st.Notices = append([]model.Notice{}, s.state.Notices...)
	if s.state.Selection != nil {
		sel := *s.state.Selection
		st.Selection = &sel
	}
	if s.state.ReplyIndicator != nil {
		ind := *s.state.ReplyIndicator
		st.ReplyIndicator = &ind
	}
	return st
}

// Selection returns the active conversation, if any.
func (s *Store) Selection() *model.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Selection == nil {
		return nil
	}
	sel := *s.state.Selection
	return &sel
}

// Messages returns the active thread.
func (s *Store) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Message{}, s.state.Messages...)
}

// Conversations returns the conversation list.
func (s *Store) Conversations() []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Conversation{}, s.state.Conversations...)
}

// OnMessagesPage reports whether the UI is on the messages route.
func (s *Store) OnMessagesPage() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.OnMessagesPage
}

func notify(ctx context.Context, events EventSink, level model.NoticeLevel, msg string) {
	events.Emit(ctx, model.EventNotice, model.Notice{
		Level:     level,
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	})
}
