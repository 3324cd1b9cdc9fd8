package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/capitalize-ai/messaging-sync/internal/model"
)

// MockBackend mocks the messaging backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) UnreadCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// Conversations fails on a cancelled context the way the HTTP client does.
func (m *MockBackend) Conversations(ctx context.Context) ([]model.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).([]model.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBackend) Messages(ctx context.Context, sel model.Selection) ([]model.Message, error) {
	args := m.Called(ctx, sel)
	if args.Get(0) != nil {
		return args.Get(0).([]model.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBackend) MarkRead(ctx context.Context, fromUserID string) error {
	args := m.Called(ctx, fromUserID)
	return args.Error(0)
}

func (m *MockBackend) SendMessage(ctx context.Context, req *model.SendMessageRequest) (*model.Message, error) {
	args := m.Called(ctx, req)
	if args.Get(0) != nil {
		return args.Get(0).(*model.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBackend) EditMessage(ctx context.Context, id, body string) (*model.Message, error) {
	args := m.Called(ctx, id, body)
	if args.Get(0) != nil {
		return args.Get(0).(*model.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBackend) DeleteMessage(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBackend) SetReplying(ctx context.Context, req *model.ReplyingRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockBackend) Replying(ctx context.Context, withUserID string) (*model.ReplyingStatus, error) {
	args := m.Called(ctx, withUserID)
	if args.Get(0) != nil {
		return args.Get(0).(*model.ReplyingStatus), args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeSound records emitted repeat counts
type fakeSound struct {
	mu       sync.Mutex
	emits    []int
	gestures int
}

func (f *fakeSound) Emit(_ context.Context, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emits = append(f.emits, times)
}

func (f *fakeSound) Gesture(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gestures++
}

func (f *fakeSound) Emits() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int{}, f.emits...)
}

// recorder collects published events
type recorder struct {
	mu     sync.Mutex
	events []*model.SyncEvent
}

func (r *recorder) Publish(_ context.Context, evt *model.SyncEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) OfType(t model.EventType) []*model.SyncEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.SyncEvent
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// beaconLog captures reply-presence beacons in order
type beaconLog struct {
	ch chan model.ReplyingRequest
}

func newBeaconLog() *beaconLog {
	return &beaconLog{ch: make(chan model.ReplyingRequest, 64)}
}

func (b *beaconLog) record(args mock.Arguments) {
	b.ch <- *args.Get(1).(*model.ReplyingRequest)
}

func ref(id, name string) model.Ref {
	return model.Ref{RawID: id, Name: name, Populated: true}
}

func direct(id, name string) model.Selection {
	return model.Selection{Type: model.ConversationUser, Target: ref(id, name)}
}
