package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/messaging-sync/internal/model"
)

func TestStore_EmitAssignsIdentity(t *testing.T) {
	rec := &recorder{}
	store := NewStore("me", rec)

	store.Emit(context.Background(), model.EventUnreadCount, model.UnreadCountPayload{Count: 4, Previous: -1})

	events := rec.OfType(model.EventUnreadCount)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.Equal(t, "me", events[0].UserID)
	assert.False(t, events[0].CreatedAt.IsZero())

	st := store.Snapshot()
	assert.Equal(t, 4, st.UnreadCount)
	assert.True(t, st.UnreadObserved)
}

func TestStore_SelectionResetsThread(t *testing.T) {
	ctx := context.Background()
	store := NewStore("me")
	sel := direct("u2", "Ana")

	selectConversation(store, sel)
	store.Emit(ctx, model.EventThread, model.ThreadPayload{Selection: sel, Messages: sampleThread()})
	store.Emit(ctx, model.EventReplyIndicator, model.ReplyIndicator{PeerID: "u2", Replying: true, Text: "Ana is typing…"})
	require.Len(t, store.Messages(), 2)
	require.NotNil(t, store.Snapshot().ReplyIndicator)

	selectConversation(store, direct("u3", "Bo"))

	st := store.Snapshot()
	assert.Empty(t, st.Messages)
	assert.Nil(t, st.ReplyIndicator)
	assert.Equal(t, "u3", st.Selection.TargetID())
}

func TestStore_DropsStaleThread(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	store := NewStore("me", rec)

	selectConversation(store, direct("u3", "Bo"))
	store.Emit(ctx, model.EventThread, model.ThreadPayload{Selection: direct("u2", "Ana"), Messages: sampleThread()})

	assert.Empty(t, store.Messages())
	assert.Empty(t, rec.OfType(model.EventThread))
}

func TestStore_DropsThreadWithoutSelection(t *testing.T) {
	store := NewStore("me")
	store.Emit(context.Background(), model.EventThread, model.ThreadPayload{Selection: direct("u2", "Ana"), Messages: sampleThread()})
	assert.Empty(t, store.Messages())
}

func TestStore_DropsStaleIndicator(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	store := NewStore("me", rec)

	selectConversation(store, direct("u3", "Bo"))
	store.Emit(ctx, model.EventReplyIndicator, model.ReplyIndicator{PeerID: "u2", Replying: true})
	assert.Nil(t, store.Snapshot().ReplyIndicator)
	assert.Empty(t, rec.OfType(model.EventReplyIndicator))

	selectConversation(store, model.Selection{Type: model.ConversationGroup, Target: model.NewRef("g1")})
	store.Emit(ctx, model.EventReplyIndicator, model.ReplyIndicator{PeerID: "g1", Replying: true})
	assert.Nil(t, store.Snapshot().ReplyIndicator)
}

func TestStore_IndicatorClears(t *testing.T) {
	ctx := context.Background()
	store := NewStore("me")
	selectConversation(store, direct("u2", "Ana"))

	store.Emit(ctx, model.EventReplyIndicator, model.ReplyIndicator{PeerID: "u2", Replying: true})
	require.NotNil(t, store.Snapshot().ReplyIndicator)

	store.Emit(ctx, model.EventReplyIndicator, model.ReplyIndicator{PeerID: "u2"})
	assert.Nil(t, store.Snapshot().ReplyIndicator)
}

func TestStore_NoticesAreCapped(t *testing.T) {
	store := NewStore("me")
	for i := 0; i < maxNotices+5; i++ {
		notify(context.Background(), store, model.NoticeError, fmt.Sprintf("n%d", i))
	}

	notices := store.Snapshot().Notices
	require.Len(t, notices, maxNotices)
	assert.Equal(t, "n5", notices[0].Message)
	assert.Equal(t, fmt.Sprintf("n%d", maxNotices+4), notices[maxNotices-1].Message)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore("me")
	sel := direct("u2", "Ana")
	selectConversation(store, sel)
	store.Emit(ctx, model.EventThread, model.ThreadPayload{Selection: sel, Messages: sampleThread()})

	st := store.Snapshot()
	st.Messages[0].Body = "changed"
	st.Selection.Type = model.ConversationGroup

	assert.Equal(t, "hello", store.Messages()[0].Body)
	assert.True(t, store.Selection().Direct())
}

func TestStore_UnknownPayloadIsIgnored(t *testing.T) {
	rec := &recorder{}
	store := NewStore("me", rec)

	store.Emit(context.Background(), "bogus", struct{}{})

	assert.Empty(t, rec.OfType("bogus"))
	assert.True(t, store.Snapshot().UpdatedAt.IsZero())
}

func TestStore_RouteAndPublisher(t *testing.T) {
	store := NewStore("me")
	rec := &recorder{}
	store.AddPublisher(rec)

	store.Emit(context.Background(), model.EventRoute, model.RoutePayload{Path: "/messages", OnMessagesPage: true})

	assert.True(t, store.OnMessagesPage())
	assert.Equal(t, "/messages", store.Snapshot().Route)
	assert.Len(t, rec.OfType(model.EventRoute), 1)
}

// gatedSink holds the first unread event until released and records the
// order unread counts arrive in.
type gatedSink struct {
	entered chan struct{}
	release chan struct{}

	mu     sync.Mutex
	counts []int
}

func (g *gatedSink) Publish(_ context.Context, evt *model.SyncEvent) {
	p, ok := evt.Payload.(model.UnreadCountPayload)
	if !ok {
		return
	}
	if p.Count == 1 {
		close(g.entered)
		<-g.release
	}
	g.mu.Lock()
	g.counts = append(g.counts, p.Count)
	g.mu.Unlock()
}

func (g *gatedSink) Counts() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int(nil), g.counts...)
}

func TestStore_PublishersSeeApplyOrder(t *testing.T) {
	ctx := context.Background()
	sink := &gatedSink{entered: make(chan struct{}), release: make(chan struct{})}
	store := NewStore("me", sink)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		store.Emit(ctx, model.EventUnreadCount, model.UnreadCountPayload{Count: 1, Previous: 0})
	}()
	<-sink.entered

	go func() {
		defer wg.Done()
		store.Emit(ctx, model.EventUnreadCount, model.UnreadCountPayload{Count: 2, Previous: 1})
	}()

	// The second emit must wait for the first to finish forwarding.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, store.Snapshot().UnreadCount)

	close(sink.release)
	wg.Wait()

	assert.Equal(t, []int{1, 2}, sink.Counts())
	assert.Equal(t, 2, store.Snapshot().UnreadCount)
}

func TestStore_ConcurrentEmitsStayInStep(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	store := NewStore("me", rec)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			store.Emit(ctx, model.EventUnreadCount, model.UnreadCountPayload{Count: n, Previous: -1})
		}(i)
	}
	wg.Wait()

	events := rec.OfType(model.EventUnreadCount)
	require.Len(t, events, 50)
	last := events[len(events)-1].Payload.(model.UnreadCountPayload)
	assert.Equal(t, store.Snapshot().UnreadCount, last.Count)
}
