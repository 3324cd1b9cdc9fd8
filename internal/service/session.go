package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/messaging-sync/internal/model"
	"github.com/capitalize-ai/messaging-sync/pkg/logger"
)

// SessionConfig configures a Session.
type SessionConfig struct {
	UserID   string
	TenantID string

	MessagesRoute string
	InitialRoute  string

	UnreadPollInterval  time.Duration
	ReplyBeaconInterval time.Duration
	ReplyPollInterval   time.Duration
}

// Session is one signed-in user's synchronization layer. Start mounts it,
// Close unmounts it; no goroutine outlives Close.
type Session struct {
	cfg     SessionConfig
	backend Backend
	store   *Store
	sound   Sound
	logger  *logger.Logger

	unread      *UnreadPoller
	convs       *ConversationSync
	thread      *ThreadLoader
	broadcaster *ReplyBroadcaster
	replyPoller *ReplyPoller

	// mu serializes user actions.
	mu          sync.Mutex
	running     bool
	runCtx      context.Context
	cancelRun   context.CancelFunc
	cancelReply context.CancelFunc
	replyDone   chan struct{}
	wg          sync.WaitGroup
}

// NewSession wires the pollers of a session around store.
func NewSession(cfg SessionConfig, backend Backend, store *Store, sound Sound, log *logger.Logger) *Session {
	if cfg.MessagesRoute == "" {
		cfg.MessagesRoute = "/messages"
	}

	log = log.WithSession(cfg.TenantID, cfg.UserID)
	s := &Session{
		cfg:     cfg,
		backend: backend,
		store:   store,
		sound:   sound,
		logger:  log.Named("session"),
	}

	s.convs = NewConversationSync(backend, store, log)
	s.thread = NewThreadLoader(backend, s.convs, store, log)
	s.broadcaster = NewReplyBroadcaster(backend, store, cfg.ReplyBeaconInterval, log)
	s.replyPoller = NewReplyPoller(backend, store, cfg.ReplyPollInterval, log)
	s.unread = NewUnreadPoller(backend, sound, store, UnreadPollerConfig{
		Interval:        cfg.UnreadPollInterval,
		ViewingMessages: store.OnMessagesPage,
		OnChange:        s.onUnreadChange,
	}, log)

	return s
}

// Store returns the session's state store.
func (s *Session) Store() *Store {
	return s.store
}

// Snapshot returns the current reconciled state.
func (s *Session) Snapshot() model.State {
	return s.store.Snapshot()
}

// Running reports whether the session is mounted.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start mounts the session: sets the initial route, starts the unread
// poller and loads the conversation list.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.runCtx, s.cancelRun = context.WithCancel(context.WithoutCancel(ctx))
	runCtx := s.runCtx

	if s.cfg.InitialRoute != "" {
		s.setRouteLocked(ctx, s.cfg.InitialRoute)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.unread.Run(runCtx)
	}()
	s.mu.Unlock()

	s.logger.Info("session started")

	if _, err := s.convs.Refresh(ctx, false); err != nil {
		s.logger.Warn("initial conversation load failed", zap.Error(err))
	}
	return nil
}

// Close unmounts the session: clears any reply presence, stops every
// poller and waits for them.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.broadcaster.Stop(ctx)
	s.stopReplyPollerLocked()
	s.cancelRun()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("session closed")
}

// SetRoute records the UI route. Leaving the messages route closes the
// active conversation.
func (s *Session) SetRoute(ctx context.Context, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRouteLocked(ctx, path)
}

func (s *Session) setRouteLocked(ctx context.Context, path string) {
	wasOnMessages := s.store.OnMessagesPage()
	onMessages := s.isMessagesRoute(path)

	s.store.Emit(ctx, model.EventRoute, model.RoutePayload{Path: path, OnMessagesPage: onMessages})

	if wasOnMessages && !onMessages && s.store.Selection() != nil {
		s.deactivateLocked(ctx)
		s.store.Emit(ctx, model.EventSelection, model.SelectionPayload{})
	}
}

func (s *Session) isMessagesRoute(path string) bool {
	route := strings.TrimRight(s.cfg.MessagesRoute, "/")
	return path == route || strings.HasPrefix(path, route+"/")
}

// Gesture forwards a user interaction to the sound emitter.
func (s *Session) Gesture(ctx context.Context) {
	s.sound.Gesture(ctx)
}

// Refresh reloads the conversation list on user request.
func (s *Session) Refresh(ctx context.Context) ([]model.Conversation, error) {
	return s.convs.Refresh(ctx, false)
}

// Open makes sel the active conversation and loads its thread. Presence
// for the previous conversation is cleared before the new pollers start.
func (s *Session) Open(ctx context.Context, sel model.Selection) ([]model.Message, error) {
	if !sel.Type.Valid() || sel.TargetID() == "" {
		return nil, ErrInvalidSelection
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil, ErrNotRunning
	}
	sel = s.resolveSelection(sel)

	s.deactivateLocked(ctx)
	s.store.Emit(ctx, model.EventSelection, model.SelectionPayload{Selection: &sel})

	if sel.Direct() {
		replyCtx, cancel := context.WithCancel(s.runCtx)
		done := make(chan struct{})
		s.cancelReply = cancel
		s.replyDone = done

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer close(done)
			s.replyPoller.Run(replyCtx, sel.Target)
		}()
	}
	s.mu.Unlock()

	return s.thread.Load(ctx, sel, false)
}

// resolveSelection swaps a bare id for the populated ref from the
// conversation list, so presence text can use the peer's name.
func (s *Session) resolveSelection(sel model.Selection) model.Selection {
	if sel.Target.Populated {
		return sel
	}
	for _, c := range s.store.Conversations() {
		if c.Type == sel.Type && c.Counterpart().ID() == sel.TargetID() {
			return c.Selection()
		}
	}
	return sel
}

func (s *Session) deactivateLocked(ctx context.Context) {
	s.broadcaster.Stop(ctx)
	s.stopReplyPollerLocked()
}

func (s *Session) stopReplyPollerLocked() {
	if s.cancelReply == nil {
		return
	}
	s.cancelReply()
	<-s.replyDone
	s.cancelReply = nil
	s.replyDone = nil
}

// SetReplyTarget starts broadcasting that the user is replying to a
// message the peer sent in the active direct conversation.
func (s *Session) SetReplyTarget(ctx context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := s.store.Selection()
	if sel == nil {
		return ErrNoActiveConversation
	}
	if !sel.Direct() {
		return ErrNotDirect
	}

	msg, ok := model.FindMessage(s.store.Messages(), messageID)
	if !ok {
		return ErrMessageNotFound
	}
	if msg.Sender.ID() != sel.TargetID() {
		return ErrNotPeerMessage
	}

	s.broadcaster.Start(ctx, sel.TargetID(), messageID)
	return nil
}

// CancelReply dismisses the reply banner.
func (s *Session) CancelReply(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster.Stop(ctx)
}

// Send posts a message to the active conversation. A pending reply target
// is attached and cleared on success.
func (s *Session) Send(ctx context.Context, body string, attachments []model.Attachment) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := s.store.Selection()
	if sel == nil {
		return nil, ErrNoActiveConversation
	}
	if strings.TrimSpace(body) == "" && len(attachments) == 0 {
		return nil, ErrEmptyMessage
	}

	req := &model.SendMessageRequest{Body: body, Attachments: attachments}
	if sel.Direct() {
		req.To = sel.TargetID()
	} else {
		req.Group = sel.TargetID()
	}
	if reply := s.broadcaster.State(); reply.Active && reply.PeerID == sel.TargetID() {
		req.ReplyTo = reply.ReplyToMessageID
	}

	msg, err := s.backend.SendMessage(ctx, req)
	if err != nil {
		s.logger.Warn("send failed", zap.Error(err), zap.String("target_id", sel.TargetID()))
		notify(ctx, s.store, model.NoticeError, "Failed to send message")
		return nil, err
	}

	// The message is accepted; follow-ups run even if the caller is gone.
	ctx = context.WithoutCancel(ctx)
	s.broadcaster.Stop(ctx)

	msgs := append(s.store.Messages(), *msg)
	s.store.Emit(ctx, model.EventThread, model.ThreadPayload{Selection: *sel, Messages: msgs})
	s.convs.Refresh(ctx, true)

	return msg, nil
}

// Edit changes the body of one of the user's own messages.
func (s *Session) Edit(ctx context.Context, messageID, body string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := s.store.Selection()
	if sel == nil {
		return nil, ErrNoActiveConversation
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}

	msgs := s.store.Messages()
	existing, ok := model.FindMessage(msgs, messageID)
	if !ok {
		return nil, ErrMessageNotFound
	}
	if s.cfg.UserID != "" && existing.Sender.ID() != s.cfg.UserID {
		return nil, ErrNotOwnMessage
	}

	msg, err := s.backend.EditMessage(ctx, messageID, body)
	if err != nil {
		s.logger.Warn("edit failed", zap.Error(err), zap.String("message_id", messageID))
		notify(ctx, s.store, model.NoticeError, "Failed to edit message")
		return nil, err
	}
	if msg.EditedAt == nil {
		now := time.Now().UTC()
		msg.EditedAt = &now
	}

	*existing = *msg
	s.store.Emit(ctx, model.EventThread, model.ThreadPayload{Selection: *sel, Messages: msgs})
	return msg, nil
}

// Delete removes a message from the backend and from the active thread.
func (s *Session) Delete(ctx context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := s.store.Selection()
	if sel == nil {
		return ErrNoActiveConversation
	}

	msgs := s.store.Messages()
	if _, ok := model.FindMessage(msgs, messageID); !ok {
		return ErrMessageNotFound
	}

	if err := s.backend.DeleteMessage(ctx, messageID); err != nil {
		s.logger.Warn("delete failed", zap.Error(err), zap.String("message_id", messageID))
		notify(ctx, s.store, model.NoticeError, "Failed to delete message")
		return err
	}
	ctx = context.WithoutCancel(ctx)

	msgs, _ = model.RemoveMessage(msgs, messageID)
	s.store.Emit(ctx, model.EventThread, model.ThreadPayload{Selection: *sel, Messages: msgs})
	s.convs.Refresh(ctx, true)
	return nil
}

// onUnreadChange reacts to received or read messages: the list always
// refreshes, and an open thread reloads while the messages screen shows.
func (s *Session) onUnreadChange(ctx context.Context, prev, next int) {
	s.convs.Refresh(ctx, true)

	if !s.store.OnMessagesPage() {
		return
	}
	if sel := s.store.Selection(); sel != nil && next > prev {
		s.thread.Load(ctx, *sel, true)
	}
}
