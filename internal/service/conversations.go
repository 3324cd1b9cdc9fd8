package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/capitalize-ai/messaging-sync/internal/model"
	"github.com/capitalize-ai/messaging-sync/pkg/logger"
	"github.com/capitalize-ai/messaging-sync/pkg/metrics"
)

// ConversationSync keeps the conversation list in step with the backend.
type ConversationSync struct {
	source ConversationSource
	events EventSink
	logger *logger.Logger
}

// NewConversationSync creates a conversation list synchronizer.
func NewConversationSync(source ConversationSource, events EventSink, log *logger.Logger) *ConversationSync {
	return &ConversationSync{
		source: source,
		events: events,
		logger: log.Named("conversations"),
	}
}

// Refresh fetches, sorts and publishes the list. On failure the list is
// reset to empty, and unless silent the user is told.
func (s *ConversationSync) Refresh(ctx context.Context, silent bool) ([]model.Conversation, error) {
	convs, err := s.source.Conversations(ctx)
	metrics.RecordPoll("conversations", err)
	if err != nil {
		s.logger.Debug("conversation refresh failed", zap.Error(err), zap.Bool("silent", silent))
		s.events.Emit(ctx, model.EventConversations, model.ConversationsPayload{Conversations: []model.Conversation{}})
		if !silent {
			notify(ctx, s.events, model.NoticeError, "Failed to load conversations")
		}
		return nil, fmt.Errorf("failed to refresh conversations: %w", err)
	}

	if convs == nil {
		convs = []model.Conversation{}
	}
	model.SortConversations(convs)
	s.events.Emit(ctx, model.EventConversations, model.ConversationsPayload{Conversations: convs})

	return convs, nil
}
