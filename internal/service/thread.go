package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/capitalize-ai/messaging-sync/internal/model"
	"github.com/capitalize-ai/messaging-sync/pkg/logger"
)

// ThreadLoader loads the active thread. Opening a direct thread marks the
// peer's messages read.
type ThreadLoader struct {
	source ThreadSource
	convs  *ConversationSync
	events EventSink
	logger *logger.Logger
}

// NewThreadLoader creates a thread loader.
func NewThreadLoader(source ThreadSource, convs *ConversationSync, events EventSink, log *logger.Logger) *ThreadLoader {
	return &ThreadLoader{
		source: source,
		convs:  convs,
		events: events,
		logger: log.Named("thread"),
	}
}

// Load fetches the history of sel. A failed user-initiated load publishes
// an empty thread and an error notice; a failed silent reload keeps what
// is shown.
func (l *ThreadLoader) Load(ctx context.Context, sel model.Selection, silent bool) ([]model.Message, error) {
	if sel.TargetID() == "" || !sel.Type.Valid() {
		return nil, ErrInvalidSelection
	}

	msgs, err := l.source.Messages(ctx, sel)
	if err != nil {
		l.logger.Debug("thread load failed",
			zap.Error(err),
			zap.String("target_id", sel.TargetID()),
			zap.Bool("silent", silent),
		)
		if !silent {
			l.events.Emit(ctx, model.EventThread, model.ThreadPayload{Selection: sel, Messages: []model.Message{}})
			notify(ctx, l.events, model.NoticeError, "Failed to load messages")
		}
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}
	if msgs == nil {
		msgs = []model.Message{}
	}

	if sel.Direct() {
		if err := l.source.MarkRead(ctx, sel.TargetID()); err != nil {
			l.logger.Warn("mark read failed", zap.Error(err), zap.String("peer_id", sel.TargetID()))
			if !silent {
				notify(ctx, l.events, model.NoticeError, "Failed to mark messages as read")
			}
		}
	}

	l.events.Emit(ctx, model.EventThread, model.ThreadPayload{Selection: sel, Messages: msgs})

	// Read counts changed server side.
	l.convs.Refresh(context.WithoutCancel(ctx), true)

	return msgs, nil
}
