// Package service keeps the unread count, conversation list, active thread
// and reply presence reconciled with the messaging backend.
package service

import (
	"context"
	"errors"

	"github.com/capitalize-ai/messaging-sync/internal/model"
)

// UnreadSource fetches the authoritative unread count.
type UnreadSource interface {
	UnreadCount(ctx context.Context) (int, error)
}

// ConversationSource lists direct and group conversations.
type ConversationSource interface {
	Conversations(ctx context.Context) ([]model.Conversation, error)
}

// ThreadSource loads message history and acknowledges reads.
type ThreadSource interface {
	Messages(ctx context.Context, sel model.Selection) ([]model.Message, error)
	MarkRead(ctx context.Context, fromUserID string) error
}

// MessageWriter mutates messages.
type MessageWriter interface {
	SendMessage(ctx context.Context, req *model.SendMessageRequest) (*model.Message, error)
	EditMessage(ctx context.Context, id, body string) (*model.Message, error)
	DeleteMessage(ctx context.Context, id string) error
}

// ReplyingSink receives reply-presence beacons.
type ReplyingSink interface {
	SetReplying(ctx context.Context, req *model.ReplyingRequest) error
}

// ReplyingSource reports whether a peer is replying.
type ReplyingSource interface {
	Replying(ctx context.Context, withUserID string) (*model.ReplyingStatus, error)
}

// Backend is everything the session needs from the messaging API.
type Backend interface {
	UnreadSource
	ConversationSource
	ThreadSource
	MessageWriter
	ReplyingSink
	ReplyingSource
}

// SoundEmitter plays the unread cue.
type SoundEmitter interface {
	Emit(ctx context.Context, times int)
}

// Sound is a SoundEmitter that can also be unlocked by a user gesture.
type Sound interface {
	SoundEmitter
	Gesture(ctx context.Context)
}

var (
	ErrNotRunning           = errors.New("session is not running")
	ErrAlreadyRunning       = errors.New("session is already running")
	ErrInvalidSelection     = errors.New("invalid conversation selection")
	ErrNoActiveConversation = errors.New("no active conversation")
	ErrNotDirect            = errors.New("active conversation is not a direct conversation")
	ErrMessageNotFound      = errors.New("message not found in active thread")
	ErrNotPeerMessage       = errors.New("message was not sent by the peer")
	ErrNotOwnMessage        = errors.New("message was not sent by this user")
	ErrEmptyMessage         = errors.New("message has no body or attachments")
)
