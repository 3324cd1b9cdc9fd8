package model

import (
	"time"
)

// EventType represents the type of sync event.
type EventType string

const (
	EventUnreadCount    EventType = "unread_count"
	EventSound          EventType = "sound"
	EventConversations  EventType = "conversations"
	EventSelection      EventType = "selection"
	EventThread         EventType = "thread"
	EventReplyIndicator EventType = "reply_indicator"
	EventReplyState     EventType = "reply_state"
	EventRoute          EventType = "route"
	EventNotice         EventType = "notice"
)

// SyncEvent is a change to the reconciled view. Sequence is set only on
// events replayed from the event stream.
type SyncEvent struct {
	ID        string    `json:"id"`
	Sequence  uint64    `json:"sequence,omitempty"`
	UserID    string    `json:"user_id"`
	Type      EventType `json:"type"`
	Payload   any       `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

// UnreadCountPayload carries a polled unread count.
type UnreadCountPayload struct {
	Count    int `json:"count"`
	Previous int `json:"previous"`
}

// SoundPayload records a notification sound trigger.
type SoundPayload struct {
	Repeats int `json:"repeats"`
}

// ConversationsPayload carries the sorted conversation list.
type ConversationsPayload struct {
	Conversations []Conversation `json:"conversations"`
}

// SelectionPayload carries the active conversation; nil clears it.
type SelectionPayload struct {
	Selection *Selection `json:"selection"`
}

// ThreadPayload carries the messages of a selection.
type ThreadPayload struct {
	Selection Selection `json:"selection"`
	Messages  []Message `json:"messages"`
}

// RoutePayload carries the UI route.
type RoutePayload struct {
	Path           string `json:"path"`
	OnMessagesPage bool   `json:"on_messages_page"`
}

// NoticeLevel is the severity of a user-visible notice.
type NoticeLevel string

const (
	NoticeError   NoticeLevel = "error"
	NoticeSuccess NoticeLevel = "success"
)

// Notice is a user-visible toast.
type Notice struct {
	Level     NoticeLevel `json:"level"`
	Message   string      `json:"message"`
	CreatedAt time.Time   `json:"created_at"`
}

// HeartbeatEvent keeps SSE connections alive.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}
