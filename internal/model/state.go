package model

import "time"

// State is the reconciled view the UI renders from.
type State struct {
	UserID         string          `json:"user_id"`
	Route          string          `json:"route"`
	OnMessagesPage bool            `json:"on_messages_page"`
	UnreadCount    int             `json:"unread_count"`
	UnreadObserved bool            `json:"unread_observed"`
	Conversations  []Conversation  `json:"conversations"`
	Selection      *Selection      `json:"selection,omitempty"`
	Messages       []Message       `json:"messages"`
	ReplyIndicator *ReplyIndicator `json:"reply_indicator,omitempty"`
	Reply          ReplyState      `json:"reply"`
	Notices        []Notice        `json:"notices"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
