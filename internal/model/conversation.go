package model

import (
	"sort"
	"time"
)

// ConversationType distinguishes direct threads from group threads.
type ConversationType string

const (
	ConversationUser  ConversationType = "user"
	ConversationGroup ConversationType = "group"
)

// Valid reports whether t is a known conversation type.
func (t ConversationType) Valid() bool {
	return t == ConversationUser || t == ConversationGroup
}

// LastMessage is the preview of a conversation's latest message.
type LastMessage struct {
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Conversation is a direct or group thread as listed by the backend.
type Conversation struct {
	Type        ConversationType `json:"type"`
	User        *Ref             `json:"user,omitempty"`
	Group       *Ref             `json:"group,omitempty"`
	LastMessage *LastMessage     `json:"lastMessage,omitempty"`
	UnreadCount int              `json:"unreadCount"`
}

// Counterpart returns the user or group on the other side.
func (c Conversation) Counterpart() Ref {
	if c.Type == ConversationGroup && c.Group != nil {
		return *c.Group
	}
	if c.User != nil {
		return *c.User
	}
	return Ref{}
}

// Selection returns the selection that opens this conversation.
func (c Conversation) Selection() Selection {
	return Selection{Type: c.Type, Target: c.Counterpart()}
}

func (c Conversation) lastActivity() time.Time {
	if c.LastMessage == nil {
		return time.Time{}
	}
	return c.LastMessage.CreatedAt
}

// SortConversations orders conversations most recent first. Conversations
// without a last message sort as the oldest.
func SortConversations(convs []Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].lastActivity().After(convs[j].lastActivity())
	})
}

// Selection identifies the active conversation.
type Selection struct {
	Type   ConversationType `json:"type"`
	Target Ref              `json:"target"`
}

// TargetID resolves the peer or group id.
func (s Selection) TargetID() string {
	return s.Target.ID()
}

// Direct reports whether the selection is a 1:1 conversation.
func (s Selection) Direct() bool {
	return s.Type == ConversationUser
}

// Same reports whether both selections point at the same conversation.
func (s Selection) Same(other Selection) bool {
	return s.Type == other.Type && s.TargetID() == other.TargetID()
}
