package model

import (
	"encoding/json"
	"time"
)

// Attachment is a file attached to a message.
type Attachment struct {
	URL      string `json:"url"`
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// Message is a single direct or group message.
type Message struct {
	ID          string       `json:"id"`
	Sender      Ref          `json:"sender"`
	Recipient   *Ref         `json:"recipient,omitempty"`
	Group       *Ref         `json:"group,omitempty"`
	Body        string       `json:"body,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	ReplyTo     *Ref         `json:"replyTo,omitempty"`

	// Timestamps
	CreatedAt   time.Time  `json:"createdAt"`
	EditedAt    *time.Time `json:"editedAt,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
}

// UnmarshalJSON also accepts the backend's "_id" key.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(m)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = aux.MongoID
	}
	return nil
}

// SendMessageRequest is the body of POST /messages.
type SendMessageRequest struct {
	To          string       `json:"to,omitempty"`
	Group       string       `json:"group,omitempty"`
	Body        string       `json:"body,omitempty"`
	ReplyTo     string       `json:"replyTo,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// EditMessageRequest is the body of PUT /messages/{id}.
type EditMessageRequest struct {
	Body string `json:"body"`
}

// MarkReadRequest is the body of PUT /messages/mark-read.
type MarkReadRequest struct {
	FromUserID string `json:"fromUserId"`
}

// UnreadCountResponse is returned by GET /messages/unread-count.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// RemoveMessage returns msgs without the message with the given id.
func RemoveMessage(msgs []Message, id string) ([]Message, bool) {
	out := make([]Message, 0, len(msgs))
	found := false
	for _, m := range msgs {
		if m.ID == id {
			found = true
			continue
		}
		out = append(out, m)
	}
	return out, found
}

// FindMessage returns the message with the given id.
func FindMessage(msgs []Message, id string) (*Message, bool) {
	for i := range msgs {
		if msgs[i].ID == id {
			return &msgs[i], true
		}
	}
	return nil, false
}
