package model

// ReplyingRequest is the body of POST /messages/replying.
type ReplyingRequest struct {
	WithUserID       string `json:"withUserId"`
	ReplyToMessageID string `json:"replyToMessageId,omitempty"`
	Clear            bool   `json:"clear,omitempty"`
}

// ReplyingStatus is returned by GET /messages/replying.
type ReplyingStatus struct {
	Replying         bool   `json:"replying"`
	Name             string `json:"name,omitempty"`
	ReplyToMessageID string `json:"replyToMessageId,omitempty"`
}

// ReplyIndicator is the rendered "peer is replying" state.
type ReplyIndicator struct {
	PeerID           string `json:"peer_id"`
	Replying         bool   `json:"replying"`
	Text             string `json:"text,omitempty"`
	ReplyToMessageID string `json:"reply_to_message_id,omitempty"`
}

// ReplyState is this user's own reply-presence broadcast state.
type ReplyState struct {
	Active           bool   `json:"active"`
	PeerID           string `json:"peer_id,omitempty"`
	ReplyToMessageID string `json:"reply_to_message_id,omitempty"`
}
