package model

// SetRouteRequest is the body of PUT /api/v1/route.
type SetRouteRequest struct {
	Path string `json:"path"`
}

// PostMessageRequest is the body of POST /api/v1/messages. The target is
// the active conversation.
type PostMessageRequest struct {
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// ReplyTargetRequest is the body of PUT /api/v1/reply.
type ReplyTargetRequest struct {
	MessageID string `json:"message_id"`
}

// OpenResponse is returned when a conversation is opened.
type OpenResponse struct {
	Selection Selection `json:"selection"`
	Messages  []Message `json:"messages"`
}

// ReplayCompleteEvent marks the end of a stream replay.
type ReplayCompleteEvent struct {
	LastSequence uint64 `json:"last_sequence"`
	EventCount   int    `json:"event_count"`
}

// ErrorEvent reports a stream-level failure.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
