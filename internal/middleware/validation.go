package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/capitalize-ai/messaging-sync/internal/model"
)

const (
	maxBodyLength  = 100000 // ~100KB
	maxIDLength    = 128
	maxRouteLength = 2048
	maxAttachments = 20
)

// ValidateID validates a backend object id.
func ValidateID(kind, id string) error {
	if id == "" {
		return errors.New(kind + " ID cannot be empty")
	}
	if len(id) > maxIDLength {
		return errors.New(kind + " ID exceeds maximum length")
	}
	if strings.ContainsAny(id, "/?# \t\r\n") {
		return errors.New("invalid " + kind + " ID format")
	}
	return nil
}

// ValidateMessageBody validates a message body. An empty body is allowed
// when the message carries attachments.
func ValidateMessageBody(body string, attachments int) error {
	if strings.TrimSpace(body) == "" && attachments == 0 {
		return errors.New("message cannot be empty")
	}
	if len(body) > maxBodyLength {
		return errors.New("message exceeds maximum length")
	}
	if !utf8.ValidString(body) {
		return errors.New("message must be valid UTF-8")
	}
	if attachments > maxAttachments {
		return errors.New("too many attachments")
	}
	return nil
}

// ValidateRoute validates a UI route path.
func ValidateRoute(path string) error {
	if !strings.HasPrefix(path, "/") {
		return errors.New("route must start with /")
	}
	if len(path) > maxRouteLength {
		return errors.New("route exceeds maximum length")
	}
	return nil
}

// ValidateConversationType validates a conversation type.
func ValidateConversationType(t string) error {
	if !model.ConversationType(t).Valid() {
		return errors.New("conversation type must be user or group")
	}
	return nil
}
