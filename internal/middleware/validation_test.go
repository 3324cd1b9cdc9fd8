package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("message", "65f1c0ffee"))
	assert.Error(t, ValidateID("message", ""))
	assert.Error(t, ValidateID("message", "a/b"))
	assert.Error(t, ValidateID("message", "a b"))
	assert.Error(t, ValidateID("message", strings.Repeat("x", maxIDLength+1)))
}

func TestValidateMessageBody(t *testing.T) {
	assert.NoError(t, ValidateMessageBody("hello", 0))
	assert.NoError(t, ValidateMessageBody("", 1))
	assert.Error(t, ValidateMessageBody("  ", 0))
	assert.Error(t, ValidateMessageBody(strings.Repeat("x", maxBodyLength+1), 0))
	assert.Error(t, ValidateMessageBody(string([]byte{0xff, 0xfe}), 0))
	assert.Error(t, ValidateMessageBody("hi", maxAttachments+1))
}

func TestValidateRoute(t *testing.T) {
	assert.NoError(t, ValidateRoute("/messages"))
	assert.Error(t, ValidateRoute("messages"))
	assert.Error(t, ValidateRoute(""))
}

func TestValidateConversationType(t *testing.T) {
	assert.NoError(t, ValidateConversationType("user"))
	assert.NoError(t, ValidateConversationType("group"))
	assert.Error(t, ValidateConversationType("channel"))
}
