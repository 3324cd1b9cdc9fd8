package nats

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/messaging-sync/internal/model"
)

func TestEventSubject(t *testing.T) {
	assert.Equal(t, "msgsync.acme.u1.unread_count", EventSubject("acme", "u1", model.EventUnreadCount))
	assert.Equal(t, "msgsync._.a_b_c.thread", EventSubject("", "a.b*c", model.EventThread))
	assert.Equal(t, "msgsync.acme.u_1.>", UserFilter("acme", "u 1"))
}

func TestDecodeEvent(t *testing.T) {
	data, err := json.Marshal(&model.SyncEvent{
		ID:      "e1",
		UserID:  "u1",
		Type:    model.EventUnreadCount,
		Payload: model.UnreadCountPayload{Count: 3, Previous: 1},
	})
	require.NoError(t, err)

	evt, err := decodeEvent(data)
	require.NoError(t, err)

	assert.Equal(t, "e1", evt.ID)
	assert.Equal(t, model.EventUnreadCount, evt.Type)
	assert.JSONEq(t, `{"count":3,"previous":1}`, string(evt.Payload.(json.RawMessage)))

	_, err = decodeEvent([]byte("{"))
	assert.Error(t, err)
}
