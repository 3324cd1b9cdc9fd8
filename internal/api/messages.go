package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/capitalize-ai/messaging-sync/internal/model"
)

// UnreadCount handles GET /messages/unread-count
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp model.UnreadCountResponse
	if err := c.do(ctx, "unread_count", http.MethodGet, "/messages/unread-count", nil, nil, &resp); err != nil {
		return 0, err
	}
	if resp.Count < 0 {
		return 0, errors.New("unread_count: negative count")
	}
	return resp.Count, nil
}

// Conversations handles GET /messages/conversations
func (c *Client) Conversations(ctx context.Context) ([]model.Conversation, error) {
	var convs []model.Conversation
	if err := c.do(ctx, "conversations", http.MethodGet, "/messages/conversations", nil, nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// Messages handles GET /messages?with= and GET /messages?group=
func (c *Client) Messages(ctx context.Context, sel model.Selection) ([]model.Message, error) {
	id := sel.TargetID()
	if id == "" {
		return nil, errors.New("messages: selection has no target id")
	}

	query := url.Values{}
	if sel.Type == model.ConversationGroup {
		query.Set("group", id)
	} else {
		query.Set("with", id)
	}

	var msgs []model.Message
	if err := c.do(ctx, "messages", http.MethodGet, "/messages", query, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkRead handles PUT /messages/mark-read
func (c *Client) MarkRead(ctx context.Context, fromUserID string) error {
	return c.do(ctx, "mark_read", http.MethodPut, "/messages/mark-read", nil,
		&model.MarkReadRequest{FromUserID: fromUserID}, nil)
}

// SendMessage handles POST /messages
func (c *Client) SendMessage(ctx context.Context, req *model.SendMessageRequest) (*model.Message, error) {
	var msg model.Message
	if err := c.do(ctx, "send_message", http.MethodPost, "/messages", nil, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessage handles PUT /messages/{id}
func (c *Client) EditMessage(ctx context.Context, id, body string) (*model.Message, error) {
	var msg model.Message
	path := "/messages/" + url.PathEscape(id)
	if err := c.do(ctx, "edit_message", http.MethodPut, path, nil, &model.EditMessageRequest{Body: body}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage handles DELETE /messages/{id}
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	return c.do(ctx, "delete_message", http.MethodDelete, "/messages/"+url.PathEscape(id), nil, nil, nil)
}

// SetReplying handles POST /messages/replying
func (c *Client) SetReplying(ctx context.Context, req *model.ReplyingRequest) error {
	return c.do(ctx, "set_replying", http.MethodPost, "/messages/replying", nil, req, nil)
}

// Replying handles GET /messages/replying?with=
func (c *Client) Replying(ctx context.Context, withUserID string) (*model.ReplyingStatus, error) {
	var status model.ReplyingStatus
	query := url.Values{"with": []string{withUserID}}
	if err := c.do(ctx, "get_replying", http.MethodGet, "/messages/replying", query, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
