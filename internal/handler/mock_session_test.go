package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/messaging-sync/internal/middleware"
	"github.com/capitalize-ai/messaging-sync/internal/model"
)

// MockSession mocks the sync session
type MockSession struct {
	mock.Mock
}

func (m *MockSession) Snapshot() model.State {
	args := m.Called()
	return args.Get(0).(model.State)
}

func (m *MockSession) SetRoute(ctx context.Context, path string) {
	m.Called(ctx, path)
}

func (m *MockSession) Gesture(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockSession) Refresh(ctx context.Context) ([]model.Conversation, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).([]model.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSession) Open(ctx context.Context, sel model.Selection) ([]model.Message, error) {
	args := m.Called(ctx, sel)
	if args.Get(0) != nil {
		return args.Get(0).([]model.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSession) SetReplyTarget(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MockSession) CancelReply(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockSession) Send(ctx context.Context, body string, attachments []model.Attachment) (*model.Message, error) {
	args := m.Called(ctx, body, attachments)
	if args.Get(0) != nil {
		return args.Get(0).(*model.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSession) Edit(ctx context.Context, messageID, body string) (*model.Message, error) {
	args := m.Called(ctx, messageID, body)
	if args.Get(0) != nil {
		return args.Get(0).(*model.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSession) Delete(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MockSession) Running() bool {
	args := m.Called()
	return args.Bool(0)
}

const testSecret = "handler-test-secret"

func bearer(t *testing.T, subject string, scopes ...string) string {
	t.Helper()
	claims := middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TenantID: "acme",
		Scopes:   scopes,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func authorize(t *testing.T, req *http.Request) *http.Request {
	req.Header.Set("Authorization", bearer(t, "me", middleware.ScopeWrite))
	return req
}
