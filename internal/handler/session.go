package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/messaging-sync/internal/middleware"
	"github.com/capitalize-ai/messaging-sync/internal/model"
	"github.com/capitalize-ai/messaging-sync/pkg/logger"
)

// SyncSession is the session surface the local API drives.
type SyncSession interface {
	Snapshot() model.State
	SetRoute(ctx context.Context, path string)
	Gesture(ctx context.Context)
	Refresh(ctx context.Context) ([]model.Conversation, error)
	Open(ctx context.Context, sel model.Selection) ([]model.Message, error)
	SetReplyTarget(ctx context.Context, messageID string) error
	CancelReply(ctx context.Context)
	Send(ctx context.Context, body string, attachments []model.Attachment) (*model.Message, error)
	Edit(ctx context.Context, messageID, body string) (*model.Message, error)
	Delete(ctx context.Context, messageID string) error
}

// SessionHandler handles the session endpoints.
type SessionHandler struct {
	session SyncSession
	logger  *logger.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(session SyncSession, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		session: session,
		logger:  log.Named("handler"),
	}
}

// State handles GET /api/v1/state
func (h *SessionHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// SetRoute handles PUT /api/v1/route
func (h *SessionHandler) SetRoute(w http.ResponseWriter, r *http.Request) {
	var req model.SetRouteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateRoute(req.Path); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.session.SetRoute(r.Context(), req.Path)

	st := h.session.Snapshot()
	writeJSON(w, http.StatusOK, model.RoutePayload{Path: st.Route, OnMessagesPage: st.OnMessagesPage})
}

// Gesture handles POST /api/v1/gesture
func (h *SessionHandler) Gesture(w http.ResponseWriter, r *http.Request) {
	h.session.Gesture(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Refresh handles POST /api/v1/conversations/refresh
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	convs, err := h.session.Refresh(r.Context())
	if err != nil {
		h.logger.Warn("conversation refresh failed", zap.Error(err))
		writeServiceError(w, err, "failed to load conversations")
		return
	}

	writeJSON(w, http.StatusOK, model.ConversationsPayload{Conversations: convs})
}

// Open handles POST /api/v1/conversations/{type}/{id}/open
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	convType := chi.URLParam(r, "type")
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationType(convType); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateID(convType, id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sel := model.Selection{Type: model.ConversationType(convType), Target: model.NewRef(id)}
	msgs, err := h.session.Open(r.Context(), sel)
	if err != nil {
		h.logger.Warn("open conversation failed", zap.Error(err), zap.String("target_id", id))
		writeServiceError(w, err, "failed to load messages")
		return
	}

	if current := h.session.Snapshot().Selection; current != nil && current.Same(sel) {
		sel = *current
	}
	writeJSON(w, http.StatusOK, model.OpenResponse{Selection: sel, Messages: msgs})
}

// Send handles POST /api/v1/messages
func (h *SessionHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req model.PostMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageBody(req.Body, len(req.Attachments)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.session.Send(r.Context(), req.Body, req.Attachments)
	if err != nil {
		writeServiceError(w, err, "failed to send message")
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// Edit handles PUT /api/v1/messages/{id}
func (h *SessionHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID("message", id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.EditMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageBody(req.Body, 0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.session.Edit(r.Context(), id, req.Body)
	if err != nil {
		writeServiceError(w, err, "failed to edit message")
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

// Delete handles DELETE /api/v1/messages/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID("message", id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.session.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, "failed to delete message")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetReply handles PUT /api/v1/reply
func (h *SessionHandler) SetReply(w http.ResponseWriter, r *http.Request) {
	var req model.ReplyTargetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateID("message", req.MessageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.session.SetReplyTarget(r.Context(), req.MessageID); err != nil {
		writeServiceError(w, err, "failed to set reply target")
		return
	}

	writeJSON(w, http.StatusOK, h.session.Snapshot().Reply)
}

// CancelReply handles DELETE /api/v1/reply
func (h *SessionHandler) CancelReply(w http.ResponseWriter, r *http.Request) {
	h.session.CancelReply(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
