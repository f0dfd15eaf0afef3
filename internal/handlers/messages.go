package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/uniconnect/uniconnect/internal/api/middleware"
	"github.com/uniconnect/uniconnect/internal/metrics"
)

const maxMessageBytes = 4096

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID        int64     `json:"id"`
	ChannelID int64     `json:"channel_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageListResponse represents the channel messages response.
type MessageListResponse struct {
	ChannelID int64             `json:"channel_id"`
	Messages  []MessageResponse `json:"messages"`
}

// ListMessages returns a channel's messages: soft-deletes excluded, ascending
// by creation time. Sender names are not denormalized here; clients resolve
// them through the batch profile endpoint.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	channelID, ok := channelIDParam(r)
	if !ok {
		h.Error(w, http.StatusBadRequest, "invalid channel ID")
		return
	}

	channel, err := h.db.GetChannel(r.Context(), channelID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if channel == nil {
		h.Error(w, http.StatusNotFound, "channel not found")
		return
	}

	messages, err := h.db.ListChannelMessages(r.Context(), channelID)
	if err != nil {
		h.logger.Error().Err(err).Int64("channel_id", channelID).Msg("message listing failed")
		h.Error(w, http.StatusInternalServerError, "failed to fetch messages")
		return
	}

	resp := MessageListResponse{
		ChannelID: channelID,
		Messages:  make([]MessageResponse, len(messages)),
	}
	for i, msg := range messages {
		resp.Messages[i] = MessageResponse{
			ID:        msg.ID,
			ChannelID: msg.ChannelID,
			SenderID:  msg.SenderID.String(),
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		}
	}

	h.JSON(w, http.StatusOK, resp)
}

// PostMessageRequest represents the post message request.
type PostMessageRequest struct {
	Content string `json:"content"`
}

// PostMessageResponse represents the post message response.
type PostMessageResponse struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// PostMessage stores a message in a channel (authenticated) and publishes an
// insert notification so subscribed viewers reload.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	channelID, ok := channelIDParam(r)
	if !ok {
		h.Error(w, http.StatusBadRequest, "invalid channel ID")
		return
	}

	channel, err := h.db.GetChannel(r.Context(), channelID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if channel == nil {
		h.Error(w, http.StatusNotFound, "channel not found")
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		h.Error(w, http.StatusBadRequest, "content is required")
		return
	}
	if len(content) > maxMessageBytes {
		h.Error(w, http.StatusUnprocessableEntity, "content too long (max 4096 bytes)")
		return
	}

	msg, err := h.db.CreateMessage(r.Context(), channelID, userID, content)
	if err != nil {
		h.logger.Error().Err(err).Int64("channel_id", channelID).Msg("message insert failed")
		h.Error(w, http.StatusInternalServerError, "failed to store message")
		return
	}

	metrics.MessagesPosted.WithLabelValues(string(channel.Type)).Inc()

	// Delivery to viewers rides on the notification; a publish failure means
	// a stale view until the next event, not a lost message.
	if err := h.notifier.NotifyInsert(r.Context(), channelID, msg.ID); err != nil {
		h.logger.Warn().Err(err).Int64("channel_id", channelID).Msg("insert notification failed")
	}

	h.JSON(w, http.StatusCreated, PostMessageResponse{
		ID:        msg.ID,
		CreatedAt: msg.CreatedAt,
	})
}
