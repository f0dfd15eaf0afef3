package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/uniconnect/uniconnect/internal/store"
)

// InsertNotifier publishes a notification after a message insert. Implemented
// by realtime.Notifier; tests substitute a fake.
type InsertNotifier interface {
	NotifyInsert(ctx context.Context, channelID, messageID int64) error
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	db       store.DataStore
	redis    *store.RedisStore
	notifier InsertNotifier
	logger   zerolog.Logger
}

// NewHandler creates a new Handler with the given stores. redis may be nil in
// single-instance development mode.
func NewHandler(db store.DataStore, redis *store.RedisStore, notifier InsertNotifier, logger zerolog.Logger) *Handler {
	return &Handler{db: db, redis: redis, notifier: notifier, logger: logger}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// channelIDParam parses the {id} URL parameter.
func channelIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
