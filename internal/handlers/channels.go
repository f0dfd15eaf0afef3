package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/uniconnect/uniconnect/internal/api/middleware"
	"github.com/uniconnect/uniconnect/internal/metrics"
	"github.com/uniconnect/uniconnect/internal/models"
)

// ChannelInfo represents a channel in the list response.
type ChannelInfo struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	Type           string  `json:"type"`
	Scope          string  `json:"scope"`
	SubjectName    *string `json:"subject_name,omitempty"`
	OrganizationID *int64  `json:"organization_id,omitempty"`
}

// ChannelListResponse represents the channels list response.
type ChannelListResponse struct {
	Channels []ChannelInfo `json:"channels"`
	Total    int           `json:"total"`
}

// ListChannels returns every channel ordered by name. Clients filter
// visibility (campus, subject, global sections) against their organization.
func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.db.ListChannels(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("channel listing failed")
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	infos := make([]ChannelInfo, len(channels))
	for i, ch := range channels {
		infos[i] = ChannelInfo{
			ID:             ch.ID,
			Name:           ch.Name,
			Description:    ch.Description,
			Type:           string(ch.Type),
			Scope:          string(ch.Scope),
			SubjectName:    ch.SubjectName,
			OrganizationID: ch.OrganizationID,
		}
	}

	h.JSON(w, http.StatusOK, ChannelListResponse{
		Channels: infos,
		Total:    len(infos),
	})
}

// MemberCountResponse represents the member count response.
type MemberCountResponse struct {
	ChannelID int64 `json:"channel_id"`
	Count     int64 `json:"count"`
}

// MemberCount returns how many users have joined a channel. Counts are cached
// briefly in Redis since the chat header polls this on every channel switch.
func (h *Handler) MemberCount(w http.ResponseWriter, r *http.Request) {
	channelID, ok := channelIDParam(r)
	if !ok {
		h.Error(w, http.StatusBadRequest, "invalid channel ID")
		return
	}

	if h.redis != nil {
		if count, ok := h.redis.GetMemberCount(r.Context(), channelID); ok {
			h.JSON(w, http.StatusOK, MemberCountResponse{ChannelID: channelID, Count: count})
			return
		}
	}

	count, err := h.db.CountChannelMembers(r.Context(), channelID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	if h.redis != nil {
		h.redis.SetMemberCount(r.Context(), channelID, count)
	}

	h.JSON(w, http.StatusOK, MemberCountResponse{ChannelID: channelID, Count: count})
}

// JoinChannelRequest is the (optional) join request body. Only study groups
// carry a join code; for other channel types the body may be empty.
type JoinChannelRequest struct {
	Code string `json:"code,omitempty"`
}

// JoinChannelResponse reports whether a new membership row was created.
type JoinChannelResponse struct {
	ChannelID int64 `json:"channel_id"`
	Joined    bool  `json:"joined"`
}

// JoinChannel records channel membership (authenticated). The unique
// constraint on (channel, user) makes repeat joins no-ops, so clients may
// fire this without tracking state precisely.
func (h *Handler) JoinChannel(w http.ResponseWriter, r *http.Request) {
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

	// Study groups are invite-gated by a join code, verified against the
	// stored bcrypt hash.
	if channel.Type == models.ChannelStudyGroup {
		var req JoinChannelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			h.Error(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Code == "" {
			h.Error(w, http.StatusForbidden, "join code required for study groups")
			return
		}

		codeHash, err := h.db.GetChannelJoinCodeHash(r.Context(), channelID)
		if err != nil {
			h.Error(w, http.StatusInternalServerError, "database error")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(codeHash), []byte(req.Code)); err != nil {
			h.Error(w, http.StatusForbidden, "invalid join code")
			return
		}
	}

	created, err := h.db.JoinChannel(r.Context(), channelID, userID)
	if err != nil {
		h.logger.Error().Err(err).Int64("channel_id", channelID).Msg("join failed")
		h.Error(w, http.StatusInternalServerError, "failed to join channel")
		return
	}

	if created {
		metrics.ChannelJoins.WithLabelValues("created").Inc()
		if h.redis != nil {
			h.redis.InvalidateMemberCount(r.Context(), channelID)
		}
	} else {
		metrics.ChannelJoins.WithLabelValues("duplicate").Inc()
	}

	h.JSON(w, http.StatusOK, JoinChannelResponse{
		ChannelID: channelID,
		Joined:    created,
	})
}

// MembershipsResponse lists the channel ids the caller has joined.
type MembershipsResponse struct {
	ChannelIDs []int64 `json:"channel_ids"`
}

// ListMemberships returns the caller's joined channel ids (authenticated).
// Clients use it to seed the known-joined set and skip redundant join calls.
func (h *Handler) ListMemberships(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ids, err := h.db.ListJoinedChannelIDs(r.Context(), userID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if ids == nil {
		ids = []int64{}
	}

	h.JSON(w, http.StatusOK, MembershipsResponse{ChannelIDs: ids})
}
