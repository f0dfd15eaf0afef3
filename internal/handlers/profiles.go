package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/uniconnect/uniconnect/internal/metrics"
)

// At most this many ids per batch resolve; one chat screen never needs more.
const maxResolveIDs = 200

// ResolveProfilesRequest is the batch profile resolve request.
type ResolveProfilesRequest struct {
	IDs []string `json:"ids"`
}

// ResolveProfilesResponse maps profile id to display name. Unknown ids are
// absent; callers substitute their own placeholder.
type ResolveProfilesResponse struct {
	Profiles map[string]string `json:"profiles"`
}

// ResolveProfiles resolves sender ids to display names in one round trip.
func (h *Handler) ResolveProfiles(w http.ResponseWriter, r *http.Request) {
	var req ResolveProfilesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.IDs) == 0 {
		h.Error(w, http.StatusBadRequest, "ids is required")
		return
	}
	if len(req.IDs) > maxResolveIDs {
		h.Error(w, http.StatusUnprocessableEntity, "too many ids (max 200)")
		return
	}

	ids := make([]uuid.UUID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.Error(w, http.StatusBadRequest, "invalid profile ID: "+raw)
			return
		}
		ids = append(ids, id)
	}

	names, err := h.db.ResolveProfiles(r.Context(), ids)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	metrics.ProfileResolves.Inc()

	resp := ResolveProfilesResponse{Profiles: make(map[string]string, len(names))}
	for id, name := range names {
		resp.Profiles[id.String()] = name
	}
	h.JSON(w, http.StatusOK, resp)
}

// ProfileResponse represents a single profile.
type ProfileResponse struct {
	ID             string `json:"id"`
	FullName       string `json:"full_name"`
	OrganizationID *int64 `json:"organization_id,omitempty"`
}

// GetProfile returns one profile. The chat client uses it to find the
// caller's organization affiliation.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid profile ID format")
		return
	}

	profile, err := h.db.GetProfile(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if profile == nil {
		h.Error(w, http.StatusNotFound, "profile not found")
		return
	}

	h.JSON(w, http.StatusOK, ProfileResponse{
		ID:             profile.ID.String(),
		FullName:       profile.FullName,
		OrganizationID: profile.OrganizationID,
	})
}
