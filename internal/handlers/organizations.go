package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// OrganizationResponse represents an organization.
type OrganizationResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	EmailDomain string `json:"email_domain"`
}

// GetOrganization resolves an organization id to its display name. Clients
// treat a failure here as non-fatal; the channel list renders either way.
func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.Error(w, http.StatusBadRequest, "invalid organization ID")
		return
	}

	org, err := h.db.GetOrganization(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if org == nil {
		h.Error(w, http.StatusNotFound, "organization not found")
		return
	}

	h.JSON(w, http.StatusOK, OrganizationResponse{
		ID:          org.ID,
		Name:        org.Name,
		EmailDomain: org.EmailDomain,
	})
}
