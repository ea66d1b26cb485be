package handlers

import (
	"net/http"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/domain"
)

// SubmitRSVP records the session guest's RSVP
func (h *Handlers) SubmitRSVP(w http.ResponseWriter, r *http.Request) {
	guest := sessionGuest(r)

	var req domain.RSVPRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	snapshot, err := h.rsvpService.Submit(r.Context(), guest.ID, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Thank you! Your RSVP has been saved.",
		"guest":   snapshot,
	})
}

// CreatePhotoUploadURL issues a presigned upload URL for a guest photo
func (h *Handlers) CreatePhotoUploadURL(w http.ResponseWriter, r *http.Request) {
	guest := sessionGuest(r)

	var req domain.PhotoUploadRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	resp, err := h.photoService.CreateUploadURL(r.Context(), guest.ID, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
