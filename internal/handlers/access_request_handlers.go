package handlers

import (
	"net/http"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// SubmitAccessRequest handles the public "request an invitation" form
func (h *Handlers) SubmitAccessRequest(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAccessRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	ar, err := h.accessRequestService.Submit(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, domain.AccessRequestCreated{
		Message: "Thank you! Your request has been received and will be reviewed shortly.",
		ID:      ar.ID,
		Status:  ar.Status,
	})
}

func (h *Handlers) ListAccessRequests(w http.ResponseWriter, r *http.Request) {
	var status *domain.AccessRequestStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s, ok := domain.ParseAccessRequestStatus(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid status filter", "INVALID_INPUT")
			return
		}
		status = &s
	}
	limit, offset := parsePagination(r)

	requests, err := h.accessRequestService.List(r.Context(), status, limit, offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handlers) ApproveAccessRequest(w http.ResponseWriter, r *http.Request) {
	id, req, ok := h.decisionInput(w, r)
	if !ok {
		return
	}

	result, err := h.accessRequestService.Approve(r.Context(), id, getClaims(r).Email, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) DenyAccessRequest(w http.ResponseWriter, r *http.Request) {
	id, req, ok := h.decisionInput(w, r)
	if !ok {
		return
	}

	denied, err := h.accessRequestService.Deny(r.Context(), id, getClaims(r).Email, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"request": denied})
}

func (h *Handlers) decisionInput(w http.ResponseWriter, r *http.Request) (string, *domain.DecideAccessRequest, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, "Access request not found", "NOT_FOUND")
		return "", nil, false
	}

	var req domain.DecideAccessRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return "", nil, false
	}
	return id, &req, true
}
