package handlers

import (
	"net/http"

	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/domain"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/internal/service"
	"github.com/atsmith2k/AshtonCheyenneWedding-sub000/pkg/logger"
)

// ValidateCode handles invitation code submission from the landing page
func (h *Handlers) ValidateCode(w http.ResponseWriter, r *http.Request) {
	var req domain.CodeValidationRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	response, err := h.invitationService.ValidateCode(r.Context(), req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// RecoverInvitation always answers 200 with the same message. The response is
// written from a deferred call so that early returns and panics take the same
// path as success.
func (h *Handlers) RecoverInvitation(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorContext(r.Context(), "Panic during invitation recovery", "panic", rec)
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": service.RecoveryAck})
	}()

	var req domain.RecoveryRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		logger.DebugContext(r.Context(), "Recovery request with unreadable body", "error", err)
		return
	}

	// Outcome is logged by the service and must not shape the response.
	_ = h.recoveryService.RecoverInvitation(r.Context(), req.Email)
}

// Me returns a fresh snapshot for the session's guest
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	guest := sessionGuest(r)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"guest": guest.Snapshot(),
	})
}

func (h *Handlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.AdminLoginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	session, err := h.adminService.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}
