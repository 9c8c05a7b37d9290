package api

import (
	"net/http"

	"parkeaya-panel/internal/auth"
	"parkeaya-panel/internal/entities"
	"parkeaya-panel/internal/service"
)

type RegistrationHandler struct {
	Service *service.RegistrationService
}

func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{Service: svc}
}

// SaveAndRegister stores the posted settings and submits them for approval.
// When the submission fails after saving, the saved settings are still
// returned alongside the failed request.
func (h *RegistrationHandler) SaveAndRegister(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	saved, req, err := h.Service.SaveAndRegister(r.Context(), auth.TokenFromContext(r.Context()), payload)
	if saved == nil || req == nil {
		writeError(w, err)
		return
	}
	submission, status := submissionResponse(req, err)
	writeJSON(w, status, entities.RegistrationResult{Settings: saved, Submission: submission})
}
