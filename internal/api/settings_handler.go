package api

import (
	"net/http"

	"parkeaya-panel/internal/auth"
	"parkeaya-panel/internal/entities"
	apperrors "parkeaya-panel/internal/errors"
	"parkeaya-panel/internal/service"
)

type SettingsHandler struct {
	Service *service.SettingsService
}

func NewSettingsHandler(svc *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{Service: svc}
}

func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.GetSettings(r.Context(), auth.TokenFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SettingsHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.Service.SaveSettings(r.Context(), auth.TokenFromContext(r.Context()), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SettingsHandler) UpdateVisibility(w http.ResponseWriter, r *http.Request) {
	var req entities.VisibilityUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.IsVisible == nil {
		writeError(w, apperrors.Validation("isVisible is required"))
		return
	}
	res, err := h.Service.UpdateVisibility(r.Context(), auth.TokenFromContext(r.Context()), *req.IsVisible)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SettingsHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.TestConnection(r.Context(), auth.TokenFromContext(r.Context())))
}
