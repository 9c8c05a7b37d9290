package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"parkeaya-panel/internal/auth"
	"parkeaya-panel/internal/db"
	"parkeaya-panel/internal/entities"
	apperrors "parkeaya-panel/internal/errors"
	"parkeaya-panel/internal/service"
)

type ApprovalHandler struct {
	Service *service.ApprovalService
}

func NewApprovalHandler(svc *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{Service: svc}
}

// SubmitApproval registers the posted parking configuration with the remote
// backend as a new approval request.
func (h *ApprovalHandler) SubmitApproval(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	req, err := h.Service.Submit(r.Context(), auth.TokenFromContext(r.Context()), payload)
	writeSubmission(w, req, err)
}

func (h *ApprovalHandler) Resubmit(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["requestId"]
	req, err := h.Service.Resubmit(r.Context(), auth.TokenFromContext(r.Context()), requestID)
	writeSubmission(w, req, err)
}

// writeSubmission reports the stage a submission reached. A failed remote
// call still names the local request so the owner can retry it.
func writeSubmission(w http.ResponseWriter, req *db.ApprovalRequest, err error) {
	if req == nil {
		writeError(w, err)
		return
	}
	resp, status := submissionResponse(req, err)
	writeJSON(w, status, resp)
}

func submissionResponse(req *db.ApprovalRequest, err error) (entities.SubmissionResponse, int) {
	resp := entities.SubmissionResponse{
		RequestID: req.ID,
		Status:    req.Status,
		Stage:     req.Stage,
		DjangoID:  req.RemoteID,
	}
	if err != nil {
		resp.Error = err.Error()
		return resp, apperrors.StatusCode(err)
	}
	resp.Success = true
	resp.Message = "approval request sent to Parkea"
	return resp, http.StatusCreated
}

func (h *ApprovalHandler) ListApprovalRequests(w http.ResponseWriter, r *http.Request) {
	views, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *ApprovalHandler) RemoteApprovalRequests(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.RemoteHistory(r.Context(), auth.TokenFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ApprovalHandler) ApprovalStatus(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["requestId"]
	view, err := h.Service.Reconcile(r.Context(), auth.TokenFromContext(r.Context()), requestID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *ApprovalHandler) LatestApprovalStatus(w http.ResponseWriter, r *http.Request) {
	latest, err := h.Service.LatestRemoteStatus(r.Context(), auth.TokenFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, latest)
}
