package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"parkeaya-panel/internal/entities"
	apperrors "parkeaya-panel/internal/errors"
	"parkeaya-panel/internal/logger"
	"parkeaya-panel/internal/service"
)

const SignatureHeader = "X-Parkea-Signature"

// ApprovalWebhookHandler receives approval decisions pushed by the remote
// backend.
type ApprovalWebhookHandler struct {
	Secret  string
	Service *service.ApprovalService
}

func NewApprovalWebhookHandler(secret string, svc *service.ApprovalService) *ApprovalWebhookHandler {
	return &ApprovalWebhookHandler{Secret: secret, Service: svc}
}

func (h *ApprovalWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxWebhookBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Warn("Error reading webhook body", "error", err)
		writeError(w, apperrors.Validation("unreadable body"))
		return
	}

	if h.Secret != "" && !validSignature(payload, r.Header.Get(SignatureHeader), h.Secret) {
		logger.Warn("Webhook signature verification failed", "remote_addr", r.RemoteAddr)
		writeError(w, apperrors.New(apperrors.KindUnauthorized, "invalid signature"))
		return
	}

	var update entities.ApprovalUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		writeError(w, apperrors.Validation("invalid webhook body"))
		return
	}

	req, err := h.Service.ApplyRemoteUpdate(r.Context(), update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"request_id": req.ID,
		"status":     req.Status,
	})
}

// validSignature checks a hex HMAC-SHA256 of the body, with or without a
// "sha256=" prefix.
func validSignature(body []byte, header, secret string) bool {
	given, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(header), "sha256="))
	if err != nil || len(given) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(given, mac.Sum(nil))
}
