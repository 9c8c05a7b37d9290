package entities

import (
	"time"

	"parkeaya-panel/internal/db"
)

// ApprovalRequestView is an approval request as listed to the owner.
type ApprovalRequestView struct {
	db.ApprovalRequest
	DjangoConnected bool `json:"djangoConnected"`
}

func NewApprovalRequestView(req *db.ApprovalRequest) ApprovalRequestView {
	return ApprovalRequestView{ApprovalRequest: *req.Clone(), DjangoConnected: req.DjangoConnected()}
}

// ApprovalStatusView is the answer to a reconciliation.
type ApprovalStatusView struct {
	RequestID       string            `json:"requestId"`
	RemoteID        string            `json:"djangoId,omitempty"`
	Status          db.ApprovalStatus `json:"status"`
	Stage           db.Stage          `json:"stage,omitempty"`
	RemoteFound     bool              `json:"remoteFound"`
	DjangoConnected bool              `json:"djangoConnected"`
	RejectionReason string            `json:"rejectionReason,omitempty"`
	Message         string            `json:"message,omitempty"`
	CheckedAt       time.Time         `json:"checkedAt"`
}

// LatestRemoteStatus is the most recent approval request the remote backend
// holds for this panel.
type LatestRemoteStatus struct {
	Status         string `json:"status"`
	RequestID      string `json:"request_id,omitempty"`
	FechaSolicitud string `json:"fecha_solicitud,omitempty"`
	Motivo         string `json:"motivo,omitempty"`
}

// ApprovalUpdate is the webhook body pushed by the remote backend.
type ApprovalUpdate struct {
	RequestID FlexString `json:"request_id"`
	Estado    string     `json:"estado"`
	Motivo    string     `json:"motivo"`
}

// SubmissionResponse is returned after a submission attempt.
type SubmissionResponse struct {
	Success   bool              `json:"success"`
	RequestID string            `json:"request_id"`
	Status    db.ApprovalStatus `json:"status"`
	Stage     db.Stage          `json:"stage"`
	DjangoID  string            `json:"django_id,omitempty"`
	Message   string            `json:"message,omitempty"`
	Error     string            `json:"error,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SessionInfo struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SettingsResult reports the saved settings and whether the remote copy was
// updated too.
type SettingsResult struct {
	Settings     db.ParkingConfig `json:"settings"`
	RemoteSynced bool             `json:"remoteSynced"`
	Source       string           `json:"source,omitempty"`
	Message      string           `json:"message,omitempty"`
	Warnings     []string         `json:"warnings,omitempty"`
}

type ConnectionStatus struct {
	Connected     bool   `json:"connected"`
	Authenticated bool   `json:"authenticated"`
	ParkingCount  int    `json:"parkingCount"`
	Message       string `json:"message"`
}

type AvailabilityUpdate struct {
	AvailableSpaces *int `json:"availableSpaces"`
}

type VisibilityUpdate struct {
	IsVisible *bool `json:"isVisible"`
}

// RegistrationResult is the answer to saving the settings and submitting
// them for approval in one step.
type RegistrationResult struct {
	Settings   *SettingsResult    `json:"local_config"`
	Submission SubmissionResponse `json:"approval_request"`
}
