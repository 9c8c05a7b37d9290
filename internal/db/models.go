package db

import "time"

// ParkingConfig is the panel's view of one parking lot.
type ParkingConfig struct {
	ID                 string   `json:"id,omitempty"`
	Name               string   `json:"name"`
	Address            string   `json:"address"`
	TotalSpaces        int      `json:"totalSpaces"`
	AvailableSpaces    int      `json:"availableSpaces"`
	HourlyRate         float64  `json:"hourlyRate"`
	IsVisible          bool     `json:"isVisible"`
	Description        string   `json:"description"`
	ImageURL           string   `json:"imageUrl,omitempty"`
	Owner              int64    `json:"owner,omitempty"`
	Phone              string   `json:"phone,omitempty"`
	Coordinates        string   `json:"coordinates,omitempty"`
	OpeningTime        string   `json:"openingTime,omitempty"`
	ClosingTime        string   `json:"closingTime,omitempty"`
	SecurityLevel      string   `json:"securityLevel,omitempty"`
	Services           []string `json:"services,omitempty"`
	AdminNotes         string   `json:"adminNotes,omitempty"`
	RegistrationStatus string   `json:"registrationStatus,omitempty"`
}

// Clone returns a deep copy.
func (p ParkingConfig) Clone() ParkingConfig {
	if p.Services != nil {
		p.Services = append([]string(nil), p.Services...)
	}
	return p
}

type ApprovalStatus string

const (
	StatusPending         ApprovalStatus = "PENDING"
	StatusApproved        ApprovalStatus = "APPROVED"
	StatusRejected        ApprovalStatus = "REJECTED"
	StatusCreatedInDjango ApprovalStatus = "CREATED_IN_DJANGO"
	StatusPendingLocal    ApprovalStatus = "PENDING_LOCAL"
	StatusNotRegistered   ApprovalStatus = "NOT_REGISTERED"
)

// Stage is the position of an approval request in the submission workflow.
type Stage string

const (
	StageSubmitted  Stage = "SUBMITTED"
	StageCreated    Stage = "CREATED"
	StageRejected   Stage = "REJECTED"
	StageErrorLocal Stage = "ERROR_LOCAL"
)

type ApprovalRequest struct {
	ID              string         `json:"requestId"`
	Parking         ParkingConfig  `json:"parking"`
	Status          ApprovalStatus `json:"status"`
	Stage           Stage          `json:"stage"`
	SubmittedAt     time.Time      `json:"submittedAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	RemoteID        string         `json:"djangoId,omitempty"`
	AdminNotes      string         `json:"adminNotes,omitempty"`
	RejectionReason string         `json:"rejectionReason,omitempty"`
	RemoteError     string         `json:"remoteError,omitempty"`
}

// DjangoConnected reports whether the remote backend acknowledged the request.
func (a *ApprovalRequest) DjangoConnected() bool {
	return a.RemoteID != ""
}

// Session binds a browser to the bearer token the remote backend issued.
type Session struct {
	ID        string
	Token     string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Clone returns a deep copy so callers never share the stored record.
func (a *ApprovalRequest) Clone() *ApprovalRequest {
	if a == nil {
		return nil
	}
	c := *a
	c.Parking = a.Parking.Clone()
	return &c
}
