package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"parkeaya-panel/internal/db"
	"parkeaya-panel/internal/entities"
	apperrors "parkeaya-panel/internal/errors"
	"parkeaya-panel/internal/logger"
	"parkeaya-panel/internal/metrics"
	"parkeaya-panel/internal/remote"
	"parkeaya-panel/internal/repository"
	"parkeaya-panel/internal/utils"
)

// ApprovalRemote is the part of the remote client the approval workflow uses.
type ApprovalRemote interface {
	CreateApprovalRequest(ctx context.Context, token string, payload entities.ApprovalPayload) (*entities.RemoteApprovalRequest, error)
	GetApprovalRequest(ctx context.Context, token, remoteID string) (*entities.RemoteApprovalRequest, error)
	ListApprovalRequests(ctx context.Context, token string) ([]entities.RemoteApprovalRequest, error)
}

// ApprovalNotifier is told when the remote backend decides on a request.
type ApprovalNotifier interface {
	ApprovalUpdated(req db.ApprovalRequest)
}

type ApprovalService struct {
	Repo     repository.ApprovalRepository
	Remote   ApprovalRemote
	Retrier  *remote.Retrier
	Notifier ApprovalNotifier
	PanelID  string

	now   func() time.Time
	newID func() string
}

func NewApprovalService(repo repository.ApprovalRepository, client ApprovalRemote, retrier *remote.Retrier, notifier ApprovalNotifier, panelID string) *ApprovalService {
	return &ApprovalService{
		Repo:     repo,
		Remote:   client,
		Retrier:  retrier,
		Notifier: notifier,
		PanelID:  panelID,
		now:      time.Now,
		newID:    func() string { return "REQ_" + uuid.NewString() },
	}
}

// Submit validates the payload, records a new approval request and sends it
// to the remote backend. The returned record reflects the final stage even
// when an error is returned alongside it; a validation failure returns no
// record and makes no remote call.
func (s *ApprovalService) Submit(ctx context.Context, token string, payload map[string]any) (*db.ApprovalRequest, error) {
	draft := utils.DraftFromPayload(payload)
	if err := validateParking(draft.Parking, draft.HasTotalSpaces); err != nil {
		metrics.RecordApprovalSubmission("invalid")
		return nil, err
	}
	return s.submitSnapshot(ctx, token, draft.Parking)
}

// SubmitParking sends an already built configuration for approval, such as
// the saved panel settings.
func (s *ApprovalService) SubmitParking(ctx context.Context, token string, parking db.ParkingConfig) (*db.ApprovalRequest, error) {
	if err := validateParking(parking, true); err != nil {
		metrics.RecordApprovalSubmission("invalid")
		return nil, err
	}
	return s.submitSnapshot(ctx, token, parking)
}

// Resubmit sends the snapshot of an earlier request again as a new,
// independent request.
func (s *ApprovalService) Resubmit(ctx context.Context, token, requestID string) (*db.ApprovalRequest, error) {
	prev, err := s.Repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := validateParking(prev.Parking, true); err != nil {
		return nil, err
	}
	logger.Info("resubmitting approval request", "previous_request_id", requestID)
	return s.submitSnapshot(ctx, token, prev.Parking)
}

func (s *ApprovalService) submitSnapshot(ctx context.Context, token string, parking db.ParkingConfig) (*db.ApprovalRequest, error) {
	now := s.now()
	record := &db.ApprovalRequest{
		ID:          s.newID(),
		Parking:     parking.Clone(),
		Status:      db.StatusPending,
		Stage:       db.StageSubmitted,
		SubmittedAt: now,
		UpdatedAt:   now,
		AdminNotes:  parking.AdminNotes,
	}
	if err := s.Repo.Create(ctx, record); err != nil {
		return nil, err
	}
	logger.Info("approval request submitted", "request_id", record.ID, "parking", parking.Name)

	payload := utils.ToRemoteApproval(record.Parking, s.PanelID, now)
	created, sendErr := remote.Retry(ctx, s.Retrier, "create_approval_request",
		func(ctx context.Context) (*entities.RemoteApprovalRequest, error) {
			return s.Remote.CreateApprovalRequest(ctx, token, payload)
		})

	// An unreadable or id-less 2xx answer means the remote side may hold the
	// request already, so it is kept as ERROR_LOCAL rather than resent.
	resultErr := sendErr
	if sendErr == nil && (created == nil || created.ID == "") {
		resultErr = apperrors.New(apperrors.KindBadResponse,
			"remote backend accepted the request without returning an id; it may already exist remotely")
	}

	// The outcome is recorded even when the caller has gone away.
	storeCtx := context.WithoutCancel(ctx)
	updated, err := s.Repo.Update(storeCtx, record.ID, func(r *db.ApprovalRequest) error {
		r.UpdatedAt = s.now()
		switch {
		case resultErr == nil:
			r.Stage = db.StageCreated
			r.Status = db.StatusCreatedInDjango
			r.RemoteID = created.ID.String()
		case apperrors.KindOf(resultErr) == apperrors.KindBadRequest:
			r.Stage = db.StageRejected
			r.Status = db.StatusRejected
			r.RejectionReason = resultErr.Error()
		default:
			r.Stage = db.StageErrorLocal
			r.Status = db.StatusPendingLocal
			r.RemoteError = resultErr.Error()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordApprovalSubmission(string(updated.Stage))
	if resultErr != nil {
		logger.Warn("approval request not created remotely", "request_id", updated.ID, "stage", updated.Stage, "error", resultErr)
	} else {
		logger.Info("approval request created remotely", "request_id", updated.ID, "remote_id", updated.RemoteID)
	}
	return updated, resultErr
}

// Reconcile refreshes the status of a local request from the remote backend.
// Requests that never reached the remote side report NOT_REGISTERED without
// any network call.
func (s *ApprovalService) Reconcile(ctx context.Context, token, requestID string) (*entities.ApprovalStatusView, error) {
	rec, err := s.Repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	view := &entities.ApprovalStatusView{
		RequestID:       rec.ID,
		RemoteID:        rec.RemoteID,
		Stage:           rec.Stage,
		DjangoConnected: rec.DjangoConnected(),
		CheckedAt:       s.now(),
	}
	if rec.RemoteID == "" {
		view.Status = db.StatusNotRegistered
		view.Message = "request was never registered on the remote backend"
		return view, nil
	}

	remoteReq, err := remote.Retry(ctx, s.Retrier, "get_approval_request",
		func(ctx context.Context) (*entities.RemoteApprovalRequest, error) {
			return s.Remote.GetApprovalRequest(ctx, token, rec.RemoteID)
		})
	if apperrors.KindOf(err) == apperrors.KindNotFound {
		view.Status = rec.Status
		view.RejectionReason = rec.RejectionReason
		view.Message = "request not found on the remote backend"
		return view, nil
	}
	if err != nil {
		return nil, err
	}

	status, reason := utils.RemoteApprovalStatus(*remoteReq)
	updated, err := s.Repo.Update(context.WithoutCancel(ctx), rec.ID, func(r *db.ApprovalRequest) error {
		r.Status = status
		if status == db.StatusRejected {
			r.RejectionReason = reason
		}
		r.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	view.Status = updated.Status
	view.RemoteFound = true
	view.RejectionReason = updated.RejectionReason
	return view, nil
}

// List returns every local request in submission order.
func (s *ApprovalService) List(ctx context.Context) ([]entities.ApprovalRequestView, error) {
	records, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]entities.ApprovalRequestView, 0, len(records))
	for _, r := range records {
		views = append(views, entities.NewApprovalRequestView(r))
	}
	return views, nil
}

// RemoteHistory lists the remote approval requests filed by this panel.
func (s *ApprovalService) RemoteHistory(ctx context.Context, token string) ([]entities.RemoteApprovalRequest, error) {
	all, err := remote.Retry(ctx, s.Retrier, "list_approval_requests",
		func(ctx context.Context) ([]entities.RemoteApprovalRequest, error) {
			return s.Remote.ListApprovalRequests(ctx, token)
		})
	if err != nil {
		return nil, err
	}

	mine := make([]entities.RemoteApprovalRequest, 0, len(all))
	for _, r := range all {
		if r.PanelLocalID == s.PanelID {
			mine = append(mine, r)
		}
	}
	return mine, nil
}

// LatestRemoteStatus reports the newest remote request for this panel. The
// remote backend lists newest first.
func (s *ApprovalService) LatestRemoteStatus(ctx context.Context, token string) (*entities.LatestRemoteStatus, error) {
	mine, err := s.RemoteHistory(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(mine) == 0 {
		return &entities.LatestRemoteStatus{Status: string(db.StatusNotRegistered)}, nil
	}

	latest := mine[0]
	status := strings.TrimSpace(latest.Status)
	folded, reason := utils.RemoteApprovalStatus(latest)
	if status == "" {
		status = string(folded)
	}
	return &entities.LatestRemoteStatus{
		Status:         status,
		RequestID:      latest.ID.String(),
		FechaSolicitud: latest.FechaSolicitud.String(),
		Motivo:         reason,
	}, nil
}

// ApplyRemoteUpdate records a decision pushed by the remote backend and
// notifies the owner. The request id may be the remote id or the local id of
// a request that was registered remotely.
func (s *ApprovalService) ApplyRemoteUpdate(ctx context.Context, update entities.ApprovalUpdate) (*db.ApprovalRequest, error) {
	id := update.RequestID.String()
	if id == "" {
		return nil, apperrors.Validation("request_id is required")
	}
	status, ok := utils.StatusFromWebhook(update.Estado)
	if !ok {
		return nil, apperrors.Validation("unknown approval status: " + update.Estado)
	}

	rec, err := s.Repo.FindByRemoteID(ctx, id)
	if apperrors.KindOf(err) == apperrors.KindNotFound {
		rec, err = s.Repo.Get(ctx, id)
		if err == nil && rec.RemoteID == "" {
			return nil, apperrors.NotFound("approval request " + id + " was never registered remotely")
		}
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.Repo.Update(ctx, rec.ID, func(r *db.ApprovalRequest) error {
		r.Status = status
		if status == db.StatusRejected {
			r.RejectionReason = update.Motivo
		}
		r.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("approval update received", "request_id", updated.ID, "remote_id", updated.RemoteID, "status", updated.Status)
	if s.Notifier != nil {
		s.Notifier.ApprovalUpdated(*updated.Clone())
	}
	return updated, nil
}
