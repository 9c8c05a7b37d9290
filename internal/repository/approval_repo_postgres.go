package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"parkeaya-panel/internal/db"
	apperrors "parkeaya-panel/internal/errors"
)

const approvalSchema = `
CREATE TABLE IF NOT EXISTS approval_requests (
	seq              BIGSERIAL UNIQUE,
	id               TEXT PRIMARY KEY,
	remote_id        TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL,
	stage            TEXT NOT NULL,
	parking          JSONB NOT NULL,
	admin_notes      TEXT NOT NULL DEFAULT '',
	rejection_reason TEXT NOT NULL DEFAULT '',
	remote_error     TEXT NOT NULL DEFAULT '',
	submitted_at     TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS approval_requests_remote_id_idx ON approval_requests (remote_id);
`

const approvalColumns = `id, remote_id, status, stage, parking, admin_notes, rejection_reason, remote_error, submitted_at, updated_at`

// PostgresApprovalRepository persists approval requests so they survive a
// restart of the panel.
type PostgresApprovalRepository struct {
	DB *sql.DB
}

func NewPostgresApprovalRepository(db *sql.DB) *PostgresApprovalRepository {
	return &PostgresApprovalRepository{DB: db}
}

// EnsureSchema creates the table when it does not exist yet.
func (r *PostgresApprovalRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, approvalSchema); err != nil {
		return fmt.Errorf("error creating approval_requests schema: %w", err)
	}
	return nil
}

func (r *PostgresApprovalRepository) Create(ctx context.Context, req *db.ApprovalRequest) error {
	parking, err := json.Marshal(req.Parking)
	if err != nil {
		return apperrors.Internal("error encoding parking snapshot", err)
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO approval_requests (`+approvalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		req.ID, req.RemoteID, string(req.Status), string(req.Stage), parking,
		req.AdminNotes, req.RejectionReason, req.RemoteError, req.SubmittedAt, req.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apperrors.Internal("approval request "+req.ID+" already exists", err)
		}
		return apperrors.Internal("error inserting approval request", err)
	}
	return nil
}

func (r *PostgresApprovalRepository) Get(ctx context.Context, id string) (*db.ApprovalRequest, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+approvalColumns+` FROM approval_requests WHERE id = $1`, id)
	req, err := scanApproval(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("approval request not found: " + id)
	}
	return req, err
}

func (r *PostgresApprovalRepository) FindByRemoteID(ctx context.Context, remoteID string) (*db.ApprovalRequest, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+approvalColumns+` FROM approval_requests WHERE remote_id = $1 AND remote_id <> '' ORDER BY seq LIMIT 1`, remoteID)
	req, err := scanApproval(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("no approval request with remote id " + remoteID)
	}
	return req, err
}

// Update locks the row for the duration of mutate.
func (r *PostgresApprovalRepository) Update(ctx context.Context, id string, mutate func(*db.ApprovalRequest) error) (*db.ApprovalRequest, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.Internal("error starting transaction", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+approvalColumns+` FROM approval_requests WHERE id = $1 FOR UPDATE`, id)
	req, err := scanApproval(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("approval request not found: " + id)
	}
	if err != nil {
		return nil, err
	}

	if err := mutate(req); err != nil {
		return nil, err
	}
	req.ID = id

	parking, err := json.Marshal(req.Parking)
	if err != nil {
		return nil, apperrors.Internal("error encoding parking snapshot", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE approval_requests
		SET remote_id = $2, status = $3, stage = $4, parking = $5, admin_notes = $6,
		    rejection_reason = $7, remote_error = $8, updated_at = $9
		WHERE id = $1`,
		id, req.RemoteID, string(req.Status), string(req.Stage), parking,
		req.AdminNotes, req.RejectionReason, req.RemoteError, req.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.Internal("error updating approval request", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal("error committing approval request", err)
	}
	return req, nil
}

func (r *PostgresApprovalRepository) List(ctx context.Context) ([]*db.ApprovalRequest, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+approvalColumns+` FROM approval_requests ORDER BY seq`)
	if err != nil {
		return nil, apperrors.Internal("error querying approval requests", err)
	}
	defer rows.Close()

	var out []*db.ApprovalRequest
	for rows.Next() {
		req, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal("error after iterating approval requests", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApproval(row rowScanner) (*db.ApprovalRequest, error) {
	var (
		req            db.ApprovalRequest
		status, stage  string
		parkingPayload []byte
	)
	err := row.Scan(
		&req.ID, &req.RemoteID, &status, &stage, &parkingPayload,
		&req.AdminNotes, &req.RejectionReason, &req.RemoteError, &req.SubmittedAt, &req.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, apperrors.Internal("error scanning approval request", err)
	}
	if err := json.Unmarshal(parkingPayload, &req.Parking); err != nil {
		return nil, apperrors.Internal("error decoding parking snapshot", err)
	}
	req.Status = db.ApprovalStatus(status)
	req.Stage = db.Stage(stage)
	return &req, nil
}
