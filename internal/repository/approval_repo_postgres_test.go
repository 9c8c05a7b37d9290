package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkeaya-panel/internal/db"
	apperrors "parkeaya-panel/internal/errors"
)

var approvalColumnNames = []string{
	"id", "remote_id", "status", "stage", "parking", "admin_notes",
	"rejection_reason", "remote_error", "submitted_at", "updated_at",
}

func newMockRepo(t *testing.T) (*PostgresApprovalRepository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewPostgresApprovalRepository(conn), mock
}

func parkingJSON(t *testing.T, p db.ParkingConfig) []byte {
	t.Helper()
	b, err := json.Marshal(p)
	require.NoError(t, err)
	return b
}

func TestPostgresCreateInsertsSnapshot(t *testing.T) {
	repo, mock := newMockRepo(t)
	req := newRequest("REQ_1")

	mock.ExpectExec(`INSERT INTO approval_requests`).
		WithArgs("REQ_1", "", "PENDING", "SUBMITTED", parkingJSON(t, req.Parking), "", "", "", req.SubmittedAt, req.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), req))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO approval_requests`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	err := repo.Create(context.Background(), newRequest("REQ_1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestPostgresGetNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .* FROM approval_requests WHERE id = \$1`).
		WithArgs("REQ_x").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "REQ_x")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPostgresListDecodesRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	p := db.ParkingConfig{Name: "Lot A", Address: "X", TotalSpaces: 10}

	rows := sqlmock.NewRows(approvalColumnNames).
		AddRow("REQ_1", "42", "CREATED_IN_DJANGO", "CREATED", parkingJSON(t, p), "", "", "", now, now).
		AddRow("REQ_2", "", "PENDING_LOCAL", "ERROR_LOCAL", parkingJSON(t, p), "", "", "timeout", now, now)
	mock.ExpectQuery(`SELECT .* FROM approval_requests ORDER BY seq`).WillReturnRows(rows)

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "42", list[0].RemoteID)
	assert.Equal(t, db.StageCreated, list[0].Stage)
	assert.Equal(t, "Lot A", list[0].Parking.Name)
	assert.Equal(t, db.StatusPendingLocal, list[1].Status)
	assert.Equal(t, "timeout", list[1].RemoteError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateLocksRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	p := db.ParkingConfig{Name: "Lot A", Address: "X", TotalSpaces: 10}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM approval_requests WHERE id = \$1 FOR UPDATE`).
		WithArgs("REQ_1").
		WillReturnRows(sqlmock.NewRows(approvalColumnNames).
			AddRow("REQ_1", "42", "CREATED_IN_DJANGO", "CREATED", parkingJSON(t, p), "", "", "", now, now))
	mock.ExpectExec(`UPDATE approval_requests`).
		WithArgs("REQ_1", "42", "APPROVED", "CREATED", parkingJSON(t, p), "", "", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := repo.Update(context.Background(), "REQ_1", func(r *db.ApprovalRequest) error {
		r.Status = db.StatusApproved
		r.UpdatedAt = time.Now()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, db.StatusApproved, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateRollsBackOnMutateError(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(approvalColumnNames).
			AddRow("REQ_1", "", "PENDING", "SUBMITTED", []byte(`{}`), "", "", "", now, now))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), "REQ_1", func(r *db.ApprovalRequest) error {
		return apperrors.Validation("invalid transition")
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}
