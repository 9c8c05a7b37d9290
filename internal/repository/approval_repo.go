package repository

import (
	"context"
	"sync"

	"parkeaya-panel/internal/db"
	apperrors "parkeaya-panel/internal/errors"
)

// ApprovalRepository stores approval requests. Update is an atomic
// read-modify-write on one record; concurrent updates to different records
// do not block each other.
type ApprovalRepository interface {
	Create(ctx context.Context, req *db.ApprovalRequest) error
	Get(ctx context.Context, id string) (*db.ApprovalRequest, error)
	FindByRemoteID(ctx context.Context, remoteID string) (*db.ApprovalRequest, error)
	Update(ctx context.Context, id string, mutate func(*db.ApprovalRequest) error) (*db.ApprovalRequest, error)
	List(ctx context.Context) ([]*db.ApprovalRequest, error)
}

type approvalEntry struct {
	mu  sync.Mutex
	req *db.ApprovalRequest
}

// MemoryApprovalRepository keeps approval requests for the life of the
// process. Callers always receive copies.
type MemoryApprovalRepository struct {
	mu      sync.RWMutex
	records map[string]*approvalEntry
	order   []string
}

func NewMemoryApprovalRepository() *MemoryApprovalRepository {
	return &MemoryApprovalRepository{records: make(map[string]*approvalEntry)}
}

func (r *MemoryApprovalRepository) Create(ctx context.Context, req *db.ApprovalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[req.ID]; exists {
		return apperrors.Internal("approval request "+req.ID+" already exists", nil)
	}
	r.records[req.ID] = &approvalEntry{req: req.Clone()}
	r.order = append(r.order, req.ID)
	return nil
}

func (r *MemoryApprovalRepository) entry(id string) (*approvalEntry, error) {
	r.mu.RLock()
	e, ok := r.records[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotFound("approval request not found: " + id)
	}
	return e, nil
}

func (r *MemoryApprovalRepository) Get(ctx context.Context, id string) (*db.ApprovalRequest, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.req.Clone(), nil
}

func (r *MemoryApprovalRepository) FindByRemoteID(ctx context.Context, remoteID string) (*db.ApprovalRequest, error) {
	for _, req := range r.snapshot() {
		if remoteID != "" && req.RemoteID == remoteID {
			return req, nil
		}
	}
	return nil, apperrors.NotFound("no approval request with remote id " + remoteID)
}

func (r *MemoryApprovalRepository) Update(ctx context.Context, id string, mutate func(*db.ApprovalRequest) error) (*db.ApprovalRequest, error) {
	e, err := r.entry(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.req.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = id
	e.req = next
	return next.Clone(), nil
}

func (r *MemoryApprovalRepository) List(ctx context.Context) ([]*db.ApprovalRequest, error) {
	return r.snapshot(), nil
}

func (r *MemoryApprovalRepository) snapshot() []*db.ApprovalRequest {
	r.mu.RLock()
	entries := make([]*approvalEntry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, r.records[id])
	}
	r.mu.RUnlock()

	out := make([]*db.ApprovalRequest, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.req.Clone())
		e.mu.Unlock()
	}
	return out
}
