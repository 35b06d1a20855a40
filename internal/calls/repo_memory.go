package calls

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository useful for tests and local runs.
// It is not intended for production use.
type MemoryRepo struct {
	mu    sync.Mutex
	calls map[string]Call
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{calls: make(map[string]Call)}
}

func (r *MemoryRepo) Create(ctx context.Context, c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[c.CallID] = c
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, workspaceID, callID string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[callID]
	if !ok || c.WorkspaceID != workspaceID {
		return Call{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) GetByCallID(ctx context.Context, callID string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[callID]
	if !ok {
		return Call{}, ErrNotFound
	}
	return c, nil
}

// ListCalls returns workspace-scoped history rows started inside the window.
// It satisfies the reporting data-source contract.
func (r *MemoryRepo) ListCalls(ctx context.Context, workspaceID string, from, to time.Time) ([]Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Call
	for _, c := range r.calls {
		if c.WorkspaceID != workspaceID {
			continue
		}
		if c.StartedAt.Before(from) || c.StartedAt.After(to) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, callID string, status CallStatus, reason string, endedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[callID]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	if reason != "" {
		c.Reason = reason
	}
	if endedAt != nil {
		c.EndedAt = endedAt
	}
	c.UpdatedAt = time.Now().UTC()
	r.calls[callID] = c
	return nil
}
