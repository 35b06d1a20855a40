package reporting

import (
	"context"
	"sync"
	"time"

	"voice-gateway/internal/calls"
)

// MemoryRepo is an in-memory reporting source useful for tests.
type MemoryRepo struct {
	mu   sync.Mutex
	rows []calls.Call
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Add(c calls.Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, c)
}

func (r *MemoryRepo) ListCalls(ctx context.Context, workspaceID string, from, to time.Time) ([]calls.Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []calls.Call
	for _, c := range r.rows {
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
