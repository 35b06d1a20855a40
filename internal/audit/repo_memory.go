package audit

import (
	"context"
	"sync"
)

// MemoryRepo is an append-only in-memory trail useful for tests and local
// runs. Production deployments should back the trail with durable storage.
type MemoryRepo struct {
	mu   sync.Mutex
	rows []Event
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, e)
	return nil
}

// Events returns a copy of the recorded trail.
func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.rows))
	copy(out, r.rows)
	return out
}

// OfType returns recorded events matching t, preserving append order.
func (r *MemoryRepo) OfType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.rows {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
