package calls

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("calls: not found")

// Repository is the persistence contract for call history.
//
// Rows are created once at initiation and then only advance status; history
// is never deleted by the call path (retention is an operational concern).
type Repository interface {
	Create(ctx context.Context, c Call) error

	// Get is workspace-scoped for tenant-facing reads.
	Get(ctx context.Context, workspaceID, callID string) (Call, error)

	// GetByCallID looks a call up without tenancy scoping. Webhook events
	// carry no workspace; the stored row supplies it.
	GetByCallID(ctx context.Context, callID string) (Call, error)

	UpdateStatus(ctx context.Context, callID string, status CallStatus, reason string, endedAt *time.Time) error
}
