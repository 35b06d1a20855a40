package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - workspace_id is required for tenancy isolation wherever one exists;
//   rejected webhooks arrive unauthenticated and carry none.
// - actor and ip capture are best-effort; do not block call flows on audit
//   failures.
//
// Storage recommendation (Postgres):
// - Table audit_events with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.
// - Optional: partition by time for retention.
type Event struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id,omitempty" db:"workspace_id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event (if applicable).
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// IPAddress should capture the original client IP when available.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// CallID is set for call-control events.
	CallID string `json:"call_id,omitempty" db:"call_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	// EventTypeCallInitiated records an outbound call placed via the control API.
	EventTypeCallInitiated EventType = "call_initiated"
	// EventTypeCallHangup records an operator-directed teardown.
	EventTypeCallHangup EventType = "call_hangup"
	// EventTypeWebhookRejected records an inbound callback that failed
	// verification. Kept for abuse investigation.
	EventTypeWebhookRejected EventType = "webhook_rejected"
)
