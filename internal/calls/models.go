package calls

import (
	"time"

	"voice-gateway/internal/telephony"
)

// Call represents a tenant-scoped outbound call record.
//
// Multi-tenant invariant: WorkspaceID is required on every row.
//
// This is the durable history view of a call; live per-call state belongs to
// the provider facade's tracker. Provider-specific identifiers are kept in a
// dedicated column, never mixed into the caller-assigned id.
type Call struct {
	CallID      string `json:"call_id" db:"call_id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`

	// ProviderCallID is assigned by the vendor upon successful initiation.
	ProviderCallID string `json:"provider_call_id,omitempty" db:"provider_call_id"`

	// From and To are E.164.
	From string `json:"from" db:"from_number"`
	To   string `json:"to" db:"to_number"`

	Status CallStatus `json:"status" db:"status"`

	// Reason qualifies ended calls (hangup-user, completed, failed, ...).
	Reason string `json:"reason,omitempty" db:"reason"`

	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CallStatus string

const (
	CallStatusInitiated  CallStatus = "initiated"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusEnded      CallStatus = "ended"
)

// statusForEvent maps a normalized lifecycle event onto the history status.
// Speech and DTMF events carry conversation content, not lifecycle changes.
func statusForEvent(typ telephony.EventType) (CallStatus, bool) {
	switch typ {
	case telephony.EventCallRinging:
		return CallStatusRinging, true
	case telephony.EventCallAnswered:
		return CallStatusInProgress, true
	case telephony.EventCallEnded:
		return CallStatusEnded, true
	default:
		return "", false
	}
}
