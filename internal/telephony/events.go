package telephony

import "time"

// Event is the canonical representation of an inbound call occurrence.
// At most one event is produced per webhook delivery; an event is never
// emitted for a payload lacking a resolvable call identifier.
type Event struct {
	// ID is generated per event.
	ID string `json:"id"`

	Type EventType `json:"type"`

	// CallID is the caller-assigned identifier, resolved from tracked call
	// state. Empty when the delivery cannot be correlated to a local call.
	CallID string `json:"call_id,omitempty"`

	// ProviderCallID is the vendor's identifier as carried in the callback.
	ProviderCallID string `json:"provider_call_id"`

	// From and To are optional; not every callback carries numbers.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`

	// Speech fields (call.speech only).
	Transcript string  `json:"transcript,omitempty"`
	IsFinal    bool    `json:"is_final,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`

	// Digits is the keypress string (call.dtmf only).
	Digits string `json:"digits,omitempty"`

	// Reason qualifies call.ended.
	Reason EndReason `json:"reason,omitempty"`
}

type EventType string

const (
	EventCallRinging  EventType = "call.ringing"
	EventCallAnswered EventType = "call.answered"
	EventCallSpeech   EventType = "call.speech"
	EventCallDTMF     EventType = "call.dtmf"
	EventCallEnded    EventType = "call.ended"
)

// EndReason is a closed enumeration of why a call ended.
type EndReason string

const (
	EndReasonHangupUser EndReason = "hangup-user"
	EndReasonHangupBot  EndReason = "hangup-bot"
	EndReasonCompleted  EndReason = "completed"
	EndReasonFailed     EndReason = "failed"
	EndReasonNoAnswer   EndReason = "no-answer"
	EndReasonBusy       EndReason = "busy"
)
