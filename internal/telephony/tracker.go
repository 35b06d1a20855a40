package telephony

import (
	"sync"
	"time"
)

// CallState is the lifecycle state of a tracked call session.
type CallState string

const (
	CallStateInitiated CallState = "initiated"
	CallStateRinging   CallState = "ringing"
	CallStateAnswered  CallState = "answered"
	CallStateEnded     CallState = "ended"
)

// rank orders lifecycle states for the monotonic-transition invariant.
func (s CallState) rank() int {
	switch s {
	case CallStateInitiated:
		return 0
	case CallStateRinging:
		return 1
	case CallStateAnswered:
		return 2
	case CallStateEnded:
		return 3
	default:
		return -1
	}
}

// CallSession is one outbound call attempt.
//
// Invariants:
// - CallID is caller-assigned, unique per session, immutable.
// - ProviderCallID is set at most once and never reassigned.
// - State transitions are monotonic, except that ended is reachable from any
//   prior state (failure, no-answer, busy and hangups can happen at any point).
type CallSession struct {
	CallID         string    `json:"call_id"`
	ProviderCallID string    `json:"provider_call_id,omitempty"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	State          CallState `json:"state"`
	StartedAt      time.Time `json:"started_at"`
}

// CallTracker maps caller call ids to sessions and provider call ids back to
// caller call ids. It is owned by the provider facade, never shared as global
// process state.
//
// Concurrency: one mutex guards both maps. Cross-call operations are short
// read-modify-writes, so a single lock is sufficient; no operation here ever
// blocks on I/O.
type CallTracker struct {
	mu         sync.Mutex
	sessions   map[string]CallSession
	byProvider map[string]string
	clock      func() time.Time
}

func NewCallTracker() *CallTracker {
	return &CallTracker{
		sessions:   make(map[string]CallSession),
		byProvider: make(map[string]string),
		clock:      time.Now,
	}
}

// Record registers a freshly initiated call. It is a no-op if the caller call
// id is already tracked (the provider call id is set at most once).
func (t *CallTracker) Record(callID, providerCallID, from, to string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.sessions[callID]; ok {
		return
	}
	t.sessions[callID] = CallSession{
		CallID:         callID,
		ProviderCallID: providerCallID,
		From:           from,
		To:             to,
		State:          CallStateInitiated,
		StartedAt:      t.clock().UTC(),
	}
	if providerCallID != "" {
		t.byProvider[providerCallID] = callID
	}
}

// Advance moves a session forward based on a normalized event. It is a no-op
// (not an error) when the session is absent: events can race teardown.
func (t *CallTracker) Advance(callID string, ev Event) {
	next, ok := stateForEvent(ev.Type)
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[callID]
	if !ok {
		return
	}
	// Never move backwards; ended wins from anywhere.
	if next != CallStateEnded && next.rank() <= s.State.rank() {
		return
	}
	s.State = next
	t.sessions[callID] = s
}

// Get returns a copy of the tracked session.
func (t *CallTracker) Get(callID string) (CallSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[callID]
	return s, ok
}

// ResolveProvider maps a provider call id back to the caller call id.
func (t *CallTracker) ResolveProvider(providerCallID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.byProvider[providerCallID]
	return id, ok
}

// Remove drops a session. Removing an absent session is a no-op so teardown
// stays idempotent.
func (t *CallTracker) Remove(callID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[callID]
	if !ok {
		return
	}
	delete(t.sessions, callID)
	if s.ProviderCallID != "" {
		delete(t.byProvider, s.ProviderCallID)
	}
}

// Len reports the number of live sessions.
func (t *CallTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

func stateForEvent(typ EventType) (CallState, bool) {
	switch typ {
	case EventCallRinging:
		return CallStateRinging, true
	case EventCallAnswered:
		return CallStateAnswered, true
	case EventCallEnded:
		return CallStateEnded, true
	default:
		// Speech and DTMF do not change lifecycle state.
		return "", false
	}
}
