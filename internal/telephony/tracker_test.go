package telephony

import (
	"sync"
	"testing"
)

func TestTracker_RecordAndGet(t *testing.T) {
	tr := NewCallTracker()
	tr.Record("c1", "vendor-1", "+15551234567", "+8613800138000")

	s, ok := tr.Get("c1")
	if !ok {
		t.Fatalf("expected session")
	}
	if s.ProviderCallID != "vendor-1" {
		t.Fatalf("expected provider call id recorded")
	}
	if s.State != CallStateInitiated {
		t.Fatalf("expected initiated, got %s", s.State)
	}
	if s.StartedAt.IsZero() {
		t.Fatalf("expected started_at set")
	}
}

func TestTracker_ProviderCallIDSetOnce(t *testing.T) {
	tr := NewCallTracker()
	tr.Record("c1", "vendor-1", "a", "b")
	tr.Record("c1", "vendor-2", "a", "b")

	s, _ := tr.Get("c1")
	if s.ProviderCallID != "vendor-1" {
		t.Fatalf("provider call id must never be reassigned, got %q", s.ProviderCallID)
	}
}

func TestTracker_AdvanceIsMonotonic(t *testing.T) {
	tr := NewCallTracker()
	tr.Record("c1", "vendor-1", "a", "b")

	tr.Advance("c1", Event{Type: EventCallAnswered})
	if s, _ := tr.Get("c1"); s.State != CallStateAnswered {
		t.Fatalf("expected answered, got %s", s.State)
	}

	// A late ringing ping must not move the call backwards.
	tr.Advance("c1", Event{Type: EventCallRinging})
	if s, _ := tr.Get("c1"); s.State != CallStateAnswered {
		t.Fatalf("expected answered after stale ringing, got %s", s.State)
	}

	// Ended is reachable from any state.
	tr.Advance("c1", Event{Type: EventCallEnded, Reason: EndReasonCompleted})
	if s, _ := tr.Get("c1"); s.State != CallStateEnded {
		t.Fatalf("expected ended, got %s", s.State)
	}
}

func TestTracker_EndedReachableFromInitiated(t *testing.T) {
	tr := NewCallTracker()
	tr.Record("c1", "vendor-1", "a", "b")
	tr.Advance("c1", Event{Type: EventCallEnded, Reason: EndReasonNoAnswer})
	if s, _ := tr.Get("c1"); s.State != CallStateEnded {
		t.Fatalf("expected ended directly from initiated, got %s", s.State)
	}
}

func TestTracker_AdvanceAbsentIsNoop(t *testing.T) {
	tr := NewCallTracker()
	// Events can race teardown; this must not panic or error.
	tr.Advance("ghost", Event{Type: EventCallAnswered})
}

func TestTracker_SpeechDoesNotChangeState(t *testing.T) {
	tr := NewCallTracker()
	tr.Record("c1", "vendor-1", "a", "b")
	tr.Advance("c1", Event{Type: EventCallSpeech, Transcript: "hi"})
	tr.Advance("c1", Event{Type: EventCallDTMF, Digits: "1"})
	if s, _ := tr.Get("c1"); s.State != CallStateInitiated {
		t.Fatalf("speech/dtmf must not change lifecycle state, got %s", s.State)
	}
}

func TestTracker_RemoveIsIdempotent(t *testing.T) {
	tr := NewCallTracker()
	tr.Record("c1", "vendor-1", "a", "b")
	tr.Remove("c1")
	tr.Remove("c1")
	if _, ok := tr.Get("c1"); ok {
		t.Fatalf("expected session removed")
	}
	if _, ok := tr.ResolveProvider("vendor-1"); ok {
		t.Fatalf("expected provider index cleaned up")
	}
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tr := NewCallTracker()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%8))
			tr.Record(id, "vendor-"+id, "from", "to")
			tr.Advance(id, Event{Type: EventCallAnswered})
			tr.Get(id)
			if n%4 == 0 {
				tr.Remove(id)
			}
		}(i)
	}
	wg.Wait()
}
