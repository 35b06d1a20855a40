package reporting

import (
	"context"
	"testing"
	"time"

	"voice-gateway/internal/calls"
	"voice-gateway/internal/telephony"
)

func TestCallsSummary_RequiresWorkspaceAndRange(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if _, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{}); err == nil {
		t.Fatalf("expected error for missing workspace")
	}

	if _, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{
		WorkspaceID: "w1",
		Range:       TimeRange{From: time.Now(), To: time.Now().Add(-time.Hour)},
	}); err == nil {
		t.Fatalf("expected error for inverted range")
	}
}

func TestCallsSummary_AggregatesByEndReason(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ended := base.Add(90 * time.Second)

	mk := func(id string, status calls.CallStatus, reason telephony.EndReason) calls.Call {
		c := calls.Call{
			CallID:      id,
			WorkspaceID: "w1",
			Status:      status,
			Reason:      string(reason),
			StartedAt:   base,
		}
		if status == calls.CallStatusEnded {
			c.EndedAt = &ended
		}
		return c
	}

	repo.Add(mk("c1", calls.CallStatusEnded, telephony.EndReasonCompleted))
	repo.Add(mk("c2", calls.CallStatusEnded, telephony.EndReasonNoAnswer))
	repo.Add(mk("c3", calls.CallStatusEnded, telephony.EndReasonBusy))
	repo.Add(mk("c4", calls.CallStatusEnded, telephony.EndReasonHangupUser))
	repo.Add(mk("c5", calls.CallStatusInProgress, ""))
	// Different workspace must be invisible.
	other := mk("c6", calls.CallStatusEnded, telephony.EndReasonCompleted)
	other.WorkspaceID = "w2"
	repo.Add(other)

	svc := NewService(repo)
	sum, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{
		WorkspaceID: "w1",
		Range:       TimeRange{From: base.Add(-time.Hour), To: base.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if sum.TotalCalls != 5 {
		t.Fatalf("expected 5 calls, got %d", sum.TotalCalls)
	}
	if sum.CompletedCalls != 1 || sum.NoAnswerCalls != 1 || sum.BusyCalls != 1 || sum.HangupCalls != 1 {
		t.Fatalf("unexpected breakdown: %+v", sum)
	}
	if sum.InProgressCalls != 1 {
		t.Fatalf("expected 1 in-progress, got %d", sum.InProgressCalls)
	}
	if sum.TotalDurationSeconds != 4*90 {
		t.Fatalf("expected 360s total duration, got %d", sum.TotalDurationSeconds)
	}
	if sum.AverageDurationSeconds != 360/5 {
		t.Fatalf("expected average over all calls, got %d", sum.AverageDurationSeconds)
	}
}
