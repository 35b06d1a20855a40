package audit

import (
	"context"
	"testing"
)

func TestService_AppendRequiresType(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{WorkspaceID: "w"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_CallEventsRequireWorkspace(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{Type: EventTypeCallInitiated}); err == nil {
		t.Fatalf("expected error for call event without workspace")
	}
	if err := svc.Append(context.Background(), Event{Type: EventTypeCallInitiated, WorkspaceID: "w", CallID: "c1"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestService_WebhookRejectionsNeedNoWorkspace(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogWebhookRejected(context.Background(), "1.2.3.4", "invalid callback", "{}"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.OfType(EventTypeWebhookRejected)
	if len(evs) != 1 {
		t.Fatalf("expected 1 event")
	}
	if evs[0].IPAddress != "1.2.3.4" {
		t.Fatalf("expected ip captured")
	}
	if evs[0].Type != EventTypeWebhookRejected {
		t.Fatalf("expected webhook_rejected")
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at populated")
	}
}
