package telephony

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*AliyunProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewAliyunProvider(AliyunConfig{
		AccessKeyID:     "test-key",
		AccessKeySecret: "test-secret",
		Endpoint:        srv.URL,
	}, slog.Default())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return p, srv
}

func TestNewAliyunProvider_RequiresCredentials(t *testing.T) {
	_, err := NewAliyunProvider(AliyunConfig{}, nil)
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	_, err = NewAliyunProvider(AliyunConfig{AccessKeyID: "k"}, nil)
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials without secret, got %v", err)
	}
}

func TestInitiateCall_EndToEnd(t *testing.T) {
	var gotAction, gotCalled, gotShow, gotSig string
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("form parse failed: %v", err)
		}
		gotAction = r.PostFormValue("Action")
		gotCalled = r.PostFormValue("CalledNumber")
		gotShow = r.PostFormValue("CalledShowNumber")
		gotSig = r.PostFormValue("Signature")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Code":"OK","RequestId":"req-1","CallId":"vendor-999"}`))
	})

	res, err := p.InitiateCall(context.Background(), InitiateCallRequest{
		CallID:           "c1",
		From:             "+15551234567",
		To:               "+8613800138000",
		AnnouncementText: "hello",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.ProviderCallID != "vendor-999" {
		t.Fatalf("expected provider call id from vendor, got %q", res.ProviderCallID)
	}
	if gotAction != "SmartCall" {
		t.Fatalf("expected SmartCall action, got %q", gotAction)
	}
	// Numbers are translated to bare digits at the vendor boundary only.
	if gotCalled != "8613800138000" || gotShow != "15551234567" {
		t.Fatalf("expected bare-digit numbers, got called=%q show=%q", gotCalled, gotShow)
	}
	if gotSig == "" {
		t.Fatalf("expected signed request")
	}

	s, ok := p.Tracker().Get("c1")
	if !ok {
		t.Fatalf("expected tracked session")
	}
	if s.ProviderCallID != "vendor-999" {
		t.Fatalf("expected provider call id tracked, got %q", s.ProviderCallID)
	}
	if s.State != CallStateInitiated {
		t.Fatalf("expected initiated, got %s", s.State)
	}
	// Internal state keeps E.164.
	if s.From != "+15551234567" || s.To != "+8613800138000" {
		t.Fatalf("internal numbers must stay E.164, got %q %q", s.From, s.To)
	}
}

func TestInitiateCall_VendorRejection(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Code":"isv.CALLED_NUMBER_ILLEGAL","Message":"called number illegal","RequestId":"req-2"}`))
	})

	_, err := p.InitiateCall(context.Background(), InitiateCallRequest{CallID: "c1", From: "+1", To: "+2"})
	var initErr *InitiationError
	if !errors.As(err, &initErr) {
		t.Fatalf("expected InitiationError, got %v", err)
	}
	var appErr *ApplicationError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected wrapped ApplicationError, got %v", err)
	}
	if appErr.Message != "called number illegal" {
		t.Fatalf("expected vendor message surfaced, got %q", appErr.Message)
	}
	if _, ok := p.Tracker().Get("c1"); ok {
		t.Fatalf("rejected call must not be tracked")
	}
}

func TestInitiateCall_TransportFailure(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := p.InitiateCall(context.Background(), InitiateCallRequest{CallID: "c1", From: "+1", To: "+2"})
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if tErr.Status != http.StatusBadGateway {
		t.Fatalf("expected status carried, got %d", tErr.Status)
	}
}

func TestRoundTrip_InitiateAnswerHangup(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Code":"OK","RequestId":"req-3","CallId":"vendor-42"}`))
	})

	if _, err := p.InitiateCall(context.Background(), InitiateCallRequest{CallID: "c1", From: "+15551234567", To: "+15557654321"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	resp, err := p.ParseWebhookEvent(WebhookRequest{Body: []byte(`{"call_id":"vendor-42","status_code":"200002"}`)})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].Type != EventCallAnswered {
		t.Fatalf("expected one call.answered event, got %+v", resp.Events)
	}
	if resp.Events[0].CallID != "c1" {
		t.Fatalf("expected caller call id resolved, got %q", resp.Events[0].CallID)
	}
	if s, _ := p.Tracker().Get("c1"); s.State != CallStateAnswered {
		t.Fatalf("expected tracked state answered, got %s", s.State)
	}

	if err := p.HangupCall(context.Background(), "c1", ""); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, ok := p.Tracker().Get("c1"); ok {
		t.Fatalf("expected session removed after hangup")
	}
}

func TestHangupCall_IdempotentWhenAbsent(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Code":"OK"}`))
	})

	if err := p.HangupCall(context.Background(), "ghost", ""); err != nil {
		t.Fatalf("expected no error for absent session, got %v", err)
	}
	if err := p.HangupCall(context.Background(), "ghost", ""); err != nil {
		t.Fatalf("expected repeat hangup to stay clean, got %v", err)
	}
}

func TestHangupCall_RemovesSessionEvenOnVendorFailure(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Code":"isv.SYSTEM_ERROR","Message":"boom"}`))
	})
	p.Tracker().Record("c1", "vendor-1", "a", "b")

	err := p.HangupCall(context.Background(), "c1", "")
	if err == nil {
		t.Fatalf("expected vendor error surfaced")
	}
	if _, ok := p.Tracker().Get("c1"); ok {
		t.Fatalf("teardown is best-effort: session must be removed regardless")
	}
}

func TestParseWebhookEvent_UnparseableBody(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})

	resp, err := p.ParseWebhookEvent(WebhookRequest{Body: []byte("%%%not-a-body")})
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestParseWebhookEvent_AcknowledgesWithJSON(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})

	resp, err := p.ParseWebhookEvent(WebhookRequest{Body: []byte(`{"call_id":"vendor-7","status_code":"200001"}`)})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"code":"OK"}` {
		t.Fatalf("unexpected ack body %q", resp.Body)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Fatalf("expected JSON content type")
	}
	// Untracked provider call ids still produce events; correlation is
	// best-effort at this layer.
	if len(resp.Events) != 1 || resp.Events[0].CallID != "" {
		t.Fatalf("expected uncorrelated event, got %+v", resp.Events)
	}
}

func TestStartStopListening_NoOps(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no vendor call expected for listen toggles")
	})
	if err := p.StartListening(context.Background(), "vendor-1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := p.StopListening(context.Background(), "vendor-1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestPublicURL_SetAndGet(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {})
	p.SetPublicURL("https://example.com/webhooks/voice")
	if p.PublicURL() != "https://example.com/webhooks/voice" {
		t.Fatalf("unexpected public url %q", p.PublicURL())
	}
}
