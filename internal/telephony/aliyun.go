package telephony

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// AliyunConfig is the configuration surface consumed by the adapter. All
// values come from the external configuration collaborator; nothing is
// embedded.
type AliyunConfig struct {
	AccessKeyID     string
	AccessKeySecret string

	// RegionID defaults to cn-hangzhou.
	RegionID string
	// Endpoint overrides the vendor API host.
	Endpoint string

	// PublicURL is the externally reachable base URL for vendor callbacks.
	PublicURL string

	// SessionTimeout is the vendor-level conversational timeout of a live
	// call, independent of the HTTP transport timeout.
	SessionTimeout time.Duration

	// SkipWebhookVerify bypasses callback verification. Local development
	// only; it is an explicit opt-in and is logged loudly at construction.
	SkipWebhookVerify bool
}

// AliyunProvider implements VoiceProvider against the Aliyun voice API
// (SmartCall flavor). Speech recognition is continuous on this vendor, so
// StartListening/StopListening are no-ops; the methods exist because other
// providers require an explicit toggle.
type AliyunProvider struct {
	client  *apiClient
	tracker *CallTracker
	verify  VerifyPolicy
	log     *slog.Logger

	sessionTimeout time.Duration

	mu        sync.RWMutex
	publicURL string
}

func NewAliyunProvider(cfg AliyunConfig, log *slog.Logger) (*AliyunProvider, error) {
	if cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" {
		return nil, ErrMissingCredentials
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = 5 * time.Minute
	}

	p := &AliyunProvider{
		client:         newAPIClient(cfg.AccessKeyID, cfg.AccessKeySecret, cfg.RegionID, cfg.Endpoint),
		tracker:        NewCallTracker(),
		verify:         callIDPolicy,
		log:            log.With("provider", "aliyun"),
		sessionTimeout: cfg.SessionTimeout,
		publicURL:      cfg.PublicURL,
	}
	if cfg.SkipWebhookVerify {
		p.verify = func(WebhookRequest) VerifyResult { return VerifyResult{OK: true} }
		p.log.Warn("webhook verification is DISABLED; never run this way outside local development")
	}
	return p, nil
}

func (p *AliyunProvider) Name() string { return "aliyun" }

func (p *AliyunProvider) HealthCheck(ctx context.Context) error {
	// The vendor exposes no cheap unauthenticated ping; construction-time
	// credential validation is the meaningful check.
	return nil
}

func (p *AliyunProvider) SetPublicURL(u string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.publicURL = u
}

func (p *AliyunProvider) PublicURL() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.publicURL
}

// Tracker exposes the call-state store for the event consumer. The facade
// owns the store exclusively; callers must not retain it beyond the
// provider's lifetime.
func (p *AliyunProvider) Tracker() *CallTracker { return p.tracker }

func (p *AliyunProvider) InitiateCall(ctx context.Context, req InitiateCallRequest) (InitiateCallResult, error) {
	params := map[string]string{
		"CalledNumber":     bareDigits(req.To),
		"CalledShowNumber": bareDigits(req.From),
		"SessionTimeout":   strconv.Itoa(int(p.sessionTimeout.Seconds())),
	}
	if req.AnnouncementText != "" {
		// Opaque payload field; never executed as a sub-language.
		params["Text"] = req.AnnouncementText
	}

	resp, err := p.client.call(ctx, "SmartCall", params)
	if err != nil {
		p.log.Warn("call initiation failed", "call_id", req.CallID, "err", err)
		return InitiateCallResult{}, &InitiationError{CallID: req.CallID, Err: err}
	}

	p.tracker.Record(req.CallID, resp.CallID, req.From, req.To)
	p.log.Info("call initiated", "call_id", req.CallID, "provider_call_id", resp.CallID)
	return InitiateCallResult{ProviderCallID: resp.CallID}, nil
}

// HangupCall issues the vendor hangup command and removes the session from
// the tracker regardless of the command's outcome. A failure to confirm
// hangup must not leave local state inconsistent.
func (p *AliyunProvider) HangupCall(ctx context.Context, callID, providerCallID string) error {
	defer p.tracker.Remove(callID)

	if providerCallID == "" {
		if s, ok := p.tracker.Get(callID); ok {
			providerCallID = s.ProviderCallID
		}
	}
	if providerCallID == "" {
		// Nothing to tear down at the vendor; local removal is enough.
		return nil
	}

	_, err := p.client.call(ctx, "SmartCallOperate", map[string]string{
		"CallId":  providerCallID,
		"Command": "hangUp",
	})
	if err != nil {
		p.log.Warn("hangup command failed; session removed locally", "call_id", callID, "err", err)
	}
	return err
}

func (p *AliyunProvider) PlayAnnouncement(ctx context.Context, providerCallID, text string) error {
	_, err := p.client.call(ctx, "SmartCallOperate", map[string]string{
		"CallId":  providerCallID,
		"Command": "playText",
		"Param":   text,
	})
	return err
}

// StartListening is a no-op: SmartCall runs continuous ASR.
func (p *AliyunProvider) StartListening(ctx context.Context, providerCallID string) error { return nil }

// StopListening is a no-op: SmartCall runs continuous ASR.
func (p *AliyunProvider) StopListening(ctx context.Context, providerCallID string) error { return nil }

func (p *AliyunProvider) VerifyWebhook(req WebhookRequest) VerifyResult {
	return p.verify(req)
}

// ParseWebhookEvent normalizes one callback delivery. The vendor requires a
// JSON acknowledgment independent of event semantics, so a successful parse
// always yields a 200 with {"code":"OK"}; an unparseable body yields a 400.
func (p *AliyunProvider) ParseWebhookEvent(req WebhookRequest) (WebhookResponse, error) {
	jsonHeaders := map[string]string{"Content-Type": "application/json"}

	payload, err := decodeCallbackPayload(req.Body)
	if err != nil {
		return WebhookResponse{
			StatusCode: http.StatusBadRequest,
			Body:       []byte(`{"code":"InvalidBody"}`),
			Headers:    jsonHeaders,
		}, err
	}

	events := normalizeCallback(payload, time.Now())
	for i := range events {
		if callID, ok := p.tracker.ResolveProvider(events[i].ProviderCallID); ok {
			events[i].CallID = callID
			p.tracker.Advance(callID, events[i])
		}
	}

	return WebhookResponse{
		Events:     events,
		StatusCode: http.StatusOK,
		Body:       []byte(`{"code":"OK"}`),
		Headers:    jsonHeaders,
	}, nil
}

// bareDigits strips a number down to the digit form the vendor expects.
// Internal storage keeps E.164; translation happens only at this boundary.
func bareDigits(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
