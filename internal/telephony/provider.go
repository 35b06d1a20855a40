package telephony

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// VoiceProvider defines the provider-agnostic call-control and webhook
// contract used by business logic.
//
// Rules:
// - No vendor API calls outside telephony adapters.
// - Keep request/response types provider-agnostic; vendor raw payloads stay
//   inside the adapter.
// - Phone numbers cross this boundary in E.164; vendor-specific formats are
//   translated at the edge and never stored internally.
type VoiceProvider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	// InitiateCall places an outbound call and returns the provider-assigned
	// call identifier. The caller-assigned call id in the request must be
	// unique per call attempt.
	InitiateCall(ctx context.Context, req InitiateCallRequest) (InitiateCallResult, error)

	// HangupCall tears down a live call. Teardown is best-effort: local call
	// state is released even when the vendor command fails.
	HangupCall(ctx context.Context, callID, providerCallID string) error

	// PlayAnnouncement speaks text into a live call. The text is an opaque
	// payload field; it is never interpreted as a sub-language.
	PlayAnnouncement(ctx context.Context, providerCallID, text string) error

	// StartListening / StopListening toggle speech recognition on vendors
	// that require an explicit switch. Vendors with continuous ASR implement
	// these as no-ops.
	StartListening(ctx context.Context, providerCallID string) error
	StopListening(ctx context.Context, providerCallID string) error

	// VerifyWebhook decides whether an inbound callback is authentic and
	// well-formed enough to process.
	VerifyWebhook(req WebhookRequest) VerifyResult

	// ParseWebhookEvent normalizes a verified callback into canonical events
	// plus the exact response the vendor expects to receive.
	ParseWebhookEvent(req WebhookRequest) (WebhookResponse, error)

	// SetPublicURL / PublicURL manage the externally reachable base URL the
	// vendor delivers callbacks to.
	SetPublicURL(u string)
	PublicURL() string
}

// InitiateCallRequest describes one outbound call attempt.
type InitiateCallRequest struct {
	// CallID is the caller-assigned identifier, unique per attempt.
	CallID string `json:"call_id"`

	// From and To are E.164 where possible.
	From string `json:"from"`
	To   string `json:"to"`

	// AnnouncementText is optional TTS content spoken when the call connects.
	AnnouncementText string `json:"announcement_text,omitempty"`
}

type InitiateCallResult struct {
	// ProviderCallID is the vendor's unique identifier for this call.
	ProviderCallID string `json:"provider_call_id"`
}

// WebhookRequest carries the raw inbound request context. The adapter never
// touches the network reader directly; the HTTP edge reads the body once and
// hands it over.
type WebhookRequest struct {
	Method  string
	Path    string
	Headers http.Header
	Body    []byte
}

type VerifyResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// WebhookResponse is what the HTTP edge must write back to the vendor,
// plus the normalized events extracted from the delivery (at most one per
// delivery for the current vendor schema).
type WebhookResponse struct {
	Events     []Event
	StatusCode int
	Body       []byte
	Headers    map[string]string
}

// VerifyPolicy is a pluggable trust policy for inbound callbacks. Vendors
// differ too much for a single scheme.
type VerifyPolicy func(req WebhookRequest) VerifyResult

// ErrMissingCredentials indicates the adapter was constructed without a
// credential identifier or secret. It is the only fatal construction error;
// everything else in this package is recoverable at the call boundary.
var ErrMissingCredentials = errors.New("telephony: provider credentials are required")

// TransportError reports a network or HTTP-layer failure reaching the vendor.
// Eligible for caller-directed retry; retries must re-sign with a fresh
// nonce and timestamp.
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("telephony: transport failure: %v", e.Err)
	}
	return fmt.Sprintf("telephony: vendor rejected request: status=%d body=%s", e.Status, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ApplicationError reports a logical failure inside a vendor 200 response
// (the vendor-defined success discriminator was not "OK"). Usually
// non-transient; not retried automatically.
type ApplicationError struct {
	Code      string
	Message   string
	RequestID string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("telephony: vendor error %s: %s (request_id=%s)", e.Code, e.Message, e.RequestID)
}

// InitiationError wraps a failed call initiation with the caller call id so
// the control layer can correlate the rejection.
type InitiationError struct {
	CallID string
	Err    error
}

func (e *InitiationError) Error() string {
	return fmt.Sprintf("telephony: call initiation failed for %s: %v", e.CallID, e.Err)
}

func (e *InitiationError) Unwrap() error { return e.Err }
