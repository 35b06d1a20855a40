package telephony

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Inbound callback handling for the Aliyun voice API.
//
// The vendor is inconsistent about both wire encoding (JSON or URL-encoded
// form, regardless of Content-Type) and key casing, so decoding is
// best-effort-parse first and every field is tried under several accepted
// spellings. This dual-format tolerance is deliberate; preserve both paths
// and the fallback order.

var (
	callIDKeys = []string{"call_id", "callId", "CallId", "callid"}
	statusKeys = []string{"status_code", "statusCode", "StatusCode", "status", "Status"}
	dtmfKeys   = []string{"dtmf", "Dtmf", "dtmf_digits", "dtmfDigits"}
	asrKeys    = []string{"asr_text", "asrText", "AsrText", "transcript"}
	fromKeys   = []string{"from", "From", "caller", "Caller"}
	toKeys     = []string{"to", "To", "callee", "Callee"}
)

// speechConfidence is a fixed placeholder: this vendor does not supply a
// native confidence score, and fabricating precision would be worse than a
// documented constant.
const speechConfidence = 0.9

var errUnparseableBody = errors.New("telephony: callback body is neither JSON nor form data")

// decodeCallbackPayload parses a callback body as JSON first and, on failure,
// as URL-encoded form data. All scalar values are flattened to strings.
func decodeCallbackPayload(body []byte) (map[string]string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errUnparseableBody
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err == nil {
			out := make(map[string]string, len(obj))
			for k, v := range obj {
				switch t := v.(type) {
				case string:
					out[k] = t
				case json.Number:
					out[k] = t.String()
				case bool:
					if t {
						out[k] = "true"
					} else {
						out[k] = "false"
					}
				default:
					// Nested objects/arrays carry no signal fields.
				}
			}
			return out, nil
		}
	}

	vals, err := url.ParseQuery(string(trimmed))
	if err != nil {
		return nil, errUnparseableBody
	}
	out := make(map[string]string, len(vals))
	for k := range vals {
		out[k] = vals.Get(k)
	}
	return out, nil
}

// firstValue returns the first non-empty value among the accepted spellings.
func firstValue(payload map[string]string, keys []string) string {
	for _, k := range keys {
		if v := payload[k]; v != "" {
			return v
		}
	}
	return ""
}

// callIDPolicy is the reference verification policy: accept a callback iff
// its body decodes and carries a non-empty call identifier under any
// accepted spelling.
func callIDPolicy(req WebhookRequest) VerifyResult {
	payload, err := decodeCallbackPayload(req.Body)
	if err != nil {
		return VerifyResult{OK: false, Reason: "invalid callback"}
	}
	if firstValue(payload, callIDKeys) == "" {
		return VerifyResult{OK: false, Reason: "invalid callback"}
	}
	return VerifyResult{OK: true}
}

// statusMapping translates one vendor status code (or its human-readable
// alias) into a normalized event type.
type statusMapping struct {
	eventType EventType
	reason    EndReason
}

// Closed lookup table; unrecognized codes translate to no event (fail open on
// translation, not on the whole payload).
var statusTable = map[string]statusMapping{
	"200000":      {eventType: EventCallAnswered},
	"in-progress": {eventType: EventCallAnswered},
	"200001":      {eventType: EventCallRinging},
	"ringing":     {eventType: EventCallRinging},
	"200002":      {eventType: EventCallAnswered},
	"answered":    {eventType: EventCallAnswered},
	"200003":      {eventType: EventCallEnded, reason: EndReasonHangupUser},
	"hangup":      {eventType: EventCallEnded, reason: EndReasonHangupUser},
	"200004":      {eventType: EventCallEnded, reason: EndReasonHangupBot},
	"200005":      {eventType: EventCallEnded, reason: EndReasonCompleted},
	"completed":   {eventType: EventCallEnded, reason: EndReasonCompleted},
	"400001":      {eventType: EventCallEnded, reason: EndReasonFailed},
	"400002":      {eventType: EventCallEnded, reason: EndReasonFailed},
	"400003":      {eventType: EventCallEnded, reason: EndReasonFailed},
	"failed":      {eventType: EventCallEnded, reason: EndReasonFailed},
	"400004":      {eventType: EventCallEnded, reason: EndReasonNoAnswer},
	"no-answer":   {eventType: EventCallEnded, reason: EndReasonNoAnswer},
	"400005":      {eventType: EventCallEnded, reason: EndReasonBusy},
	"busy":        {eventType: EventCallEnded, reason: EndReasonBusy},
}

// normalizeCallback extracts at most one canonical event from a decoded
// payload. Precedence when multiple signal fields coexist:
//
//  1. No resolvable call id: no event.
//  2. DTMF digits. A keypress is a discrete user action and must not be
//     shadowed by a simultaneous status ping.
//  3. ASR transcript (final, placeholder confidence).
//  4. Status code via the closed lookup table.
func normalizeCallback(payload map[string]string, occurredAt time.Time) []Event {
	providerCallID := firstValue(payload, callIDKeys)
	if providerCallID == "" {
		return nil
	}

	base := Event{
		ID:             uuid.NewString(),
		ProviderCallID: providerCallID,
		From:           firstValue(payload, fromKeys),
		To:             firstValue(payload, toKeys),
		OccurredAt:     occurredAt.UTC(),
	}

	if digits := firstValue(payload, dtmfKeys); digits != "" {
		base.Type = EventCallDTMF
		base.Digits = digits
		return []Event{base}
	}

	if text := firstValue(payload, asrKeys); text != "" {
		base.Type = EventCallSpeech
		base.Transcript = text
		base.IsFinal = true
		base.Confidence = speechConfidence
		return []Event{base}
	}

	if code := firstValue(payload, statusKeys); code != "" {
		m, ok := statusTable[code]
		if !ok {
			return nil
		}
		base.Type = m.eventType
		base.Reason = m.reason
		return []Event{base}
	}

	return nil
}
