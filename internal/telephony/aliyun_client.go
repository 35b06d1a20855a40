package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	aliyunDefaultEndpoint = "dyvmsapi.aliyuncs.com"
	aliyunDefaultRegion   = "cn-hangzhou"
	aliyunAPIVersion      = "2017-05-25"

	// Network timeout for one vendor API round trip. Distinct from the
	// vendor-level session timeout of a live call.
	aliyunHTTPTimeout = 15 * time.Second
)

// apiClient assembles, signs and submits one vendor API call.
//
// No retry logic lives here. Retries belong to the caller, which gets a fresh
// nonce and timestamp per attempt; a stale pair is still an independently
// valid signed request (the nonce is advisory, not anti-replay).
type apiClient struct {
	accessKeyID     string
	accessKeySecret string
	regionID        string
	endpoint        string

	httpClient *http.Client

	// clock and nonce are injectable for deterministic tests.
	clock func() time.Time
	nonce func() string
}

func newAPIClient(accessKeyID, accessKeySecret, regionID, endpoint string) *apiClient {
	if regionID == "" {
		regionID = aliyunDefaultRegion
	}
	if endpoint == "" {
		endpoint = aliyunDefaultEndpoint
	}
	return &apiClient{
		accessKeyID:     accessKeyID,
		accessKeySecret: accessKeySecret,
		regionID:        regionID,
		endpoint:        endpoint,
		httpClient:      &http.Client{Timeout: aliyunHTTPTimeout},
		clock:           time.Now,
		nonce:           uuid.NewString,
	}
}

// apiResponse is the vendor response envelope. Code == "OK" means success;
// anything else is an application-level rejection inside an HTTP 200.
type apiResponse struct {
	Code      string `json:"Code"`
	Message   string `json:"Message"`
	RequestID string `json:"RequestId"`
	CallID    string `json:"CallId"`
}

// call merges the common POP parameters with action params, signs the merged
// set and POSTs it form-encoded to the per-region endpoint.
func (c *apiClient) call(ctx context.Context, action string, params map[string]string) (apiResponse, error) {
	merged := map[string]string{
		"Format":           "JSON",
		"Version":          aliyunAPIVersion,
		"AccessKeyId":      c.accessKeyID,
		"SignatureMethod":  "HMAC-SHA1",
		"Timestamp":        c.clock().UTC().Format("2006-01-02T15:04:05Z"),
		"SignatureVersion": "1.0",
		"SignatureNonce":   c.nonce(),
		"Action":           action,
		"RegionId":         c.regionID,
	}
	for k, v := range params {
		merged[k] = v
	}

	sig := signPOP(http.MethodPost, merged, c.accessKeySecret)

	form := url.Values{}
	for k, v := range merged {
		form.Set(k, v)
	}
	form.Set("Signature", sig)

	endpoint := c.endpoint
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/", strings.NewReader(form.Encode()))
	if err != nil {
		return apiResponse{}, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apiResponse{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apiResponse{}, &TransportError{Err: fmt.Errorf("reading vendor response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiResponse{}, &TransportError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return apiResponse{}, &TransportError{Err: fmt.Errorf("decoding vendor response: %w", err)}
	}
	if parsed.Code != "OK" {
		return parsed, &ApplicationError{Code: parsed.Code, Message: parsed.Message, RequestID: parsed.RequestID}
	}
	return parsed, nil
}
