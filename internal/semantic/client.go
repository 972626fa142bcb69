// Package semantic adapts the external similarity-analysis service into the
// pipeline's fallback detector. The service owns the embedding and vector
// index internals; this client only speaks its request/response contract.
package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnreachable signals that the analysis service could not produce a
// verdict: transport failure, non-2xx status or a malformed response body.
// It is distinct from a benign or malicious verdict so the pipeline can apply
// its fail-closed policy without counting a false security incident.
var ErrUnreachable = errors.New("semantic analysis service unreachable")

// Verdict values on the wire.
const (
	VerdictBenign    = "benign"
	VerdictMalicious = "malicious"
)

// Verdict is the analysis result for one payload.
type Verdict struct {
	Malicious       bool
	DetectedPattern string
	Reason          string
}

type analyzeRequest struct {
	Payload string `json:"payload"`
}

type analyzeResponse struct {
	Verdict         string `json:"verdict"`
	DetectedPattern string `json:"detected_pattern"`
	Reason          string `json:"reason"`
}

// Client calls the analysis service. A nil *Client disables the semantic
// stage entirely.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient returns a client for the given analyze endpoint, or nil when the
// URL is empty. The timeout bounds the whole call; on expiry the verdict is
// ErrUnreachable rather than an indefinite wait.
func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Analyze submits the payload and parses the service's verdict. No retry is
// attempted here; the pipeline decides the failure policy.
func (c *Client) Analyze(ctx context.Context, payload string) (*Verdict, error) {
	body, err := json.Marshal(analyzeRequest{Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}

	var parsed analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnreachable, err)
	}

	v := &Verdict{
		Malicious:       parsed.Verdict == VerdictMalicious,
		DetectedPattern: parsed.DetectedPattern,
		Reason:          parsed.Reason,
	}
	if v.Malicious && v.DetectedPattern == "" {
		v.DetectedPattern = "Unknown Pattern"
	}
	return v, nil
}
