// Package authority talks to the remote identity service that owns credential
// signatures and expiry. Only verification lives here; issuance is the
// authority's business.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"hoopwatch/pkg/platform/sentinel"
)

// VerifyResult is the authority's verdict on a credential.
type VerifyResult struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"userId"`
}

// Client verifies credentials against the identity authority.
type Client interface {
	VerifyToken(ctx context.Context, token string) (VerifyResult, error)
}

// HTTPClient is the production implementation. Transport failures surface as
// sentinel.ErrUnavailable so the verifier can fail closed.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type verifyRequest struct {
	Token string `json:"token"`
}

func (c *HTTPClient) VerifyToken(ctx context.Context, token string) (VerifyResult, error) {
	body, err := json.Marshal(verifyRequest{Token: token})
	if err != nil {
		return VerifyResult{}, fmt.Errorf("marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/auth/verify", bytes.NewReader(body))
	if err != nil {
		return VerifyResult{}, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("identity authority call: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return VerifyResult{}, fmt.Errorf("identity authority returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var result VerifyResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return VerifyResult{}, fmt.Errorf("decode verify response: %w", err)
	}
	return result, nil
}
