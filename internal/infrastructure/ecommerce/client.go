package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/stocksync/backend/internal/domain/integration"
)

// maxResponseSize is the maximum allowed response size from a store (10MB)
const maxResponseSize = 10 * 1024 * 1024

// maxErrorDetail bounds the remote message copied into errors
const maxErrorDetail = 300

// authFunc decorates a request with credentials
type authFunc func(req *http.Request)

// httpTransport is the request plumbing shared by the connector and
// catalog clients: throttling, auth, size limits and status mapping.
type httpTransport struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	auth       authFunc
}

func (t *httpTransport) do(ctx context.Context, method, path string, query map[string]string, body, out any) error {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", integration.ErrStoreRateLimited, err)
		}
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("ecommerce: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("ecommerce: failed to create request: %w", err)
	}
	if len(query) > 0 {
		q := req.URL.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.auth != nil {
		t.auth(req)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", integration.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", integration.ErrStoreUnavailable, err)
	}

	if err := statusError(resp.StatusCode, payload); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrStoreInvalidResponse, err)
	}
	return nil
}

// statusError maps an HTTP status to a typed gateway error
func statusError(status int, payload []byte) error {
	switch {
	case status < 400:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d%s", integration.ErrStoreAuthFailed, status, remoteDetail(payload))
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d", integration.ErrStoreRateLimited, status)
	case status >= 500:
		return fmt.Errorf("%w: HTTP %d%s", integration.ErrStoreUnavailable, status, remoteDetail(payload))
	default:
		return fmt.Errorf("%w: HTTP %d%s", integration.ErrStoreRequestFailed, status, remoteDetail(payload))
	}
}

// remoteDetail extracts the store's error message, if any
func remoteDetail(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.Message == "" {
		return ""
	}
	msg := strings.TrimSpace(body.Message)
	if len(msg) > maxErrorDetail {
		msg = msg[:maxErrorDetail]
	}
	if body.Code != "" {
		return " - " + body.Code + ": " + msg
	}
	return " - " + msg
}
