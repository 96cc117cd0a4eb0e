package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const userAgent = "encore/1.0"

// do makes a single HTTP request to the Web API.
//
// It handles:
// - Client-side pacing when RequestsPerSecond is configured
// - Bearer token acquisition and refresh
// - JSON request and response bodies
// - Decoding error responses into *Error
//
// do does not retry. Callers that want retries run it through the
// resilient package, which classifies the *Error values returned here.
// The returned status is 0 when no response was received.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) (int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("spotify: rate limiter: %w", err)
		}
	}

	token, err := c.tokenSource.Token()
	if err != nil {
		return 0, tokenError(err)
	}
	if token == nil || token.AccessToken == "" {
		return 0, ErrNoToken
	}

	u := strings.TrimRight(c.baseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("spotify: failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return 0, fmt.Errorf("spotify: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logDebugf("spotify: %s %s", method, path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("spotify: http request failed: %w", err)
	}

	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return resp.StatusCode, fmt.Errorf("spotify: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp, data)
		c.logDebugf("spotify: %s %s failed: %v", method, path, apiErr)
		return resp.StatusCode, apiErr
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 && resp.StatusCode != http.StatusNoContent {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("spotify: failed to parse response: %w", err)
		}
	}

	c.logDebugf("spotify: %s %s succeeded (%d)", method, path, resp.StatusCode)
	return resp.StatusCode, nil
}
