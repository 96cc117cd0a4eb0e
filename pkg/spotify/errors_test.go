package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestErrorDecoding(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		header      map[string]string
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "regular error object",
			status:      http.StatusNotFound,
			body:        `{"error":{"status":404,"message":"Non existing id"}}`,
			wantStatus:  404,
			wantMessage: "Non existing id",
		},
		{
			name:        "player error with reason",
			status:      http.StatusNotFound,
			body:        `{"error":{"status":404,"message":"Player command failed: No active device found","reason":"NO_ACTIVE_DEVICE"}}`,
			wantStatus:  404,
			wantCode:    ReasonNoActiveDevice,
			wantMessage: "Player command failed: No active device found",
		},
		{
			name:        "expired token",
			status:      http.StatusUnauthorized,
			body:        `{"error":{"status":401,"message":"The access token expired"}}`,
			wantStatus:  401,
			wantMessage: "The access token expired",
		},
		{
			name:        "authentication error object",
			status:      http.StatusBadRequest,
			body:        `{"error":"invalid_grant","error_description":"Invalid authorization code"}`,
			wantStatus:  400,
			wantCode:    "invalid_grant",
			wantMessage: "Invalid authorization code",
		},
		{
			name:        "rate limited without body",
			status:      http.StatusTooManyRequests,
			body:        ``,
			header:      map[string]string{"Retry-After": "7"},
			wantStatus:  429,
			wantMessage: "Too Many Requests",
		},
		{
			name:        "html from a proxy",
			status:      http.StatusBadGateway,
			body:        `<html>bad gateway</html>`,
			wantStatus:  502,
			wantMessage: "<html>bad gateway</html>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				if _, err := w.Write([]byte(tt.body)); err != nil {
					t.Fatalf("failed to write response body: %v", err)
				}
			})

			_, err := client.Tracks().Get(context.Background(), "abc", "")
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *Error, got %T: %v", err, err)
			}
			if apiErr.HTTPStatus != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, apiErr.HTTPStatus)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, apiErr.Code)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, apiErr.Message)
			}
			for k, v := range tt.header {
				if got := apiErr.Header.Get(k); got != v {
					t.Errorf("expected header %s=%s, got %s", k, v, got)
				}
			}
		})
	}
}

func TestErrorRetryAfter(t *testing.T) {
	future := time.Now().Add(30 * time.Second).UTC().Format(http.TimeFormat)

	tests := []struct {
		name    string
		header  string
		wantOK  bool
		wantMin time.Duration
		wantMax time.Duration
	}{
		{name: "seconds", header: "5", wantOK: true, wantMin: 5 * time.Second, wantMax: 5 * time.Second},
		{name: "zero", header: "0", wantOK: true},
		{name: "http date", header: future, wantOK: true, wantMin: 25 * time.Second, wantMax: 31 * time.Second},
		{name: "missing", header: ""},
		{name: "garbage", header: "soon"},
		{name: "negative", header: "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Error{HTTPStatus: 429, Header: http.Header{}}
			if tt.header != "" {
				e.Header.Set("Retry-After", tt.header)
			}
			d, ok := e.RetryAfter()
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if d < tt.wantMin || d > tt.wantMax {
				t.Errorf("expected %v..%v, got %v", tt.wantMin, tt.wantMax, d)
			}
		})
	}

	t.Run("nil header", func(t *testing.T) {
		if _, ok := (&Error{HTTPStatus: 429}).RetryAfter(); ok {
			t.Error("expected no retry after with nil header")
		}
	})
}

func TestErrorTemporary(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{400, false},
		{401, false},
		{403, false},
		{404, false},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tt := range tests {
		e := &Error{HTTPStatus: tt.status}
		if got := e.Temporary(); got != tt.want {
			t.Errorf("Temporary() for %d = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("lookup: %w", &Error{HTTPStatus: 404, Message: "Non existing id"})
	if !errors.Is(err, &Error{HTTPStatus: 404}) {
		t.Error("expected errors.Is to match on status")
	}
	if errors.Is(err, &Error{HTTPStatus: 403}) {
		t.Error("expected errors.Is not to match a different status")
	}
}

func TestErrorString(t *testing.T) {
	e := &Error{HTTPStatus: 403, Code: ReasonPremiumRequired, Message: "Premium required"}
	if got := e.Error(); !strings.Contains(got, "403") || !strings.Contains(got, ReasonPremiumRequired) {
		t.Errorf("unexpected error string %q", got)
	}
	e = &Error{HTTPStatus: 500, Message: "Server error"}
	if got := e.Error(); got != "spotify: error 500: Server error" {
		t.Errorf("unexpected error string %q", got)
	}
}
