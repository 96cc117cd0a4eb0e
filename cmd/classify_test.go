package cmd

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jfmyers9/encore/pkg/resilient"
	"github.com/jfmyers9/encore/pkg/spotify"
)

func TestPrintClassification(t *testing.T) {
	retry := resilient.Config{BaseBackoff: time.Second, MaxBackoff: time.Minute}

	tests := []struct {
		name       string
		status     int
		retryAfter string
		attempt    int
		want       []string
	}{
		{
			name:       "rate limited with retry-after",
			status:     429,
			retryAfter: "5",
			attempt:    1,
			want:       []string{"Category: retry-after-delay", "Outcome:  rate-limited", "retry 1 waits 5s (Retry-After)"},
		},
		{
			name:    "rate limited without retry-after",
			status:  429,
			attempt: 2,
			want:    []string{"retry 2 waits 2s (exponential backoff)"},
		},
		{
			name:    "server error third retry",
			status:  503,
			attempt: 3,
			want:    []string{"Category: retry-with-backoff", "retry 3 waits 4s (exponential backoff)"},
		},
		{
			name:    "unauthorized",
			status:  401,
			attempt: 1,
			want:    []string{"Category: fatal-auth", "Outcome:  auth-failure", "not retried"},
		},
		{
			name:    "not found",
			status:  404,
			attempt: 1,
			want:    []string{"Category: fatal-client", "Label:    not-found", "not retried"},
		},
		{
			name:    "teapot",
			status:  418,
			attempt: 1,
			want:    []string{"Label:    other-client-error"},
		},
		{
			name:    "redirect is unclassified",
			status:  302,
			attempt: 1,
			want:    []string{"Category: fatal-unknown", "Outcome:  unclassified"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := &spotify.Error{HTTPStatus: tt.status, Header: http.Header{}}
			if tt.retryAfter != "" {
				apiErr.Header.Set("Retry-After", tt.retryAfter)
			}

			var buf bytes.Buffer
			printClassification(&buf, retry, apiErr, tt.attempt)

			out := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}
