package resilient

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// apiError is a minimal error carrying a status and optional Retry-After.
type apiError struct {
	status     int
	retryAfter time.Duration
	hasRetry   bool
}

func (e *apiError) Error() string   { return fmt.Sprintf("api error %d", e.status) }
func (e *apiError) StatusCode() int { return e.status }
func (e *apiError) RetryAfter() (time.Duration, bool) {
	return e.retryAfter, e.hasRetry
}

func TestDefaultPolicy(t *testing.T) {
	tests := []struct {
		status int
		want   Category
	}{
		{401, FatalAuth},
		{429, RetryAfterDelay},
		{400, FatalClient},
		{403, FatalClient},
		{404, FatalClient},
		{409, FatalClient},
		{418, FatalClient},
		{500, RetryWithBackoff},
		{502, RetryWithBackoff},
		{503, RetryWithBackoff},
		{599, RetryWithBackoff},
		{200, FatalUnknown},
		{302, FatalUnknown},
		{0, FatalUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			if got := DefaultPolicy(tt.status); got != tt.want {
				t.Errorf("DefaultPolicy(%d) = %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestLabelFor(t *testing.T) {
	tests := []struct {
		status int
		want   Label
	}{
		{400, LabelBadRequest},
		{403, LabelForbidden},
		{404, LabelNotFound},
		{405, LabelOtherClientError},
		{422, LabelOtherClientError},
		{401, LabelNone},
		{429, LabelNone},
		{500, LabelNone},
	}

	for _, tt := range tests {
		if got := LabelFor(tt.status); got != tt.want {
			t.Errorf("LabelFor(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		c := Classify(nil, nil)
		if c != (Classification{}) {
			t.Errorf("expected zero classification, got %+v", c)
		}
	})

	t.Run("error without status is unknown", func(t *testing.T) {
		c := Classify(errors.New("connection reset"), nil)
		if c.Category != FatalUnknown {
			t.Errorf("expected fatal-unknown, got %s", c.Category)
		}
		if c.Status != 0 {
			t.Errorf("expected status 0, got %d", c.Status)
		}
	})

	t.Run("wrapped error is unwrapped", func(t *testing.T) {
		err := fmt.Errorf("get track: %w", &apiError{status: 404})
		c := Classify(err, nil)
		if c.Category != FatalClient {
			t.Errorf("expected fatal-client, got %s", c.Category)
		}
		if c.Label != LabelNotFound {
			t.Errorf("expected not-found label, got %q", c.Label)
		}
	})

	t.Run("retry after is read", func(t *testing.T) {
		c := Classify(&apiError{status: 429, retryAfter: 5 * time.Second, hasRetry: true}, nil)
		if c.Category != RetryAfterDelay {
			t.Errorf("expected retry-after-delay, got %s", c.Category)
		}
		if !c.HasRetryAfter || c.RetryAfter != 5*time.Second {
			t.Errorf("expected retry after 5s, got %v (present=%v)", c.RetryAfter, c.HasRetryAfter)
		}
	})

	t.Run("negative retry after is ignored", func(t *testing.T) {
		c := Classify(&apiError{status: 429, retryAfter: -time.Second, hasRetry: true}, nil)
		if c.HasRetryAfter {
			t.Errorf("expected negative retry after to be dropped, got %v", c.RetryAfter)
		}
	})

	t.Run("custom policy", func(t *testing.T) {
		policy := func(status int) Category {
			if status == 404 {
				return RetryWithBackoff
			}
			return DefaultPolicy(status)
		}
		c := Classify(&apiError{status: 404}, policy)
		if c.Category != RetryWithBackoff {
			t.Errorf("expected retry-with-backoff, got %s", c.Category)
		}
		if c.Label != LabelNone {
			t.Errorf("expected no label for retryable category, got %q", c.Label)
		}
	})

	t.Run("custom policy marking 5xx as client error", func(t *testing.T) {
		policy := func(int) Category { return FatalClient }
		c := Classify(&apiError{status: 501}, policy)
		if c.Label != LabelOtherClientError {
			t.Errorf("expected other-client-error, got %q", c.Label)
		}
	})
}

func TestClassifyIsIdempotent(t *testing.T) {
	errs := []error{
		&apiError{status: 401},
		&apiError{status: 429, retryAfter: 3 * time.Second, hasRetry: true},
		&apiError{status: 400},
		&apiError{status: 503},
		errors.New("boom"),
	}

	for _, err := range errs {
		first := Classify(err, nil)
		for i := 0; i < 5; i++ {
			if got := Classify(err, nil); got != first {
				t.Errorf("classification of %v changed: %+v != %+v", err, got, first)
			}
		}
	}
}

func TestCategoryString(t *testing.T) {
	tests := map[Category]string{
		RetryAfterDelay:  "retry-after-delay",
		RetryWithBackoff: "retry-with-backoff",
		FatalAuth:        "fatal-auth",
		FatalClient:      "fatal-client",
		FatalUnknown:     "fatal-unknown",
		Category(42):     "unknown",
	}
	for c, want := range tests {
		if got := c.String(); got != want {
			t.Errorf("Category(%d).String() = %q, want %q", int(c), got, want)
		}
	}
}
