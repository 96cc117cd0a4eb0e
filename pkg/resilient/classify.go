package resilient

import (
	"errors"
	"net/http"
	"time"
)

// Category is the retry decision for a failure.
type Category int

const (
	FatalUnknown     Category = iota // no usable status; surface as-is
	RetryAfterDelay                  // rate limited; wait the server's Retry-After
	RetryWithBackoff                 // server failure; exponential backoff
	FatalAuth                        // authentication failed
	FatalClient                      // the request itself is wrong
)

// String returns the category's label.
func (c Category) String() string {
	switch c {
	case RetryAfterDelay:
		return "retry-after-delay"
	case RetryWithBackoff:
		return "retry-with-backoff"
	case FatalAuth:
		return "fatal-auth"
	case FatalClient:
		return "fatal-client"
	case FatalUnknown:
		return "fatal-unknown"
	default:
		return "unknown"
	}
}

// Retryable reports whether failures of this category are retried.
func (c Category) Retryable() bool {
	return c == RetryAfterDelay || c == RetryWithBackoff
}

// Label names the kind of client-side failure.
type Label string

const (
	LabelNone             Label = ""
	LabelBadRequest       Label = "bad-request"
	LabelForbidden        Label = "forbidden"
	LabelNotFound         Label = "not-found"
	LabelOtherClientError Label = "other-client-error"
)

// LabelFor returns the client failure label for a 4xx status.
// Statuses outside 4xx, and 401/429 which have their own categories, get LabelNone.
func LabelFor(status int) Label {
	switch {
	case status == http.StatusBadRequest:
		return LabelBadRequest
	case status == http.StatusForbidden:
		return LabelForbidden
	case status == http.StatusNotFound:
		return LabelNotFound
	case status == http.StatusUnauthorized, status == http.StatusTooManyRequests:
		return LabelNone
	case status >= 400 && status < 500:
		return LabelOtherClientError
	default:
		return LabelNone
	}
}

// StatusCoder is implemented by errors that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// RetryAfterer is implemented by errors that carry a server-suggested wait.
type RetryAfterer interface {
	RetryAfter() (time.Duration, bool)
}

// Policy maps an HTTP status to a Category.
type Policy func(status int) Category

// DefaultPolicy is the status mapping described in the package documentation.
func DefaultPolicy(status int) Category {
	switch {
	case status == http.StatusUnauthorized:
		return FatalAuth
	case status == http.StatusTooManyRequests:
		return RetryAfterDelay
	case status >= 500:
		return RetryWithBackoff
	case status >= 400:
		return FatalClient
	default:
		return FatalUnknown
	}
}

// Classification is the result of classifying one failure.
type Classification struct {
	Category      Category
	Status        int // 0 when the failure carried no status
	Label         Label
	RetryAfter    time.Duration
	HasRetryAfter bool
}

// Classify inspects err and returns its Classification under policy.
// A nil policy means DefaultPolicy. Classify has no side effects, so
// classifying the same error twice yields the same result.
func Classify(err error, policy Policy) Classification {
	if err == nil {
		return Classification{}
	}
	if policy == nil {
		policy = DefaultPolicy
	}

	var sc StatusCoder
	if !errors.As(err, &sc) {
		return Classification{Category: FatalUnknown}
	}

	status := sc.StatusCode()
	c := Classification{
		Category: policy(status),
		Status:   status,
	}
	if c.Category == FatalClient {
		c.Label = LabelFor(status)
		if c.Label == LabelNone {
			c.Label = LabelOtherClientError
		}
	}

	var ra RetryAfterer
	if errors.As(err, &ra) {
		c.RetryAfter, c.HasRetryAfter = ra.RetryAfter()
		if c.RetryAfter < 0 {
			c.RetryAfter, c.HasRetryAfter = 0, false
		}
	}

	return c
}
