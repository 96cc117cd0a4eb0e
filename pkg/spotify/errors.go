package spotify

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Error represents a Web API error.
//
// It carries the HTTP status, the service's error code (the player "reason"
// or the OAuth error string, when present), the message, and the response
// headers. It implements the status and Retry-After accessors the resilient
// package uses to classify failures.
type Error struct {
	HTTPStatus int         // HTTP status of the failed call
	Code       string      // Service-specific error code, may be empty
	Message    string      // Human-readable description
	Header     http.Header // Response headers, may be nil
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("spotify: error %d (%s): %s", e.HTTPStatus, e.Code, e.Message)
	}
	return fmt.Sprintf("spotify: error %d: %s", e.HTTPStatus, e.Message)
}

// Is reports whether target is an *Error with the same HTTP status.
//
// This allows errors.Is() to match against status-only sentinels such as
// &Error{HTTPStatus: 404}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.HTTPStatus == t.HTTPStatus
}

// StatusCode returns the HTTP status.
func (e *Error) StatusCode() int {
	return e.HTTPStatus
}

// RetryAfter returns the wait suggested by the Retry-After header.
//
// Both delay-seconds and HTTP-date forms are accepted. The second value is
// false when the header is missing or unparsable.
func (e *Error) RetryAfter() (time.Duration, bool) {
	if e.Header == nil {
		return 0, false
	}
	v := strings.TrimSpace(e.Header.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(v); err == nil {
		d := time.Until(at)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

// Temporary returns true if the error is temporary and the request
// should be retried: rate limiting (429) and server errors (5xx).
func (e *Error) Temporary() bool {
	return e.HTTPStatus == http.StatusTooManyRequests || e.HTTPStatus >= 500
}

// Player error reasons returned in the "reason" field.
const (
	ReasonNoActiveDevice    = "NO_ACTIVE_DEVICE"
	ReasonPremiumRequired   = "PREMIUM_REQUIRED"
	ReasonRateLimited       = "RATE_LIMITED"
	ReasonUnknown           = "UNKNOWN"
	ReasonNoPrevTrack       = "NO_PREV_TRACK"
	ReasonNoNextTrack       = "NO_NEXT_TRACK"
	ReasonAlreadyPaused     = "ALREADY_PAUSED"
	ReasonNotPaused         = "NOT_PAUSED"
	ReasonEndlessContext    = "ENDLESS_CONTEXT"
	ReasonContextDisallow   = "CONTEXT_DISALLOW"
	ReasonDeviceNotControl  = "DEVICE_NOT_CONTROLLABLE"
	ReasonVolumeNotControl  = "VOLUME_CONTROL_DISALLOW"
	ReasonRemoteControlDeny = "REMOTE_CONTROL_DISALLOW"
)

// Predefined errors for common cases.
var (
	// ErrNoToken is returned when no access token could be obtained.
	ErrNoToken = errors.New("spotify: no access token")

	// ErrInvalidConfig is returned when client configuration is invalid.
	ErrInvalidConfig = errors.New("spotify: invalid configuration")
)

// regularError is the body of a failed Web API call.
type regularError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"error"`
}

// authError is the body of a failed accounts service call.
type authError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// decodeError builds an *Error from a non-2xx response.
func decodeError(resp *http.Response, body []byte) *Error {
	apiErr := &Error{
		HTTPStatus: resp.StatusCode,
		Header:     resp.Header.Clone(),
	}

	var regular regularError
	if err := json.Unmarshal(body, &regular); err == nil && regular.Error.Message != "" {
		apiErr.Message = regular.Error.Message
		apiErr.Code = regular.Error.Reason
		if regular.Error.Status != 0 {
			apiErr.HTTPStatus = regular.Error.Status
		}
		return apiErr
	}

	var auth authError
	if err := json.Unmarshal(body, &auth); err == nil && auth.Error != "" {
		apiErr.Code = auth.Error
		apiErr.Message = auth.ErrorDescription
		if apiErr.Message == "" {
			apiErr.Message = auth.Error
		}
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// tokenError converts a failure to obtain an access token into an *Error.
//
// Token endpoint rejections (invalid_grant, invalid_client, ...) come back
// as 400s; they are reported as 401 because the only fix is to authenticate
// again. Rate limiting and server errors keep their status so they stay
// retryable.
func tokenError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) || re.Response == nil {
		return fmt.Errorf("%w: %v", ErrNoToken, err)
	}

	status := re.Response.StatusCode
	if status != http.StatusTooManyRequests && status < 500 {
		status = http.StatusUnauthorized
	}

	msg := re.ErrorDescription
	if msg == "" {
		msg = strings.TrimSpace(string(re.Body))
	}
	if msg == "" {
		msg = "failed to obtain access token"
	}

	return &Error{
		HTTPStatus: status,
		Code:       re.ErrorCode,
		Message:    msg,
		Header:     re.Response.Header.Clone(),
	}
}
