package resilient

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRetriesExhausted is joined to a Failure whose category was retryable
	// but which ran out of retries.
	ErrRetriesExhausted = errors.New("resilient: retries exhausted")

	// ErrWaitBudgetExceeded is joined to a Failure whose next wait would have
	// exceeded Config.MaxWait.
	ErrWaitBudgetExceeded = errors.New("resilient: wait budget exceeded")
)

// Outcome tags a Result.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeAuthFailure
	OutcomeClientFailure
	OutcomeRateLimited
	OutcomeServerFailure
	OutcomeUnclassified
)

// String returns the outcome's label.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeAuthFailure:
		return "auth-failure"
	case OutcomeClientFailure:
		return "client-failure"
	case OutcomeRateLimited:
		return "rate-limited"
	case OutcomeServerFailure:
		return "server-failure"
	case OutcomeUnclassified:
		return "unclassified"
	default:
		return "unknown"
	}
}

// Outcomes lists every Outcome in declaration order.
func Outcomes() []Outcome {
	return []Outcome{
		OutcomeSuccess,
		OutcomeAuthFailure,
		OutcomeClientFailure,
		OutcomeRateLimited,
		OutcomeServerFailure,
		OutcomeUnclassified,
	}
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	for _, o := range Outcomes() {
		if o.String() == s {
			return o, nil
		}
	}
	return OutcomeUnclassified, fmt.Errorf("resilient: unknown outcome %q", s)
}

func outcomeFor(c Category) Outcome {
	switch c {
	case FatalAuth:
		return OutcomeAuthFailure
	case FatalClient:
		return OutcomeClientFailure
	case RetryAfterDelay:
		return OutcomeRateLimited
	case RetryWithBackoff:
		return OutcomeServerFailure
	default:
		return OutcomeUnclassified
	}
}

// Failure is what Call surfaces when an operation does not succeed.
// It keeps the operation's last error intact; errors.As on a Failure
// reaches the original API error.
type Failure struct {
	Operation string
	Classification
	Attempts int
	Err      error // last error returned by the operation
	Reason   error // ErrRetriesExhausted, ErrWaitBudgetExceeded, a context error, or nil
}

// Error formats the failure with its category and the original message.
func (f *Failure) Error() string {
	desc := f.Category.String()
	switch {
	case f.Label != LabelNone && f.Status != 0:
		desc = fmt.Sprintf("%s (%s, status %d)", desc, f.Label, f.Status)
	case f.Status != 0:
		desc = fmt.Sprintf("%s (status %d)", desc, f.Status)
	}
	if f.Reason != nil {
		return fmt.Sprintf("%s: %s after %d attempt(s): %v: %v", f.Operation, desc, f.Attempts, f.Reason, f.Err)
	}
	return fmt.Sprintf("%s: %s after %d attempt(s): %v", f.Operation, desc, f.Attempts, f.Err)
}

// Unwrap exposes both the reason and the original error.
func (f *Failure) Unwrap() []error {
	if f.Reason != nil {
		return []error{f.Reason, f.Err}
	}
	return []error{f.Err}
}

// Outcome returns the tag a Result carrying this failure has.
func (f *Failure) Outcome() Outcome {
	return outcomeFor(f.Category)
}

// Result is the tagged result of Call: either a Value with OutcomeSuccess
// or a Failure with one of the failure outcomes.
type Result[T any] struct {
	Value    T
	Outcome  Outcome
	Failure  *Failure
	Attempts int
	Waits    []time.Duration // one entry per retry, in order
}

// OK reports whether the operation succeeded.
func (r Result[T]) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// Err returns the Failure as an error, or nil on success.
func (r Result[T]) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Waited returns the total time spent waiting between attempts.
func (r Result[T]) Waited() time.Duration {
	var total time.Duration
	for _, w := range r.Waits {
		total += w
	}
	return total
}
