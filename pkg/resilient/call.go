package resilient

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied by Config for zero-valued fields.
const (
	DefaultMaxRetries  = 5
	DefaultBaseBackoff = 1 * time.Second
	DefaultMaxBackoff  = 60 * time.Second
	DefaultMaxWait     = 5 * time.Minute
)

// SleepFunc waits for d or until ctx is done, returning ctx.Err() in the latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Operation is one outbound API call.
type Operation[T any] func(ctx context.Context) (T, error)

// Config controls how Call retries.
type Config struct {
	// MaxRetries bounds retries after the first attempt.
	// Zero means DefaultMaxRetries; negative disables retries.
	MaxRetries int

	// BaseBackoff is the first server-failure delay; the nth is BaseBackoff * 2^n.
	BaseBackoff time.Duration

	// MaxBackoff caps a single backoff delay. It does not shorten Retry-After.
	MaxBackoff time.Duration

	// MaxWait bounds the total time spent waiting across retries.
	// Zero means DefaultMaxWait; negative means unbounded.
	MaxWait time.Duration

	Policy   Policy
	Sleep    SleepFunc
	Logger   *zerolog.Logger
	Observer Observer
}

func (c Config) normalized() Config {
	cfg := c
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = DefaultBaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = DefaultMaxWait
	}
	if cfg.Policy == nil {
		cfg.Policy = DefaultPolicy
	}
	if cfg.Sleep == nil {
		cfg.Sleep = Sleep
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	return cfg
}

// Backoff returns the delay before the (n+1)th server-failure retry:
// BaseBackoff * 2^n, capped at MaxBackoff.
func (c Config) Backoff(n int) time.Duration {
	cfg := c.normalized()
	d := cfg.BaseBackoff
	for i := 0; i < n; i++ {
		d *= 2
		if d >= cfg.MaxBackoff || d <= 0 {
			return cfg.MaxBackoff
		}
	}
	if d > cfg.MaxBackoff {
		return cfg.MaxBackoff
	}
	return d
}

// Delay returns the wait before retrying a failure classified as c, given
// that n backoff delays have already been used. backedOff reports whether
// the wait came from the backoff schedule rather than Retry-After.
// Non-retryable categories get no wait.
func (c Config) Delay(cl Classification, n int) (wait time.Duration, backedOff bool) {
	switch {
	case !cl.Category.Retryable():
		return 0, false
	case cl.Category == RetryAfterDelay && cl.HasRetryAfter:
		return cl.RetryAfter, false
	default:
		return c.Backoff(n), true
	}
}

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Call runs op until it succeeds, fails with a non-retryable category, or the
// retry bounds in cfg are reached. name identifies the operation in logs,
// observer callbacks and the returned Failure.
func Call[T any](ctx context.Context, cfg Config, name string, op Operation[T]) Result[T] {
	cfg = cfg.normalized()
	log := cfg.Logger.With().Str("operation", name).Logger()

	var (
		res      Result[T]
		waited   time.Duration
		backoffN int
	)

	fail := func(c Classification, err, reason error) Result[T] {
		res.Failure = &Failure{
			Operation:      name,
			Classification: c,
			Attempts:       res.Attempts,
			Err:            err,
			Reason:         reason,
		}
		res.Outcome = res.Failure.Outcome()
		logFailure(&log, res.Failure)
		cfg.Observer.OnResult(name, res.Outcome, res.Attempts)
		return res
	}

	for {
		res.Attempts++
		cfg.Observer.OnAttempt(name, res.Attempts)
		log.Debug().Int("attempt", res.Attempts).Msg("Calling API")

		value, err := op(ctx)
		if err == nil {
			res.Value = value
			res.Outcome = OutcomeSuccess
			if res.Attempts > 1 {
				log.Info().Int("attempts", res.Attempts).Dur("waited", waited).Msg("Call succeeded after retry")
			}
			cfg.Observer.OnResult(name, res.Outcome, res.Attempts)
			return res
		}

		c := Classify(err, cfg.Policy)
		if !c.Category.Retryable() {
			return fail(c, err, nil)
		}
		if res.Attempts > cfg.MaxRetries {
			return fail(c, err, ErrRetriesExhausted)
		}

		wait, backedOff := cfg.Delay(c, backoffN)
		if backedOff {
			backoffN++
		}

		if cfg.MaxWait > 0 && waited+wait > cfg.MaxWait {
			return fail(c, err, ErrWaitBudgetExceeded)
		}

		logRetry(&log, c, err, wait, res.Attempts)
		cfg.Observer.OnRetry(name, c, wait)

		if sleepErr := cfg.Sleep(ctx, wait); sleepErr != nil {
			cancelled := Classification{Category: FatalUnknown, Status: c.Status}
			return fail(cancelled, err, sleepErr)
		}
		waited += wait
		res.Waits = append(res.Waits, wait)
	}
}

// Do is Call for callers that only need the value or an error.
// The error, when non-nil, is a *Failure.
func Do[T any](ctx context.Context, cfg Config, name string, op Operation[T]) (T, error) {
	res := Call(ctx, cfg, name, op)
	return res.Value, res.Err()
}

func logRetry(log *zerolog.Logger, c Classification, err error, wait time.Duration, attempt int) {
	ev := log.Warn().
		Err(err).
		Int("status", c.Status).
		Str("category", c.Category.String()).
		Int("attempt", attempt).
		Dur("wait", wait)

	switch c.Category {
	case RetryAfterDelay:
		if c.HasRetryAfter {
			ev.Msgf("Rate limited, retrying after %s as requested by the server", wait)
		} else {
			ev.Msgf("Rate limited without Retry-After, backing off %s", wait)
		}
	default:
		ev.Msgf("Server error, retrying in %s", wait)
	}
}

func logFailure(log *zerolog.Logger, f *Failure) {
	ev := log.Error().
		Err(f.Err).
		Int("status", f.Status).
		Str("category", f.Category.String()).
		Int("attempts", f.Attempts)
	if f.Label != LabelNone {
		ev = ev.Str("label", string(f.Label))
	}
	if f.Reason != nil {
		ev = ev.AnErr("reason", f.Reason)
	}

	switch f.Category {
	case FatalAuth:
		ev.Msg("Authentication failed, credentials must be renewed")
	case FatalClient:
		ev.Msgf("Client error (%s), fix the request before retrying", f.Label)
	case RetryWithBackoff:
		ev.Msg("Server error persisted after retries, check the service status")
	case RetryAfterDelay:
		ev.Msg("Still rate limited after retries")
	default:
		ev.Msg("Call failed")
	}
}
