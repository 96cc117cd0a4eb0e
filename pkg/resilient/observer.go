package resilient

import "time"

// Observer receives callbacks from Call. Implementations must be safe for
// concurrent use when one Config is shared across goroutines.
type Observer interface {
	OnAttempt(operation string, attempt int)
	OnRetry(operation string, c Classification, wait time.Duration)
	OnResult(operation string, outcome Outcome, attempts int)
}

type nopObserver struct{}

func (nopObserver) OnAttempt(string, int)                          {}
func (nopObserver) OnRetry(string, Classification, time.Duration) {}
func (nopObserver) OnResult(string, Outcome, int)                  {}

// Observers fans callbacks out to each observer in order.
type Observers []Observer

func (o Observers) OnAttempt(operation string, attempt int) {
	for _, ob := range o {
		ob.OnAttempt(operation, attempt)
	}
}

func (o Observers) OnRetry(operation string, c Classification, wait time.Duration) {
	for _, ob := range o {
		ob.OnRetry(operation, c, wait)
	}
}

func (o Observers) OnResult(operation string, outcome Outcome, attempts int) {
	for _, ob := range o {
		ob.OnResult(operation, outcome, attempts)
	}
}
