package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/jfmyers9/encore/pkg/resilient"
	"github.com/jfmyers9/encore/pkg/spotify"
	"github.com/rs/zerolog"
)

// maxPollPause caps how long polling is suspended after repeated failures
const maxPollPause = 5 * time.Minute

// Player is the subset of the guarded client the poller needs
type Player interface {
	CurrentlyPlaying(ctx context.Context) resilient.Result[*spotify.CurrentlyPlaying]
}

// TrackUpdate represents one completed poll
type TrackUpdate struct {
	Track   *Playback // nil if nothing is playing or the poll failed
	Outcome resilient.Outcome
	Err     error
}

// Poller polls the player at regular intervals, slowing down while the
// API is failing
type Poller struct {
	player   Player
	interval time.Duration
	failures int
	logger   zerolog.Logger
}

// NewPoller creates a new Poller instance
func NewPoller(player Player, interval time.Duration, logger zerolog.Logger) *Poller {
	return &Poller{
		player:   player,
		interval: interval,
		logger:   logger.With().Str("component", "poller").Logger(),
	}
}

// Run starts the polling loop and sends updates to the provided channel
// Blocks until context is cancelled or authentication fails
func (p *Poller) Run(ctx context.Context, updates chan<- TrackUpdate) error {
	p.logger.Info().
		Dur("interval", p.interval).
		Msg("Starting poller")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Poller stopped")
			return ctx.Err()
		case <-timer.C:
			delay, err := p.poll(ctx, updates)
			if err != nil {
				return err
			}
			timer.Reset(delay)
		}
	}
}

// poll queries the player, sends an update and returns the delay before the
// next poll
func (p *Poller) poll(ctx context.Context, updates chan<- TrackUpdate) (time.Duration, error) {
	res := p.player.CurrentlyPlaying(ctx)
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	update := TrackUpdate{Outcome: res.Outcome, Err: res.Err()}
	if res.OK() {
		update.Track = playbackFrom(res.Value)
	}

	select {
	case updates <- update:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	if res.Outcome == resilient.OutcomeAuthFailure {
		return 0, fmt.Errorf("polling stopped: %w", res.Err())
	}

	delay := p.nextDelay(res)
	if delay > p.interval {
		p.logger.Warn().
			Str("outcome", res.Outcome.String()).
			Dur("pause", delay).
			Msg("Pausing polls")
	}
	return delay, nil
}

// nextDelay returns the regular interval after a success or a client failure,
// the server's Retry-After when rate limited, and a doubling pause otherwise
func (p *Poller) nextDelay(res resilient.Result[*spotify.CurrentlyPlaying]) time.Duration {
	switch res.Outcome {
	case resilient.OutcomeSuccess, resilient.OutcomeClientFailure:
		p.failures = 0
		return p.interval
	}

	p.failures++
	if f := res.Failure; f != nil && f.HasRetryAfter && f.RetryAfter > p.interval {
		return f.RetryAfter
	}

	delay := p.interval
	for i := 0; i < p.failures && delay < maxPollPause; i++ {
		delay *= 2
	}
	if delay > maxPollPause {
		delay = maxPollPause
	}
	return delay
}
