package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jfmyers9/encore/internal/metrics"
	"github.com/rs/zerolog"
)

// DefaultJournalRetention is used when Config.JournalRetention is unset
const DefaultJournalRetention = 30 * 24 * time.Hour

// Config holds daemon configuration
type Config struct {
	PollInterval     time.Duration // How often to poll the player
	StateFile        string        // Path to state persistence file
	CleanupInterval  time.Duration // How often to prune the call journal
	JournalRetention time.Duration // How long journal entries are kept
}

// Cleaner prunes old journal entries
type Cleaner interface {
	Cleanup(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Daemon coordinates the poller, state tracking, journal cleanup and the
// metrics endpoint
type Daemon struct {
	config  Config
	state   *State
	poller  *Poller
	journal Cleaner
	metrics *metrics.Server
	logger  zerolog.Logger
}

// New creates a new Daemon instance
// journal and metricsServer are optional
func New(cfg Config, player Player, journal Cleaner, metricsServer *metrics.Server, logger zerolog.Logger) (*Daemon, error) {
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", cfg.PollInterval)
	}

	if cfg.JournalRetention <= 0 {
		cfg.JournalRetention = DefaultJournalRetention
	}

	state, err := NewState(cfg.StateFile)
	if err != nil {
		// Start fresh rather than refusing to run
		logger.Warn().Err(err).Str("file", cfg.StateFile).Msg("Failed to restore state")
	}

	return &Daemon{
		config:  cfg,
		state:   state,
		poller:  NewPoller(player, cfg.PollInterval, logger),
		journal: journal,
		metrics: metricsServer,
		logger:  logger.With().Str("component", "daemon").Logger(),
	}, nil
}

// State returns the daemon's watch state
func (d *Daemon) State() *State {
	return d.state
}

// Run starts the daemon and blocks until shutdown signal received
func (d *Daemon) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Handle first signal gracefully, second signal forces exit
	go func() {
		select {
		case <-sigChan:
		case <-ctx.Done():
			return
		}
		d.logger.Info().Msg("Shutdown signal received, initiating graceful shutdown")
		cancel()

		<-sigChan
		d.logger.Warn().Msg("Second shutdown signal received, forcing exit")
		os.Exit(1)
	}()

	if err := d.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

// run is the main daemon loop
// It returns when ctx is cancelled or the poller stops on an auth failure
func (d *Daemon) run(ctx context.Context) error {
	d.logger.Info().Msg("Starting daemon")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	updates := make(chan TrackUpdate, 10)
	var pollErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		if err := d.poller.Run(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error().Err(err).Msg("Poller error")
			pollErr = err
		}
	}()

	if d.journal != nil && d.config.CleanupInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.cleanupJournal(ctx)
		}()
	}

	if d.metrics != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.metrics.Run(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.handleUpdates(ctx, updates)
	}()

	wg.Wait()

	if err := d.state.Flush(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to flush state")
	}

	d.logger.Info().Msg("Daemon stopped")
	return pollErr
}

// handleUpdates processes poll results
func (d *Daemon) handleUpdates(ctx context.Context, updates <-chan TrackUpdate) {
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-updates:
			if err := d.handleUpdate(update); err != nil {
				d.logger.Error().Err(err).Msg("Failed to handle track update")
			}
		}
	}
}

// handleUpdate applies a single poll result to the state
func (d *Daemon) handleUpdate(update TrackUpdate) error {
	if err := d.state.RecordPoll(time.Now(), update.Outcome.String()); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to persist poll")
	}

	if update.Err != nil {
		// The wrapper has already logged the failure
		d.logger.Debug().Err(update.Err).Str("outcome", update.Outcome.String()).Msg("Poll failed")
		return nil
	}

	current := d.state.GetState()
	track := update.Track

	if track == nil {
		if current.Track != nil {
			d.logger.Info().Msg("Playback stopped")
			return d.state.Reset()
		}
		return nil
	}

	if current.Track == nil || !isSameTrack(current.Track, track) {
		d.logger.Info().
			Str("track", track.Name).
			Str("artist", track.Artist).
			Str("album", track.Album).
			Msg("Track changed")

		if err := d.state.SetTrack(track); err != nil {
			return fmt.Errorf("failed to set track: %w", err)
		}
		return nil
	}

	if current.Track.Playing != track.Playing {
		ev := d.logger.Info().Str("track", track.Name)
		if track.Playing {
			ev.Msg("Playback resumed")
		} else {
			ev.Dur("played", d.state.GetPlayedDuration()).Msg("Playback paused")
		}
	}

	return d.state.UpdatePosition(track)
}

// cleanupJournal periodically prunes old journal entries
func (d *Daemon) cleanupJournal(ctx context.Context) {
	ticker := time.NewTicker(d.config.CleanupInterval)
	defer ticker.Stop()

	d.pruneJournal(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.pruneJournal(ctx)
		}
	}
}

func (d *Daemon) pruneJournal(ctx context.Context) {
	removed, err := d.journal.Cleanup(ctx, d.config.JournalRetention)
	if err != nil {
		d.logger.Warn().Err(err).Msg("Failed to clean up journal")
		return
	}
	if removed > 0 {
		d.logger.Info().Int64("removed", removed).Msg("Cleaned up journal")
	}
}
