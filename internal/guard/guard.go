package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jfmyers9/encore/internal/config"
	"github.com/jfmyers9/encore/internal/journal"
	"github.com/jfmyers9/encore/pkg/resilient"
	"github.com/jfmyers9/encore/pkg/spotify"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// UserScopes are the scopes requested during authorization
var UserScopes = []string{
	"user-read-currently-playing",
	"user-read-playback-state",
	"user-modify-playback-state",
}

// Recorder stores finished calls
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) (int64, error)
}

// Options configures a Client
type Options struct {
	Retry   resilient.Config
	Journal Recorder // optional
	Market  string   // optional market for catalog lookups
	Logger  zerolog.Logger
}

// Client runs Spotify API calls through the resilient wrapper and records
// each call in the journal
type Client struct {
	api     *spotify.Client
	retry   resilient.Config
	journal Recorder
	market  string
	logger  zerolog.Logger
}

// New wraps an API client
func New(api *spotify.Client, opts Options) *Client {
	return &Client{
		api:     api,
		retry:   opts.Retry,
		journal: opts.Journal,
		market:  opts.Market,
		logger:  opts.Logger.With().Str("component", "guard").Logger(),
	}
}

// NewSpotifyClient builds an API client from configuration
// When a refresh token is configured the client acts on behalf of that user,
// otherwise it uses the client credentials flow
func NewSpotifyClient(cfg config.SpotifyConfig, logger zerolog.Logger) (*spotify.Client, error) {
	spotifyCfg := spotify.Config{
		ClientID:          cfg.ClientID,
		ClientSecret:      cfg.ClientSecret,
		RedirectURL:       cfg.RedirectURL,
		Scopes:            UserScopes,
		Logger:            debugLogger{logger: logger.With().Str("component", "spotify").Logger()},
		RequestsPerSecond: cfg.RequestsPerSecond,
	}
	if cfg.RefreshToken != "" {
		spotifyCfg.Token = &oauth2.Token{RefreshToken: cfg.RefreshToken}
	}

	client, err := spotify.NewClient(spotifyCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create spotify client: %w", err)
	}
	return client, nil
}

// RetryConfig converts configured retry bounds into a wrapper config
func RetryConfig(cfg config.RetryConfig) resilient.Config {
	return resilient.Config{
		MaxRetries:  cfg.MaxRetries,
		BaseBackoff: cfg.BaseBackoff,
		MaxBackoff:  cfg.MaxBackoff,
		MaxWait:     cfg.MaxWait,
	}
}

// API returns the underlying API client
func (c *Client) API() *spotify.Client {
	return c.api
}

// Track looks up a catalog track
func (c *Client) Track(ctx context.Context, id string) resilient.Result[*spotify.Track] {
	return run(ctx, c, "tracks.get", func(ctx context.Context) (*spotify.Track, error) {
		return c.api.Tracks().Get(ctx, id, c.market)
	})
}

// SearchTracks searches the catalog
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) resilient.Result[*spotify.TrackPage] {
	return run(ctx, c, "search.tracks", func(ctx context.Context) (*spotify.TrackPage, error) {
		return c.api.Search().Tracks(ctx, query, limit)
	})
}

// CurrentlyPlaying returns the user's playback, nil when idle
func (c *Client) CurrentlyPlaying(ctx context.Context) resilient.Result[*spotify.CurrentlyPlaying] {
	return run(ctx, c, "player.currently_playing", func(ctx context.Context) (*spotify.CurrentlyPlaying, error) {
		return c.api.Player().CurrentlyPlaying(ctx)
	})
}

// Play resumes playback
func (c *Client) Play(ctx context.Context) resilient.Result[struct{}] {
	return c.control(ctx, "player.play", c.api.Player().Play)
}

// Pause pauses playback
func (c *Client) Pause(ctx context.Context) resilient.Result[struct{}] {
	return c.control(ctx, "player.pause", c.api.Player().Pause)
}

// Next skips to the next track
func (c *Client) Next(ctx context.Context) resilient.Result[struct{}] {
	return c.control(ctx, "player.next", c.api.Player().Next)
}

// Previous goes back to the previous track
func (c *Client) Previous(ctx context.Context) resilient.Result[struct{}] {
	return c.control(ctx, "player.previous", c.api.Player().Previous)
}

func (c *Client) control(ctx context.Context, name string, fn func(context.Context) error) resilient.Result[struct{}] {
	return run(ctx, c, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}

// run executes op under the wrapper with a per-call id and journals the result
func run[T any](ctx context.Context, c *Client, name string, op resilient.Operation[T]) resilient.Result[T] {
	callID := uuid.NewString()
	logger := c.logger.With().Str("call_id", callID).Logger()

	cfg := c.retry
	cfg.Logger = &logger

	res := resilient.Call(ctx, cfg, name, op)

	entry := journal.Entry{
		CallID:    callID,
		Operation: name,
		Outcome:   res.Outcome,
		Attempts:  res.Attempts,
		Waited:    res.Waited(),
	}
	if f := res.Failure; f != nil {
		entry.Category = f.Category.String()
		entry.Label = string(f.Label)
		entry.Status = f.Status
		entry.Error = f.Error()
	}
	c.record(ctx, entry)

	return res
}

func (c *Client) record(ctx context.Context, entry journal.Entry) {
	if c.journal == nil {
		return
	}
	// Record even when the call was cancelled
	if _, err := c.journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		c.logger.Warn().Err(err).Str("call_id", entry.CallID).Msg("Failed to record call")
	}
}

// IsAuthFailure reports whether err is an authentication failure surfaced by the wrapper
func IsAuthFailure(err error) bool {
	var f *resilient.Failure
	return errors.As(err, &f) && f.Category == resilient.FatalAuth
}

// debugLogger adapts zerolog to the SDK's Logger interface
type debugLogger struct {
	logger zerolog.Logger
}

func (l debugLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}
