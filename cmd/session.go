package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jfmyers9/encore/internal/config"
	"github.com/jfmyers9/encore/internal/guard"
	"github.com/jfmyers9/encore/internal/journal"
	"github.com/jfmyers9/encore/pkg/resilient"
	"github.com/rs/zerolog"
)

// session bundles what a command needs to call the API
type session struct {
	cfg     *config.Config
	client  *guard.Client
	journal *journal.Journal
	logger  zerolog.Logger
}

// openSession loads configuration, opens the journal and builds the guarded
// client. Commands acting on a user's playback pass requireUser.
func openSession(requireUser bool, observer resilient.Observer) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasCredentials() {
		return nil, fmt.Errorf("Spotify credentials not configured. Run 'encore auth' first")
	}
	if requireUser && !cfg.HasUserToken() {
		return nil, fmt.Errorf("no Spotify user authorized. Run 'encore auth' first")
	}

	logger := setupLogger(logFile, logLevel)

	dir, err := resolveDataDir()
	if err != nil {
		return nil, err
	}

	j, err := journal.New(filepath.Join(dir, "journal.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	api, err := guard.NewSpotifyClient(cfg.Spotify, logger)
	if err != nil {
		j.Close()
		return nil, err
	}

	retry := guard.RetryConfig(cfg.Retry)
	retry.Observer = observer

	return &session{
		cfg: cfg,
		client: guard.New(api, guard.Options{
			Retry:   retry,
			Journal: j,
			Market:  cfg.Spotify.Market,
			Logger:  logger,
		}),
		journal: j,
		logger:  logger,
	}, nil
}

func (s *session) Close() {
	if err := s.journal.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to close journal")
	}
}

// resolveDataDir returns the data directory, creating it if needed
func resolveDataDir() (string, error) {
	dir := dataDir
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".local", "share", "encore")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dir, nil
}

// resultValue unwraps a call result, adding a hint when the user has to
// re-authorize
func resultValue[T any](res resilient.Result[T]) (T, error) {
	if res.OK() {
		return res.Value, nil
	}
	if guard.IsAuthFailure(res.Err()) {
		return res.Value, fmt.Errorf("%w\nRun 'encore auth' to authorize again", res.Err())
	}
	return res.Value, res.Err()
}
