package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jfmyers9/encore/internal/daemon"
	"github.com/jfmyers9/encore/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	daemonMetricsAddr string
	daemonRetention   time.Duration
)

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Follow Spotify playback and serve API metrics",
	Long: `Run a daemon that follows what you are listening to on Spotify.

The daemon will:
- Poll the currently playing track every few seconds and log track changes
- Track play time, handling pause/resume correctly
- Pause polling while the API is rate limiting or failing
- Record every call in the journal and prune old entries
- Serve Prometheus metrics when a metrics address is configured
- Handle graceful shutdown on SIGINT/SIGTERM

The daemon runs in the foreground and logs to stderr by default.
Use the --log-file flag to log to a file.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.Flags().StringVar(&daemonMetricsAddr, "metrics-addr", "", "Metrics listen address, e.g. 127.0.0.1:9464 (overrides config)")
	daemonCmd.Flags().DurationVar(&daemonRetention, "retention", daemon.DefaultJournalRetention, "How long journal entries are kept")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	// The daemon logs at info unless asked otherwise
	if !cmd.Flags().Changed("log-level") {
		logLevel = "info"
	}

	reg := prometheus.NewRegistry()
	observer := metrics.NewObserver(reg)

	s, err := openSession(true, observer)
	if err != nil {
		return err
	}
	defer s.Close()

	logger := s.logger
	logger.Info().
		Str("version", version).
		Msg("Starting encore daemon")

	dir, err := resolveDataDir()
	if err != nil {
		return err
	}
	logger.Info().Str("data_dir", dir).Msg("Using data directory")

	addr := daemonMetricsAddr
	if addr == "" {
		addr = s.cfg.Metrics.Address
	}
	var metricsServer *metrics.Server
	if addr != "" {
		metricsServer = metrics.NewServer(addr, reg, logger)
	}

	daemonCfg := daemon.Config{
		PollInterval:     time.Duration(s.cfg.PollInterval) * time.Second,
		StateFile:        filepath.Join(dir, "state.json"),
		CleanupInterval:  time.Hour,
		JournalRetention: daemonRetention,
	}

	d, err := daemon.New(daemonCfg, s.client, s.journal, metricsServer, logger)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	// Run daemon (blocks until shutdown signal)
	if err := d.Run(); err != nil {
		return fmt.Errorf("daemon error: %w", err)
	}

	return nil
}

// setupLogger builds the root logger. Unknown levels fall back to info.
// Logging to stderr uses the console writer, files get JSON lines.
func setupLogger(logFile, logLevel string) zerolog.Logger {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			return zerolog.New(f).Level(level).With().Timestamp().Logger()
		}
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
