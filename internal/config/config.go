package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Output format template for the now command
	// Default: "{{.Artist}} - {{.Name}}"
	OutputFormat string

	// Fixed output width for the now command (0 = disabled)
	OutputWidth int

	// Marquee scrolling for text wider than OutputWidth
	MarqueeEnabled   bool
	MarqueeSpeed     int // characters per second
	MarqueeSeparator string

	// Poll interval for the daemon (in seconds)
	PollInterval int

	// Spotify API credentials
	Spotify SpotifyConfig

	// Retry bounds for API calls
	Retry RetryConfig

	// Metrics server settings
	Metrics MetricsConfig
}

// SpotifyConfig holds Spotify specific configuration
type SpotifyConfig struct {
	ClientID          string
	ClientSecret      string
	RefreshToken      string
	RedirectURL       string
	Market            string
	RequestsPerSecond float64
}

// RetryConfig holds the bounds applied to every API call
type RetryConfig struct {
	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	MaxWait     time.Duration
}

// MetricsConfig holds Prometheus metrics server configuration
type MetricsConfig struct {
	Address string // empty disables the server
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	return load(getConfigDir())
}

func load(configDir string) (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config file locations (in order of precedence)
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	// Set defaults
	v.SetDefault("output_format", "{{.Artist}} - {{.Name}}")
	v.SetDefault("output_width", 0)
	v.SetDefault("marquee_enabled", false)
	v.SetDefault("marquee_speed", 2)
	v.SetDefault("marquee_separator", " • ")
	v.SetDefault("poll_interval", 5)
	v.SetDefault("spotify.redirect_url", "http://127.0.0.1:8888/callback")
	v.SetDefault("spotify.requests_per_second", 5)
	v.SetDefault("retry.max_retries", 5)
	v.SetDefault("retry.base_backoff", "1s")
	v.SetDefault("retry.max_backoff", "60s")
	v.SetDefault("retry.max_wait", "5m")
	v.SetDefault("metrics.address", "")

	// Read config file (optional - don't fail if missing)
	_ = v.ReadInConfig()

	// Read from environment variables
	v.SetEnvPrefix("ENCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map config to struct
	cfg := &Config{
		OutputFormat:     v.GetString("output_format"),
		OutputWidth:      v.GetInt("output_width"),
		MarqueeEnabled:   v.GetBool("marquee_enabled"),
		MarqueeSpeed:     v.GetInt("marquee_speed"),
		MarqueeSeparator: v.GetString("marquee_separator"),
		PollInterval:     v.GetInt("poll_interval"),
		Spotify: SpotifyConfig{
			ClientID:          v.GetString("spotify.client_id"),
			ClientSecret:      v.GetString("spotify.client_secret"),
			RefreshToken:      v.GetString("spotify.refresh_token"),
			RedirectURL:       v.GetString("spotify.redirect_url"),
			Market:            v.GetString("spotify.market"),
			RequestsPerSecond: v.GetFloat64("spotify.requests_per_second"),
		},
		Retry: RetryConfig{
			MaxRetries:  v.GetInt("retry.max_retries"),
			BaseBackoff: v.GetDuration("retry.base_backoff"),
			MaxBackoff:  v.GetDuration("retry.max_backoff"),
			MaxWait:     v.GetDuration("retry.max_wait"),
		},
		Metrics: MetricsConfig{
			Address: v.GetString("metrics.address"),
		},
	}

	return cfg, nil
}

// getConfigDir returns the configuration directory path
// Creates the directory if it doesn't exist
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	configDir := filepath.Join(homeDir, ".config", "encore")

	// Create config directory if it doesn't exist
	_ = os.MkdirAll(configDir, 0755)

	return configDir
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

// HasCredentials reports whether application credentials are configured
func (c *Config) HasCredentials() bool {
	return c.Spotify.ClientID != "" && c.Spotify.ClientSecret != ""
}

// HasUserToken reports whether a user refresh token is configured
func (c *Config) HasUserToken() bool {
	return c.HasCredentials() && c.Spotify.RefreshToken != ""
}

// Save writes configuration to file
func (c *Config) Save() error {
	return c.save(getConfigDir())
}

func (c *Config) save(configDir string) error {
	v := viper.New()

	// Set config file path
	configFile := filepath.Join(configDir, "config.yaml")

	// Set values in viper
	v.Set("output_format", c.OutputFormat)
	v.Set("output_width", c.OutputWidth)
	v.Set("marquee_enabled", c.MarqueeEnabled)
	v.Set("marquee_speed", c.MarqueeSpeed)
	v.Set("marquee_separator", c.MarqueeSeparator)
	v.Set("poll_interval", c.PollInterval)
	v.Set("spotify.client_id", c.Spotify.ClientID)
	v.Set("spotify.client_secret", c.Spotify.ClientSecret)
	v.Set("spotify.refresh_token", c.Spotify.RefreshToken)
	v.Set("spotify.redirect_url", c.Spotify.RedirectURL)
	v.Set("spotify.market", c.Spotify.Market)
	v.Set("spotify.requests_per_second", c.Spotify.RequestsPerSecond)
	v.Set("retry.max_retries", c.Retry.MaxRetries)
	v.Set("retry.base_backoff", c.Retry.BaseBackoff.String())
	v.Set("retry.max_backoff", c.Retry.MaxBackoff.String())
	v.Set("retry.max_wait", c.Retry.MaxWait.String())
	v.Set("metrics.address", c.Metrics.Address)

	// Write to file
	return v.WriteConfigAs(configFile)
}
