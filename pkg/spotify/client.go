package spotify

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

// Config holds client configuration.
type Config struct {
	ClientID     string   // Required: application client ID
	ClientSecret string   // Required unless TokenSource is set
	RedirectURL  string   // Optional: redirect URL for the authorization code flow
	Scopes       []string // Optional: scopes requested by AuthCodeURL

	// Token is an optional user token (usually just a refresh token). When set,
	// requests are made on behalf of that user and the token is refreshed as needed.
	Token *oauth2.Token

	// TokenSource overrides Token and the client credentials flow.
	TokenSource oauth2.TokenSource

	HTTPClient *http.Client // Optional: HTTP client (defaults to http.DefaultClient)
	BaseURL    string       // Optional: Web API base URL (used for testing)
	AuthURL    string       // Optional: authorize endpoint (used for testing)
	TokenURL   string       // Optional: token endpoint (used for testing)
	Logger     Logger       // Optional: Logger interface for debug logging

	// RequestsPerSecond paces outgoing requests client-side. Zero disables pacing.
	RequestsPerSecond float64
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

// Client is the main entry point for Web API operations.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	logger      Logger
	oauth       *oauth2.Config
	tokenSource oauth2.TokenSource
	limiter     *rate.Limiter

	auth   *AuthService
	tracks *TracksService
	search *SearchService
	player *PlayerService
}

const (
	// DefaultBaseURL is the default Web API endpoint.
	DefaultBaseURL = "https://api.spotify.com/v1"

	// DefaultAuthURL is the authorization endpoint users are sent to.
	DefaultAuthURL = "https://accounts.spotify.com/authorize"

	// DefaultTokenURL is the token endpoint.
	DefaultTokenURL = "https://accounts.spotify.com/api/token"
)

// NewClient creates a new Web API client.
//
// Returns an error if required configuration is missing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" && cfg.TokenSource == nil {
		return nil, fmt.Errorf("%w: ClientID is required", ErrInvalidConfig)
	}
	if cfg.ClientSecret == "" && cfg.TokenSource == nil {
		return nil, fmt.Errorf("%w: ClientSecret is required", ErrInvalidConfig)
	}
	if cfg.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("%w: RequestsPerSecond must not be negative", ErrInvalidConfig)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     cfg.Logger,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
	}

	// The oauth2 package picks up our HTTP client from the context.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)

	switch {
	case cfg.TokenSource != nil:
		c.tokenSource = cfg.TokenSource
	case cfg.Token != nil:
		c.tokenSource = c.oauth.TokenSource(ctx, cfg.Token)
	default:
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		c.tokenSource = cc.TokenSource(ctx)
	}

	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	c.auth = &AuthService{client: c}
	c.tracks = &TracksService{client: c}
	c.search = &SearchService{client: c}
	c.player = &PlayerService{client: c}

	return c, nil
}

// Auth returns the authentication service.
func (c *Client) Auth() *AuthService {
	return c.auth
}

// Tracks returns the tracks service.
func (c *Client) Tracks() *TracksService {
	return c.tracks
}

// Search returns the search service.
func (c *Client) Search() *SearchService {
	return c.search
}

// Player returns the playback service.
func (c *Client) Player() *PlayerService {
	return c.player
}

// SetTokenSource replaces the token source used for API requests.
func (c *Client) SetTokenSource(ts oauth2.TokenSource) {
	c.tokenSource = ts
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
