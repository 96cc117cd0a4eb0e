package cmd

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jfmyers9/encore/internal/config"
	"github.com/jfmyers9/encore/internal/guard"
	"github.com/jfmyers9/encore/pkg/resilient"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize encore with Spotify",
	Long: `Authorize encore to access your Spotify account.

This command will guide you through the authorization code flow:
1. You'll be prompted to enter your Spotify client ID and secret
2. A browser URL will be provided for you to authorize the application
3. Paste the URL you were redirected to (or just its code parameter)
4. A refresh token will be saved to your config file

Register an application at https://developer.spotify.com/dashboard and add
the redirect URL shown below to its settings.`,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)
	logger := setupLogger(logFile, logLevel)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Step 1: Get application credentials
	fmt.Println("Spotify Authorization")
	fmt.Println("=====================")
	fmt.Println()
	fmt.Println("You can register an application at: https://developer.spotify.com/dashboard")
	fmt.Printf("Redirect URL: %s\n", cfg.Spotify.RedirectURL)
	fmt.Println()

	if cfg.HasCredentials() {
		fmt.Printf("Found existing client credentials.\n")
		fmt.Printf("Client ID: %s\n", cfg.Spotify.ClientID)
		fmt.Print("\nUse existing credentials? [Y/n]: ")
		response, err := reader.ReadString('\n')
		if err != nil {
			response = "y"
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "" && response != "y" && response != "yes" {
			cfg.Spotify.ClientID = ""
			cfg.Spotify.ClientSecret = ""
		}
	}

	if cfg.Spotify.ClientID == "" {
		fmt.Print("Enter your Spotify Client ID: ")
		clientID, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read client ID: %w", err)
		}
		cfg.Spotify.ClientID = strings.TrimSpace(clientID)
	}

	if cfg.Spotify.ClientSecret == "" {
		fmt.Print("Enter your Spotify Client Secret: ")
		clientSecret, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read client secret: %w", err)
		}
		cfg.Spotify.ClientSecret = strings.TrimSpace(clientSecret)
	}

	if !cfg.HasCredentials() {
		return fmt.Errorf("client ID and secret are required")
	}

	// Step 2: Direct user to authorize
	spotifyCfg := cfg.Spotify
	spotifyCfg.RefreshToken = ""
	api, err := guard.NewSpotifyClient(spotifyCfg, logger)
	if err != nil {
		return err
	}

	state := uuid.NewString()
	fmt.Println("\nPlease visit this URL to authorize encore:")
	fmt.Printf("\n  %s\n\n", api.Auth().AuthCodeURL(state))
	fmt.Print("Paste the URL you were redirected to: ")
	input, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read redirect URL: %w", err)
	}

	code, err := extractCode(input, state)
	if err != nil {
		return err
	}

	// Step 3: Exchange the code, retrying rate limits and server errors
	fmt.Println("Exchanging authorization code...")
	retry := guard.RetryConfig(cfg.Retry)
	retry.Logger = &logger
	token, err := resilient.Do(ctx, retry, "auth.exchange", func(ctx context.Context) (*oauth2.Token, error) {
		return api.Auth().Exchange(ctx, code)
	})
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if token.RefreshToken == "" {
		return fmt.Errorf("Spotify did not return a refresh token")
	}

	// Step 4: Save refresh token to config
	cfg.Spotify.RefreshToken = token.RefreshToken
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	configPath := config.GetConfigDir()
	fmt.Printf("\n✓ Authorization successful!\n")
	fmt.Printf("✓ Refresh token saved to %s/config.yaml\n", configPath)
	fmt.Println("\nYou can now use 'encore now' or start 'encore daemon'.")

	return nil
}

// extractCode returns the authorization code from a pasted redirect URL or
// a bare code, checking the state parameter when present
func extractCode(input, state string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("authorization code is required")
	}

	if !strings.Contains(input, "?") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}

	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", fmt.Errorf("authorization denied: %s", e)
	}
	if s := q.Get("state"); s != "" && s != state {
		return "", fmt.Errorf("state mismatch in redirect URL")
	}

	code := q.Get("code")
	if code == "" {
		return "", fmt.Errorf("redirect URL has no code parameter")
	}
	return code, nil
}
