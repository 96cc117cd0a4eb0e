package spotify

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// AuthService provides OAuth2 operations for the accounts service.
type AuthService struct {
	client *Client
}

// AuthCodeURL returns the URL where users authorize the application.
//
// After the user approves, the accounts service redirects to the configured
// RedirectURL with a code query parameter; pass that code to Exchange.
//
// Example:
//
//	authURL := client.Auth().AuthCodeURL(state)
//	fmt.Println("Please visit:", authURL)
func (a *AuthService) AuthCodeURL(state string) string {
	return a.client.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token.
//
// The returned token carries a refresh token that should be stored and
// passed back in Config.Token for future sessions. On success the client
// switches to making requests on behalf of the authorized user.
//
// Example:
//
//	token, err := client.Auth().Exchange(ctx, code)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// Store token.RefreshToken for future use
func (a *AuthService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("spotify: authorization code is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client.httpClient)
	token, err := a.client.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, tokenError(err)
	}

	a.client.SetTokenSource(a.TokenSource(token))
	return token, nil
}

// TokenSource returns a token source that refreshes token as needed.
func (a *AuthService) TokenSource(token *oauth2.Token) oauth2.TokenSource {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, a.client.httpClient)
	return a.client.oauth.TokenSource(ctx, token)
}

// Token returns the current access token, fetching or refreshing it if needed.
func (a *AuthService) Token() (*oauth2.Token, error) {
	token, err := a.client.tokenSource.Token()
	if err != nil {
		return nil, tokenError(err)
	}
	return token, nil
}
