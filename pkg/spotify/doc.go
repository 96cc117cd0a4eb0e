// Package spotify provides a client library for the Spotify Web API.
//
// # Overview
//
// This package implements a small Go client for the Web API, covering
// catalog lookups, search and playback. Every call makes exactly one HTTP
// request; failures come back as *Error values carrying the HTTP status,
// service error code, message and response headers. Retrying is left to
// the caller, typically through the resilient package.
//
// # Quick Start
//
// Create a client with your application credentials. Without a user token
// the client uses the client credentials flow, which is enough for catalog
// endpoints:
//
//	client, err := spotify.NewClient(spotify.Config{
//	    ClientID:     "your-client-id",
//	    ClientSecret: "your-client-secret",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	track, err := client.Tracks().Get(ctx, "11dFghVXANMlKmJXsNCbNl", "")
//
// # Authentication
//
// Player endpoints act on behalf of a user and need the authorization code
// flow:
//
//  1. Send the user to Auth().AuthCodeURL(state)
//  2. Receive the code on your redirect URL
//  3. Exchange it with Auth().Exchange(ctx, code)
//  4. Store token.RefreshToken and pass it back in Config.Token next time
//
// # Error Handling
//
//	_, err := client.Tracks().Get(ctx, id, "")
//	var apiErr *spotify.Error
//	if errors.As(err, &apiErr) {
//	    switch {
//	    case apiErr.HTTPStatus == 401:
//	        // re-authenticate
//	    case apiErr.HTTPStatus == 429:
//	        wait, _ := apiErr.RetryAfter()
//	        time.Sleep(wait)
//	    case apiErr.Temporary():
//	        // retry with backoff
//	    }
//	}
//
// Failures to obtain a token are reported as *Error too: rejected grants
// become 401, so callers handle them like any other authentication failure.
//
// # Rate Limiting
//
// Config.RequestsPerSecond paces requests client-side with a token bucket.
// It reduces, but does not replace, handling of 429 responses.
package spotify
