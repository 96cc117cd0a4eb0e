package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestTracksService_Get(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET request, got %s", r.Method)
		}
		if r.URL.Path != "/tracks/3n3Ppam7vgaVa1iaRUc9Lp" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if market := r.URL.Query().Get("market"); market != "GB" {
			t.Errorf("expected market GB, got %s", market)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-access-token" {
			t.Errorf("expected bearer token, got %q", auth)
		}
		if ua := r.Header.Get("User-Agent"); ua != userAgent {
			t.Errorf("expected user agent %q, got %q", userAgent, ua)
		}
		fmt.Fprint(w, `{
			"id": "3n3Ppam7vgaVa1iaRUc9Lp",
			"name": "Mr. Brightside",
			"duration_ms": 222075,
			"artists": [{"id": "0C0XlULifJtAgn6ZNCW2eu", "name": "The Killers"}],
			"album": {"id": "4OHNH3sDzIxnmUADXzv2kT", "name": "Hot Fuss"},
			"uri": "spotify:track:3n3Ppam7vgaVa1iaRUc9Lp"
		}`)
	})

	track, err := client.Tracks().Get(context.Background(), "3n3Ppam7vgaVa1iaRUc9Lp", "GB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if track.Name != "Mr. Brightside" {
		t.Errorf("expected Mr. Brightside, got %s", track.Name)
	}
	if track.ArtistNames() != "The Killers" {
		t.Errorf("expected The Killers, got %s", track.ArtistNames())
	}
	if track.Album.Name != "Hot Fuss" {
		t.Errorf("expected Hot Fuss, got %s", track.Album.Name)
	}
	if track.Duration() != 222075*time.Millisecond {
		t.Errorf("unexpected duration %v", track.Duration())
	}
}

func TestTracksService_GetRequiresID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := client.Tracks().Get(context.Background(), "", ""); err == nil {
		t.Error("expected error for empty ID")
	}
}

func TestTracksService_GetEscapesID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawPath != "" && !strings.Contains(r.URL.RawPath, "%2F") {
			t.Errorf("expected escaped slash, got %s", r.URL.RawPath)
		}
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"status":400,"message":"invalid id"}}`)
	})
	_, err := client.Tracks().Get(context.Background(), "a/b", "")
	if !errors.Is(err, &Error{HTTPStatus: 400}) {
		t.Errorf("expected 400 error, got %v", err)
	}
}

func TestSearchService_Tracks(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit string
	}{
		{name: "default limit", limit: 0, wantLimit: "20"},
		{name: "explicit limit", limit: 5, wantLimit: "5"},
		{name: "clamped high", limit: 500, wantLimit: "50"},
		{name: "clamped low", limit: -4, wantLimit: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if q.Get("q") != "artist:queen bohemian" {
					t.Errorf("unexpected query %q", q.Get("q"))
				}
				if q.Get("type") != "track" {
					t.Errorf("expected type track, got %q", q.Get("type"))
				}
				if q.Get("limit") != tt.wantLimit {
					t.Errorf("expected limit %s, got %s", tt.wantLimit, q.Get("limit"))
				}
				fmt.Fprint(w, `{"tracks":{"total":2,"limit":2,"offset":0,"items":[
					{"id":"1","name":"Bohemian Rhapsody","artists":[{"name":"Queen"}]},
					{"id":"2","name":"Bohemian Rhapsody - Live","artists":[{"name":"Queen"}]}
				]}}`)
			})

			page, err := client.Search().Tracks(context.Background(), "artist:queen bohemian", tt.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(page.Items) != 2 || page.Total != 2 {
				t.Fatalf("expected 2 items, got %d (total %d)", len(page.Items), page.Total)
			}
			if page.Items[1].Name != "Bohemian Rhapsody - Live" {
				t.Errorf("unexpected second item %q", page.Items[1].Name)
			}
		})
	}
}

func TestSearchService_TracksRequiresQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := client.Search().Tracks(context.Background(), "", 10); err == nil {
		t.Error("expected error for empty query")
	}
}

func TestPlayerService_CurrentlyPlaying(t *testing.T) {
	t.Run("playing", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me/player/currently-playing" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			fmt.Fprint(w, `{"is_playing":true,"progress_ms":61000,"currently_playing_type":"track",
				"item":{"id":"1","name":"Yesterday","artists":[{"name":"The Beatles"}],"duration_ms":125000}}`)
		})

		cp, err := client.Player().CurrentlyPlaying(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cp == nil || cp.Item == nil {
			t.Fatal("expected a playing item")
		}
		if !cp.IsPlaying {
			t.Error("expected is_playing")
		}
		if cp.Progress() != 61*time.Second {
			t.Errorf("expected 61s progress, got %v", cp.Progress())
		}
	})

	t.Run("nothing playing", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		cp, err := client.Player().CurrentlyPlaying(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cp != nil {
			t.Errorf("expected nil, got %+v", cp)
		}
	})
}

func TestPlayerService_Controls(t *testing.T) {
	tests := []struct {
		name       string
		call       func(p *PlayerService, ctx context.Context) error
		wantMethod string
		wantPath   string
	}{
		{"play", (*PlayerService).Play, http.MethodPut, "/me/player/play"},
		{"pause", (*PlayerService).Pause, http.MethodPut, "/me/player/pause"},
		{"next", (*PlayerService).Next, http.MethodPost, "/me/player/next"},
		{"previous", (*PlayerService).Previous, http.MethodPost, "/me/player/previous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != tt.wantMethod {
					t.Errorf("expected %s, got %s", tt.wantMethod, r.Method)
				}
				if r.URL.Path != tt.wantPath {
					t.Errorf("expected %s, got %s", tt.wantPath, r.URL.Path)
				}
				w.WriteHeader(http.StatusNoContent)
			})
			if err := tt.call(client.Player(), context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	t.Run("no active device", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"status":404,"message":"Player command failed: No active device found","reason":"NO_ACTIVE_DEVICE"}}`)
		})
		err := client.Player().Pause(context.Background())
		var apiErr *Error
		if !errors.As(err, &apiErr) || apiErr.Code != ReasonNoActiveDevice {
			t.Errorf("expected NO_ACTIVE_DEVICE, got %v", err)
		}
	})
}

func TestAuthService_AuthCodeURL(t *testing.T) {
	client, err := NewClient(Config{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURL:  "http://127.0.0.1:8888/callback",
		Scopes:       []string{"user-read-currently-playing", "user-modify-playback-state"},
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	raw := client.Auth().AuthCodeURL("xyz")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid URL %q: %v", raw, err)
	}
	if !strings.HasPrefix(raw, DefaultAuthURL) {
		t.Errorf("expected %s prefix, got %s", DefaultAuthURL, raw)
	}
	q := u.Query()
	if q.Get("client_id") != "id" {
		t.Errorf("expected client_id id, got %s", q.Get("client_id"))
	}
	if q.Get("state") != "xyz" {
		t.Errorf("expected state xyz, got %s", q.Get("state"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("expected response_type code, got %s", q.Get("response_type"))
	}
	if q.Get("scope") != "user-read-currently-playing user-modify-playback-state" {
		t.Errorf("unexpected scope %q", q.Get("scope"))
	}
}

func TestAuthService_Exchange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/token":
			body, _ := io.ReadAll(r.Body)
			form, _ := url.ParseQuery(string(body))
			if form.Get("grant_type") != "authorization_code" {
				t.Errorf("expected authorization_code grant, got %s", form.Get("grant_type"))
			}
			if form.Get("code") != "good-code" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":"invalid_grant","error_description":"Invalid authorization code"}`)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"user-token","token_type":"Bearer","expires_in":3600,"refresh_token":"refresh-me"}`)
		case "/me/player/currently-playing":
			if auth := r.Header.Get("Authorization"); auth != "Bearer user-token" {
				t.Errorf("expected user token after exchange, got %q", auth)
			}
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	client, err := NewClient(Config{
		ClientID:     "id",
		ClientSecret: "secret",
		BaseURL:      server.URL,
		TokenURL:     server.URL + "/api/token",
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	t.Run("invalid code", func(t *testing.T) {
		_, err := client.Auth().Exchange(context.Background(), "bad-code")
		var apiErr *Error
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *Error, got %v", err)
		}
		if apiErr.HTTPStatus != http.StatusUnauthorized || apiErr.Code != "invalid_grant" {
			t.Errorf("expected 401 invalid_grant, got %d %s", apiErr.HTTPStatus, apiErr.Code)
		}
	})

	t.Run("empty code", func(t *testing.T) {
		if _, err := client.Auth().Exchange(context.Background(), ""); err == nil {
			t.Error("expected error for empty code")
		}
	})

	t.Run("valid code", func(t *testing.T) {
		token, err := client.Auth().Exchange(context.Background(), "good-code")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token.RefreshToken != "refresh-me" {
			t.Errorf("expected refresh token, got %q", token.RefreshToken)
		}
		if _, err := client.Player().CurrentlyPlaying(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
