package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// SearchService provides catalog search.
type SearchService struct {
	client *Client
}

const (
	// MaxSearchLimit is the maximum number of results per search request.
	MaxSearchLimit = 50

	// DefaultSearchLimit is used when a limit of zero is passed.
	DefaultSearchLimit = 20
)

// searchResponse is the envelope returned by /search.
type searchResponse struct {
	Tracks TrackPage `json:"tracks"`
}

// Tracks searches the catalog for tracks matching query.
//
// limit is clamped to 1..MaxSearchLimit; zero means DefaultSearchLimit.
func (s *SearchService) Tracks(ctx context.Context, query string, limit int) (*TrackPage, error) {
	if query == "" {
		return nil, fmt.Errorf("spotify: search query is required")
	}

	switch {
	case limit == 0:
		limit = DefaultSearchLimit
	case limit < 1:
		limit = 1
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))

	var resp searchResponse
	if _, err := s.client.do(ctx, http.MethodGet, "/search", params, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Tracks, nil
}
