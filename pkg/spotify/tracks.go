package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// TracksService provides catalog track lookups.
type TracksService struct {
	client *Client
}

// Get fetches a track by ID.
//
// market is an optional ISO 3166-1 alpha-2 country code used for track
// relinking; pass "" to use the account's country.
//
// A missing track is reported as an *Error with HTTPStatus 404.
func (s *TracksService) Get(ctx context.Context, id, market string) (*Track, error) {
	if id == "" {
		return nil, fmt.Errorf("spotify: track ID is required")
	}

	query := url.Values{}
	if market != "" {
		query.Set("market", market)
	}

	var track Track
	if _, err := s.client.do(ctx, http.MethodGet, "/tracks/"+url.PathEscape(id), query, nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}
