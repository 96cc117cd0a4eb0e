package spotify

import (
	"context"
	"net/http"
)

// PlayerService provides playback state and control for the authorized user.
//
// All methods require a user token (Config.Token or Auth().Exchange).
// Control methods fail with 404 NO_ACTIVE_DEVICE when nothing is playing
// anywhere, and 403 PREMIUM_REQUIRED for free accounts.
type PlayerService struct {
	client *Client
}

// CurrentlyPlaying returns what the user is playing.
// It returns nil and no error when nothing is playing.
func (s *PlayerService) CurrentlyPlaying(ctx context.Context) (*CurrentlyPlaying, error) {
	var cp CurrentlyPlaying
	status, err := s.client.do(ctx, http.MethodGet, "/me/player/currently-playing", nil, nil, &cp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	return &cp, nil
}

// Play resumes playback on the active device.
func (s *PlayerService) Play(ctx context.Context) error {
	_, err := s.client.do(ctx, http.MethodPut, "/me/player/play", nil, nil, nil)
	return err
}

// Pause pauses playback on the active device.
func (s *PlayerService) Pause(ctx context.Context) error {
	_, err := s.client.do(ctx, http.MethodPut, "/me/player/pause", nil, nil, nil)
	return err
}

// Next skips to the next track.
func (s *PlayerService) Next(ctx context.Context) error {
	_, err := s.client.do(ctx, http.MethodPost, "/me/player/next", nil, nil, nil)
	return err
}

// Previous goes back to the previous track.
func (s *PlayerService) Previous(ctx context.Context) error {
	_, err := s.client.do(ctx, http.MethodPost, "/me/player/previous", nil, nil, nil)
	return err
}
