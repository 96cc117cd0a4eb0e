package daemon

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jfmyers9/encore/pkg/spotify"
)

// defaultPersistInterval bounds how often position updates reach disk
const defaultPersistInterval = 30 * time.Second

// Playback is the watch loop's view of the current track
type Playback struct {
	TrackID  string        `json:"track_id"`
	Name     string        `json:"name"`
	Artist   string        `json:"artist"`
	Album    string        `json:"album"`
	Duration time.Duration `json:"duration"`
	Playing  bool          `json:"playing"`
}

// playbackFrom converts an API response, nil when nothing is playing
func playbackFrom(cp *spotify.CurrentlyPlaying) *Playback {
	if cp == nil || cp.Item == nil {
		return nil
	}
	return &Playback{
		TrackID:  cp.Item.ID,
		Name:     cp.Item.Name,
		Artist:   cp.Item.ArtistNames(),
		Album:    cp.Item.Album.Name,
		Duration: cp.Item.Duration(),
		Playing:  cp.IsPlaying,
	}
}

// WatchState is what the daemon knows about the track being listened to
type WatchState struct {
	Track         *Playback     `json:"track,omitempty"`
	StartTime     time.Time     `json:"start_time"`
	PausedAt      time.Time     `json:"paused_at,omitempty"`
	TotalPlayTime time.Duration `json:"total_play_time"`
	LastPoll      time.Time     `json:"last_poll"`
	LastOutcome   string        `json:"last_outcome,omitempty"`
}

// State manages the watch state with thread-safe access and persistence
type State struct {
	mu              sync.RWMutex
	current         WatchState
	filePath        string
	persistInterval time.Duration
	lastPersist     time.Time
	dirty           bool
}

// NewState creates a new State instance
// If filePath is provided, attempts to restore state from disk
func NewState(filePath string) (*State, error) {
	s := &State{
		filePath:        filePath,
		persistInterval: defaultPersistInterval,
	}

	if filePath != "" {
		if err := s.restore(); err != nil && !os.IsNotExist(err) {
			// Caller may continue with the empty state
			return s, err
		}
	}

	return s, nil
}

// SetTrack starts tracking a new track
func (s *State) SetTrack(track *Playback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = WatchState{
		Track:       track,
		StartTime:   time.Now(),
		LastPoll:    s.current.LastPoll,
		LastOutcome: s.current.LastOutcome,
	}
	if !track.Playing {
		s.current.PausedAt = s.current.StartTime
	}

	return s.persist()
}

// UpdatePosition accumulates play time for the current track across pauses
// A different track resets the state
func (s *State) UpdatePosition(track *Playback) error {
	s.mu.Lock()
	if s.current.Track == nil || !isSameTrack(s.current.Track, track) {
		s.mu.Unlock()
		return s.SetTrack(track)
	}
	defer s.mu.Unlock()

	now := time.Now()
	switch {
	case track.Playing && !s.current.PausedAt.IsZero():
		s.current.TotalPlayTime += s.current.PausedAt.Sub(s.current.StartTime)
		s.current.StartTime = now
		s.current.PausedAt = time.Time{}
	case !track.Playing && s.current.PausedAt.IsZero():
		s.current.PausedAt = now
	}
	s.current.Track = track

	return s.throttledPersist()
}

// RecordPoll notes when the last poll finished and how
func (s *State) RecordPoll(at time.Time, outcome string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.LastPoll = at
	s.current.LastOutcome = outcome
	return s.throttledPersist()
}

// GetState returns a copy of the current state
func (s *State) GetState() WatchState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current
}

// GetPlayedDuration returns how long the current track has been played,
// excluding pauses
func (s *State) GetPlayedDuration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current.Track == nil {
		return s.current.TotalPlayTime
	}
	if !s.current.PausedAt.IsZero() {
		return s.current.TotalPlayTime + s.current.PausedAt.Sub(s.current.StartTime)
	}
	return s.current.TotalPlayTime + time.Since(s.current.StartTime)
}

// Reset clears the current track
func (s *State) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = WatchState{
		LastPoll:    s.current.LastPoll,
		LastOutcome: s.current.LastOutcome,
	}
	return s.persist()
}

// Flush writes pending changes to disk
func (s *State) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	return s.persist()
}

// throttledPersist writes at most once per persistInterval
// Must be called with lock held
func (s *State) throttledPersist() error {
	if time.Since(s.lastPersist) < s.persistInterval {
		s.dirty = true
		return nil
	}
	return s.persist()
}

// persist saves the current state to disk
// Must be called with lock held
func (s *State) persist() error {
	if s.filePath == "" {
		s.dirty = false
		return nil
	}

	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Write atomically via temp file + rename
	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, s.filePath); err != nil {
		return err
	}

	s.lastPersist = time.Now()
	s.dirty = false
	return nil
}

// restore loads state from disk
func (s *State) restore() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var ws WatchState
	if err := json.Unmarshal(data, &ws); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = ws
	return nil
}

// isSameTrack compares tracks by ID, falling back to metadata for local files
func isSameTrack(t1, t2 *Playback) bool {
	if t1 == nil || t2 == nil {
		return false
	}
	if t1.TrackID != "" || t2.TrackID != "" {
		return t1.TrackID == t2.TrackID
	}
	return t1.Name == t2.Name &&
		t1.Artist == t2.Artist &&
		t1.Album == t2.Album
}
