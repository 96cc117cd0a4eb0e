package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jfmyers9/encore/internal/guard"
	"github.com/jfmyers9/encore/pkg/resilient"
	"github.com/spf13/cobra"
)

// controlTimeout bounds a control command including retries
const controlTimeout = 30 * time.Second

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Resume playback on Spotify",
	Long:  `Resume playback on the active Spotify device. Requires Spotify Premium.`,
	RunE:  controlRunner("resume playback", (*guard.Client).Play),
}

// pauseCmd represents the pause command
var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause playback on Spotify",
	Long:  `Pause playback on the active Spotify device. Requires Spotify Premium.`,
	RunE:  controlRunner("pause", (*guard.Client).Pause),
}

// playpauseCmd represents the playpause command
var playpauseCmd = &cobra.Command{
	Use:   "playpause",
	Short: "Toggle play/pause on Spotify",
	Long:  `Toggle between play and pause on the active Spotify device. If playing, pauses. If paused, resumes.`,
	RunE:  runPlayPause,
}

// nextCmd represents the next command
var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Skip to next track on Spotify",
	Long:  `Skip to the next track in the active device's queue.`,
	RunE:  controlRunner("skip to next track", (*guard.Client).Next),
}

// prevCmd represents the prev command
var prevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Go to previous track on Spotify",
	Long:  `Go back to the previous track on the active device.`,
	RunE:  controlRunner("go to previous track", (*guard.Client).Previous),
}

func init() {
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(playpauseCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(prevCmd)
}

type controlFunc func(*guard.Client, context.Context) resilient.Result[struct{}]

func controlRunner(action string, fn controlFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(true, nil)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
		defer cancel()

		if _, err := resultValue(fn(s.client, ctx)); err != nil {
			return fmt.Errorf("failed to %s: %w", action, err)
		}
		return nil
	}
}

func runPlayPause(cmd *cobra.Command, args []string) error {
	s, err := openSession(true, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
	defer cancel()

	playback, err := resultValue(s.client.CurrentlyPlaying(ctx))
	if err != nil {
		return fmt.Errorf("failed to get playback state: %w", err)
	}

	if playback != nil && playback.IsPlaying {
		_, err = resultValue(s.client.Pause(ctx))
	} else {
		_, err = resultValue(s.client.Play(ctx))
	}
	if err != nil {
		return fmt.Errorf("failed to playpause: %w", err)
	}

	return nil
}
