package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jfmyers9/encore/pkg/spotify"
	"github.com/spf13/cobra"
)

// trackCmd represents the track command
var trackCmd = &cobra.Command{
	Use:   "track <id|uri|url>",
	Short: "Show a track from the Spotify catalog",
	Long: `Look up a single track by its Spotify ID, URI (spotify:track:...) or
open.spotify.com URL and print its details.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	s, err := openSession(false, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	track, err := resultValue(s.client.Track(context.Background(), trackID(args[0])))
	if err != nil {
		return fmt.Errorf("failed to get track: %w", err)
	}

	printTrack(os.Stdout, track)
	return nil
}

// trackID accepts a bare ID, a spotify:track: URI or an open.spotify.com URL
func trackID(ref string) string {
	ref = strings.TrimSpace(ref)
	if id, ok := strings.CutPrefix(ref, "spotify:track:"); ok {
		return id
	}
	if i := strings.Index(ref, "/track/"); i >= 0 {
		id := ref[i+len("/track/"):]
		if j := strings.IndexAny(id, "?#/"); j >= 0 {
			id = id[:j]
		}
		return id
	}
	return ref
}

func printTrack(w io.Writer, t *spotify.Track) {
	fmt.Fprintf(w, "Name:     %s\n", t.Name)
	fmt.Fprintf(w, "Artist:   %s\n", t.ArtistNames())
	fmt.Fprintf(w, "Album:    %s\n", t.Album.Name)
	if t.Album.ReleaseDate != "" {
		fmt.Fprintf(w, "Released: %s\n", t.Album.ReleaseDate)
	}
	fmt.Fprintf(w, "Duration: %s\n", formatDuration(t.Duration()))
	fmt.Fprintf(w, "ID:       %s\n", t.ID)
	if u := t.ExternalURLs["spotify"]; u != "" {
		fmt.Fprintf(w, "URL:      %s\n", u)
	}
}
