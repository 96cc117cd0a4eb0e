package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jfmyers9/encore/pkg/spotify"
	"github.com/spf13/cobra"
)

var searchLimit int

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the Spotify catalog for tracks",
	Long: `Search the Spotify catalog for tracks and print the results as a table.

The query supports Spotify's field filters, for example:
  encore search 'artist:Radiohead year:1997'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "Number of results (1-50)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	s, err := openSession(false, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	query := strings.Join(args, " ")
	page, err := resultValue(s.client.SearchTracks(context.Background(), query, searchLimit))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(page.Items) == 0 {
		fmt.Println("No tracks found")
		return nil
	}

	printTrackTable(os.Stdout, page.Items)
	return nil
}

// Column widths for the search table, in display columns
const (
	titleColumn  = 32
	artistColumn = 24
	albumColumn  = 24
)

func printTrackTable(w io.Writer, tracks []spotify.Track) {
	numWidth := len(strconv.Itoa(len(tracks)))

	fmt.Fprintf(w, "%s  %s  %s  %s  %5s  %s\n",
		padToWidth("#", numWidth),
		padToWidth("TITLE", titleColumn),
		padToWidth("ARTIST", artistColumn),
		padToWidth("ALBUM", albumColumn),
		"TIME",
		"ID",
	)

	for i, t := range tracks {
		fmt.Fprintf(w, "%s  %s  %s  %s  %5s  %s\n",
			padToWidth(strconv.Itoa(i+1), numWidth),
			padToWidth(t.Name, titleColumn),
			padToWidth(t.ArtistNames(), artistColumn),
			padToWidth(t.Album.Name, albumColumn),
			formatDuration(t.Duration()),
			t.ID,
		)
	}
}

// formatDuration renders d as m:ss
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
