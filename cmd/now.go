/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/jfmyers9/encore/pkg/spotify"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

// nowCmd represents the now command
var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "Display the track currently playing on Spotify",
	Long: `Query Spotify and display the currently playing track.

The output format can be customized in ~/.config/encore/config.yaml
using a Go template. Available fields: .Name, .Artist, .Album, .Duration,
.Position, .ID, .URL

Exit codes:
  0 - Track is currently playing
  1 - No track playing, paused, or the API call failed`,
	RunE: runNow,
}

func init() {
	rootCmd.AddCommand(nowCmd)

	// Add format flag to override config
	nowCmd.Flags().StringP("format", "f", "", "Output format template (overrides config)")
	// Add width flag to set fixed output width
	nowCmd.Flags().IntP("width", "w", 0, "Fixed output width (0=disabled, overrides config)")
	// Add marquee flag to enable scrolling
	nowCmd.Flags().Bool("marquee", false, "Enable marquee scrolling for long text (overrides config)")
}

// nowPlaying is the data available to the output template
type nowPlaying struct {
	ID       string
	Name     string
	Artist   string
	Album    string
	URL      string
	Duration time.Duration
	Position time.Duration
}

func newNowPlaying(cp *spotify.CurrentlyPlaying) nowPlaying {
	return nowPlaying{
		ID:       cp.Item.ID,
		Name:     cp.Item.Name,
		Artist:   cp.Item.ArtistNames(),
		Album:    cp.Item.Album.Name,
		URL:      cp.Item.ExternalURLs["spotify"],
		Duration: cp.Item.Duration().Round(time.Second),
		Position: cp.Progress().Round(time.Second),
	}
}

func runNow(cmd *cobra.Command, args []string) error {
	s, err := openSession(true, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	cfg := s.cfg

	// Bound the whole call including retries so status bars don't hang
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Check for format flag override
	formatFlag, _ := cmd.Flags().GetString("format")
	if formatFlag != "" {
		cfg.OutputFormat = formatFlag
	}

	playback, err := resultValue(s.client.CurrentlyPlaying(ctx))
	if err != nil {
		return fmt.Errorf("failed to get current track: %w", err)
	}

	// Nothing playing, paused, or an ad: exit with code 1
	if playback == nil || playback.Item == nil || !playback.IsPlaying {
		s.Close()
		os.Exit(1)
		return nil
	}

	output, err := formatTrack(newNowPlaying(playback), cfg.OutputFormat)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	// Apply width padding/marquee if requested
	width, _ := cmd.Flags().GetInt("width")
	if width == 0 {
		width = cfg.OutputWidth
	}

	marquee, _ := cmd.Flags().GetBool("marquee")
	if !cmd.Flags().Changed("marquee") {
		marquee = cfg.MarqueeEnabled
	}

	if width > 0 {
		if marquee {
			output = marqueeText(output, width, cfg.MarqueeSpeed, cfg.MarqueeSeparator)
		} else {
			output = padToWidth(output, width)
		}
	}

	fmt.Println(output)
	return nil
}

// formatTrack applies the template to the track data
func formatTrack(track nowPlaying, templateStr string) (string, error) {
	tmpl, err := template.New("output").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, track); err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	return buf.String(), nil
}

// padToWidth pads or truncates text to exactly width display columns,
// ending truncated text with "...". A width <= 0 leaves text unchanged.
func padToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}

	const ellipsis = "..."
	if runewidth.StringWidth(text) > width {
		if width <= len(ellipsis) {
			return ellipsis[:width]
		}
		text = runewidth.Truncate(text, width-len(ellipsis), "") + ellipsis
	}

	return runewidth.FillRight(text, width)
}

// marqueeText scrolls text wider than width through a fixed window.
// Text that fits is padded instead.
func marqueeText(text string, width int, speed int, separator string) string {
	return marqueeAt(text, width, speed, separator, time.Now())
}

// marqueeAt renders the marquee window for time now. The window starts
// now*speed runes into "text{separator}text", wrapping around, so each
// status bar refresh shows the next step without keeping state.
func marqueeAt(text string, width int, speed int, separator string, now time.Time) string {
	if width <= 0 {
		return text
	}
	if runewidth.StringWidth(text) <= width {
		return padToWidth(text, width)
	}

	loop := []rune(text + separator + text)
	position := int(now.Unix()*int64(speed)) % len(loop)

	var window strings.Builder
	filled := 0
	for i := 0; i < len(loop); i++ {
		r := loop[(position+i)%len(loop)]
		rw := runewidth.RuneWidth(r)
		if filled+rw > width {
			break
		}
		window.WriteRune(r)
		filled += rw
	}

	return runewidth.FillRight(window.String(), width)
}
