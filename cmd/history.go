package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jfmyers9/encore/internal/journal"
	"github.com/jfmyers9/encore/pkg/resilient"
	"github.com/spf13/cobra"
)

var (
	historyFailures bool
	historyLimit    int
	historyStats    bool
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent API calls and how they ended",
	Long: `Show the call journal: every API call encore made, its outcome, how many
attempts it took and how long it waited between retries.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().BoolVar(&historyFailures, "failures", false, "Only show failed calls")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of calls to show (0 = all)")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "Show call counts per outcome instead")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	dir, err := resolveDataDir()
	if err != nil {
		return err
	}

	j, err := journal.New(filepath.Join(dir, "journal.db"))
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer j.Close()

	if historyStats {
		stats, err := j.Stats(ctx)
		if err != nil {
			return err
		}
		printStats(os.Stdout, stats)
		return nil
	}

	var entries []journal.Entry
	if historyFailures {
		entries, err = j.Failures(ctx, historyLimit)
	} else {
		entries, err = j.Recent(ctx, historyLimit)
	}
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No calls recorded")
		return nil
	}

	printEntries(os.Stdout, entries)
	return nil
}

func printEntries(w io.Writer, entries []journal.Entry) {
	fmt.Fprintf(w, "%-19s  %s  %s  %8s  %7s  %s\n",
		"TIME", padToWidth("OPERATION", 24), padToWidth("OUTCOME", 14), "ATTEMPTS", "WAITED", "DETAIL")

	for _, e := range entries {
		detail := ""
		if e.Outcome != resilient.OutcomeSuccess {
			detail = e.Category
			if e.Status != 0 {
				detail = fmt.Sprintf("%s %d", detail, e.Status)
			}
			if e.Label != "" {
				detail = fmt.Sprintf("%s %s", detail, e.Label)
			}
		}

		fmt.Fprintf(w, "%-19s  %s  %s  %8d  %7s  %s\n",
			e.Timestamp.Local().Format(time.DateTime),
			padToWidth(e.Operation, 24),
			padToWidth(e.Outcome.String(), 14),
			e.Attempts,
			e.Waited.Round(time.Millisecond),
			detail,
		)
	}
}

func printStats(w io.Writer, stats map[resilient.Outcome]int) {
	total := 0
	for _, o := range resilient.Outcomes() {
		total += stats[o]
	}

	for _, o := range resilient.Outcomes() {
		fmt.Fprintf(w, "%s %6d\n", padToWidth(o.String(), 16), stats[o])
	}
	fmt.Fprintf(w, "%s %6d\n", padToWidth("total", 16), total)
}
