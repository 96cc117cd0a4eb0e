package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/jfmyers9/encore/internal/config"
	"github.com/jfmyers9/encore/internal/guard"
	"github.com/jfmyers9/encore/pkg/resilient"
	"github.com/jfmyers9/encore/pkg/spotify"
	"github.com/spf13/cobra"
)

var (
	classifyRetryAfter string
	classifyAttempt    int
)

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <status>",
	Short: "Show how an API failure status is handled",
	Long: `Show how a failed API call with the given HTTP status is classified and
what the retry wrapper does next, using the configured retry settings.

Examples:
  encore classify 429 --retry-after 5
  encore classify 503 --attempt 3
  encore classify 404`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringVar(&classifyRetryAfter, "retry-after", "", "Retry-After header value (seconds or HTTP date)")
	classifyCmd.Flags().IntVar(&classifyAttempt, "attempt", 1, "Which retry the wait is computed for (1 = first retry)")
}

func runClassify(cmd *cobra.Command, args []string) error {
	status, err := strconv.Atoi(args[0])
	if err != nil || status < 100 || status > 599 {
		return fmt.Errorf("invalid HTTP status: %s", args[0])
	}
	if classifyAttempt < 1 {
		return fmt.Errorf("attempt must be at least 1")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	apiErr := &spotify.Error{
		HTTPStatus: status,
		Message:    http.StatusText(status),
		Header:     http.Header{},
	}
	if classifyRetryAfter != "" {
		apiErr.Header.Set("Retry-After", classifyRetryAfter)
	}

	printClassification(os.Stdout, guard.RetryConfig(cfg.Retry), apiErr, classifyAttempt)
	return nil
}

func printClassification(w io.Writer, retry resilient.Config, err error, attempt int) {
	c := resilient.Classify(err, resilient.DefaultPolicy)
	f := resilient.Failure{Classification: c}

	fmt.Fprintf(w, "Status:   %d %s\n", c.Status, http.StatusText(c.Status))
	fmt.Fprintf(w, "Category: %s\n", c.Category)
	fmt.Fprintf(w, "Outcome:  %s\n", f.Outcome())
	if c.Label != resilient.LabelNone {
		fmt.Fprintf(w, "Label:    %s\n", c.Label)
	}

	if !c.Category.Retryable() {
		fmt.Fprintln(w, "Action:   surfaced immediately, not retried")
		return
	}

	wait, backedOff := retry.Delay(c, attempt-1)
	source := "Retry-After"
	if backedOff {
		source = "exponential backoff"
	}
	fmt.Fprintf(w, "Action:   retry %d waits %s (%s)\n", attempt, wait, source)
}
