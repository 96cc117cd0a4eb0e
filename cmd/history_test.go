package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jfmyers9/encore/internal/journal"
	"github.com/jfmyers9/encore/pkg/resilient"
)

func TestPrintEntries(t *testing.T) {
	var buf bytes.Buffer
	printEntries(&buf, []journal.Entry{
		{
			Operation: "tracks.get",
			Outcome:   resilient.OutcomeSuccess,
			Attempts:  2,
			Waited:    5 * time.Second,
			Timestamp: time.Now(),
		},
		{
			Operation: "tracks.get",
			Outcome:   resilient.OutcomeClientFailure,
			Category:  "fatal-client",
			Label:     "not-found",
			Status:    404,
			Attempts:  1,
			Timestamp: time.Now(),
		},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(lines))
	}
	if !strings.Contains(lines[1], "success") || !strings.Contains(lines[1], "5s") {
		t.Errorf("unexpected success row: %q", lines[1])
	}
	if !strings.Contains(lines[2], "fatal-client 404 not-found") {
		t.Errorf("unexpected failure row: %q", lines[2])
	}
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, map[resilient.Outcome]int{
		resilient.OutcomeSuccess:     7,
		resilient.OutcomeRateLimited: 2,
	})

	out := buf.String()
	for _, want := range []string{"success", "rate-limited", "auth-failure", "total"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "total                 9") {
		t.Errorf("expected total of 9:\n%s", out)
	}
}
