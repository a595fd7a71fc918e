package tasks

import (
	"fmt"
	"strings"

	"depkeeper/internal/merger"
)

// Summary aggregates the per-PR outcomes of one merge run. It is the only
// state shared across repository iterations and is mutated only by the
// driving task.
type Summary struct {
	Merged  int
	Skipped int
	Failed  int
	Items   []SummaryItem
}

// SummaryItem records the outcome for one pull request, or for a whole
// repository when it could not be processed at all (Number is then zero).
type SummaryItem struct {
	Repo   string
	Number int
	Title  string
	Status merger.Status
	Reason string
}

func (s *Summary) add(item SummaryItem) {
	switch item.Status {
	case merger.StatusMerged:
		s.Merged++
	case merger.StatusSkipped:
		s.Skipped++
	case merger.StatusFailed:
		s.Failed++
	}
	s.Items = append(s.Items, item)
}

// Report renders the summary as a human-readable run report.
func (s *Summary) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "merged: %d, skipped: %d, failed: %d\n", s.Merged, s.Skipped, s.Failed)
	for _, item := range s.Items {
		if item.Number > 0 {
			fmt.Fprintf(&b, "- %s#%d (%s): %s", item.Repo, item.Number, item.Title, item.Status)
		} else {
			fmt.Fprintf(&b, "- %s: %s", item.Repo, item.Status)
		}
		if item.Reason != "" {
			fmt.Fprintf(&b, " (%s)", item.Reason)
		}
		b.WriteString("\n")
	}
	return b.String()
}
