package batch

import (
	"io"
	"log/slog"
)

// Summary aggregates the reports of a batch.
type Summary struct {
	Documents  int
	WithIssues int
	Matches    int
	// Categories counts matches per rule category ID.
	Categories map[string]int
}

// Summarize aggregates reports.
func Summarize(reports []Report) Summary {
	summary := Summary{Documents: len(reports), Categories: map[string]int{}}
	for _, rep := range reports {
		if !rep.HasIssues() {
			continue
		}
		summary.WithIssues++
		for _, match := range rep.Response.Matches {
			summary.Matches++
			summary.Categories[match.Rule.Category.ID]++
		}
	}

	return summary
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
