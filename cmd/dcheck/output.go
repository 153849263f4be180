package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/dcheck/dcheck/internal/executor"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s Warning: %s\n", yellow("⚠"), fmt.Sprintf(format, args...))
}

// printSummary writes the end-of-run report to w
func printSummary(w io.Writer, s *executor.Summary, checkpoint string) {
	if s.SinkPath != "" {
		if s.Found {
			fmt.Fprintf(w, "Available domains saved to: %s\n", s.SinkPath)
		} else {
			fmt.Fprintln(w, "No available domains found.")
		}
	}

	if s.Interrupted {
		fmt.Fprintf(w, "\n%s Interrupted after %d of %d lookups\n", yellow("⚠"), s.Counts.Completed, s.Planned)
		if checkpoint != "" {
			fmt.Fprintf(w, "  Progress kept in %s; re-run with --resume to continue\n", checkpoint)
		}
	}

	fmt.Fprintf(w, "\n%s Available: %s, registered: %d, errors: %d\n",
		bold("Finished."), green(s.Counts.Available), s.Counts.Registered, s.Counts.Errors)
	fmt.Fprintf(w, "  Run %s took %v\n", s.RunID, s.Duration.Round(time.Millisecond))
}
