package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/seenimoa/newspulse/internal/collector"
	"github.com/seenimoa/newspulse/internal/pipeline"
	"github.com/seenimoa/newspulse/pkg/models"
)

// printReport renders the headline sections of a report as aligned text.
func printReport(w io.Writer, rep *pipeline.Report) {
	if rep.Empty {
		fmt.Fprintln(w, "No articles found for the selected terms and range.")
		printFailures(w, rep.Failures)
		return
	}

	k := rep.KPIs
	fmt.Fprintf(w, "Articles: %d   Positive: %d   Negative: %d   Neutral: %d   Avg sentiment: %.3f\n",
		k.Total, k.Positive, k.Negative, k.Neutral, k.Average)
	if rep.SnapshotPath != "" {
		fmt.Fprintf(w, "Snapshot: %s\n", rep.SnapshotPath)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTITY\tNEGATIVE\tNEUTRAL\tPOSITIVE")
	for _, b := range rep.Breakdown {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", b.Entity, b.Negative, b.Neutral, b.Positive)
	}
	tw.Flush()
	fmt.Fprintln(w)

	if len(rep.Alerts) == 0 {
		fmt.Fprintln(w, "No alerts.")
	} else {
		fmt.Fprintf(w, "Alerts (%d):\n", len(rep.Alerts))
		for _, a := range rep.Alerts {
			fmt.Fprintf(w, "  %s\n", indent(a.Message))
		}
	}
	if d := rep.Dispatch; d != nil {
		switch {
		case d.NotConfigured:
			fmt.Fprintln(w, "  (alert channel not configured; nothing sent)")
		default:
			fmt.Fprintf(w, "  sent %d of %d\n", d.Sent, d.Attempted)
		}
	}
	fmt.Fprintln(w)

	printForecast(w, rep.Forecast, rep.ForecastSkipped)
	printFailures(w, rep.Failures)
}

// printForecast shows the projected points per group.
func printForecast(w io.Writer, points []models.ForecastPoint, skipped []string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tDAY\tPREDICTED\tLOWER\tUPPER")
	n := 0
	for _, p := range points {
		if p.InSample {
			continue
		}
		n++
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%.3f\t%.3f\n", p.Group, models.DayOf(p.Day), p.Predicted, p.Lower, p.Upper)
	}
	if n > 0 {
		fmt.Fprintln(w, "Forecast:")
		tw.Flush()
	}
	for _, g := range skipped {
		fmt.Fprintf(w, "Not enough data to forecast %s.\n", g)
	}
}

func printFailures(w io.Writer, failures []collector.Failure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(w, "\nSource errors (%d):\n", len(failures))
	for _, f := range failures {
		fmt.Fprintf(w, "  %s / %s: %s\n", f.Provider, f.Term, f.Message)
	}
}

// indent aligns continuation lines of a multi-line alert under the first.
func indent(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, r)
		if r == '\n' {
			out = append(out, []rune("  ")...)
		}
	}
	return string(out)
}
