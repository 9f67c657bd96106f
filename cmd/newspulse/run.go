package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/newspulse/internal/pipeline"
	"github.com/seenimoa/newspulse/internal/report"
	"github.com/seenimoa/newspulse/internal/scheduler"
	"github.com/seenimoa/newspulse/internal/snapshot"
	"github.com/seenimoa/newspulse/pkg/models"
)

// addQueryFlags registers the collection flags shared by collect, analyze and watch.
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("competitors", nil, "competitor names to search (default: collector.competitors)")
	cmd.Flags().String("keywords", "", "comma separated free-text keywords")
	cmd.Flags().StringSlice("providers", nil, "sources to query: newsapi, gnews, googlenews")
	cmd.Flags().String("from", "", "range start, YYYY-MM-DD (default: today minus lookback)")
	cmd.Flags().String("to", "", "range end, YYYY-MM-DD (default: today)")
	cmd.Flags().Int("lookback", 0, "days before --to when --from is not set")
	cmd.Flags().Int("limit", 0, "max articles per term per source")
}

func queryFromFlags(cmd *cobra.Command) pipeline.Query {
	f := cmd.Flags()
	var q pipeline.Query
	q.Competitors, _ = f.GetStringSlice("competitors")
	kw, _ := f.GetString("keywords")
	q.Keywords = models.ParseKeywords(kw)
	q.Providers, _ = f.GetStringSlice("providers")
	q.From, _ = f.GetString("from")
	q.To, _ = f.GetString("to")
	q.LookbackDays, _ = f.GetInt("lookback")
	q.MaxArticles, _ = f.GetInt("limit")
	return q
}

// --- Collect Command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Fetch articles and write a parquet snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := pipeline.Build(cfg, nil, logger)
		if err != nil {
			return err
		}
		req, err := queryFromFlags(cmd).Request(cfg.Collector, time.Now())
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = cfg.Snapshot.Path
		}

		ctx, stop := signalContext()
		defer stop()
		batch, err := env.Pipeline.Collect(ctx, req, out)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if batch.Empty() {
			fmt.Fprintln(w, "No articles found.")
		} else {
			fmt.Fprintf(w, "Saved %d articles x %d columns to %s\n", len(batch.Rows), snapshotColumns, out)
		}
		printFailures(w, batch.Failures)
		return nil
	},
}

// snapshotColumns is the width of the article row schema.
const snapshotColumns = 13

func init() {
	addQueryFlags(collectCmd)
	collectCmd.Flags().StringP("output", "o", "", "snapshot path (default: snapshot.path)")
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Collect, score, forecast and alert in one run",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := pipeline.Build(cfg, nil, logger)
		if err != nil {
			return err
		}
		req, err := queryFromFlags(cmd).Request(cfg.Collector, time.Now())
		if err != nil {
			return err
		}
		notify, _ := cmd.Flags().GetBool("notify")
		preq := pipeline.Request{Collect: req, Notify: notify}
		if save, _ := cmd.Flags().GetBool("snapshot"); save {
			preq.SnapshotPath = cfg.Snapshot.Path
		}

		ctx, stop := signalContext()
		defer stop()
		rep, err := env.Pipeline.Run(ctx, preq)
		if err != nil {
			return err
		}
		return writeReport(cmd, rep)
	},
}

func init() {
	addQueryFlags(analyzeCmd)
	analyzeCmd.Flags().Bool("notify", false, "send alerts to the configured channel")
	analyzeCmd.Flags().Bool("snapshot", false, "also write the collected rows to snapshot.path")
	analyzeCmd.Flags().Bool("json", false, "print the full report as JSON")
	analyzeCmd.Flags().String("html", "", "also write an HTML report to this path")
}

// --- Annotate Command ---

var annotateCmd = &cobra.Command{
	Use:   "annotate <file.csv|file.parquet>",
	Short: "Score and analyse an exported CSV or a saved snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := pipeline.Build(cfg, nil, logger)
		if err != nil {
			return err
		}
		rows, columns, err := snapshot.Load(args[0])
		if err != nil {
			return err
		}
		rep, err := env.Pipeline.AnalyzeRows(rows, columns)
		if err != nil {
			return err
		}
		if notify, _ := cmd.Flags().GetBool("notify"); notify {
			env.Pipeline.Dispatch(cmd.Context(), rep)
		}
		return writeReport(cmd, rep)
	},
}

func init() {
	annotateCmd.Flags().Bool("notify", false, "send alerts to the configured channel")
	annotateCmd.Flags().Bool("json", false, "print the full report as JSON")
	annotateCmd.Flags().String("html", "", "also write an HTML report to this path")
}

// --- Watch Command ---

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run analyze on a schedule and send alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := pipeline.Build(cfg, nil, logger)
		if err != nil {
			return err
		}
		q := queryFromFlags(cmd)
		spec, _ := cmd.Flags().GetString("schedule")
		if spec == "" {
			spec = cfg.Watch.Schedule
		}

		sched, err := scheduler.New(cfg.Watch.Timezone)
		if err != nil {
			return err
		}
		ctx, stop := signalContext()
		defer stop()

		run := func() { watchOnce(ctx, env.Pipeline, q) }
		if err := sched.Schedule(spec, run); err != nil {
			return err
		}
		if now, _ := cmd.Flags().GetBool("now"); now {
			run()
		}
		sched.Start()
		logger.Info("watch_started", slog.String("schedule", spec), slog.Time("next", sched.Next()))

		<-ctx.Done()
		sched.Stop()
		logger.Info("watch_stopped")
		return nil
	},
}

func init() {
	addQueryFlags(watchCmd)
	watchCmd.Flags().String("schedule", "", "cron expression or HH:MM (default: watch.schedule)")
	watchCmd.Flags().Bool("now", false, "run once immediately before waiting for the schedule")
}

// watchOnce runs one scheduled pass. Errors are logged so the loop keeps going.
func watchOnce(ctx context.Context, p *pipeline.Pipeline, q pipeline.Query) {
	req, err := q.Request(cfg.Collector, time.Now())
	if err != nil {
		logger.Error("watch_request_invalid", slog.String("error", err.Error()))
		return
	}
	rep, err := p.Run(ctx, pipeline.Request{Collect: req, SnapshotPath: cfg.Snapshot.Path, Notify: true})
	if err != nil {
		logger.Error("watch_run_failed", slog.String("error", err.Error()))
		return
	}
	attrs := []any{slog.Int("rows", rep.KPIs.Total), slog.Int("alerts", len(rep.Alerts))}
	if rep.Dispatch != nil {
		attrs = append(attrs, slog.Int("sent", rep.Dispatch.Sent))
	}
	logger.Info("watch_run_done", attrs...)
}

func writeReport(cmd *cobra.Command, rep *pipeline.Report) error {
	w := cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("html"); path != "" {
		if err := report.WriteHTML(path, rep, report.Config{}); err != nil {
			return fmt.Errorf("writing HTML report: %w", err)
		}
		logger.Info("html_report_written", slog.String("path", path))
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	printReport(w, rep)
	return nil
}

