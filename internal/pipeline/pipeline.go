// Package pipeline runs one monitoring pass: collect, annotate, summarise,
// aggregate, forecast, alert and optionally persist and notify.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/seenimoa/newspulse/internal/alerting"
	"github.com/seenimoa/newspulse/internal/analysis/aggregate"
	"github.com/seenimoa/newspulse/internal/analysis/forecast"
	"github.com/seenimoa/newspulse/internal/analysis/sentiment"
	"github.com/seenimoa/newspulse/internal/collector"
	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/logging"
	"github.com/seenimoa/newspulse/internal/snapshot"
	"github.com/seenimoa/newspulse/pkg/models"
)

// Options are the analysis settings shared by every run.
type Options struct {
	// TextField is the column scored. Empty picks description when the
	// input has it, else text.
	TextField  string
	GroupField aggregate.GroupField
	Horizon    int
	Thresholds alerting.Thresholds
	// NewModel builds one forecast model per group. Nil uses a linear trend.
	NewModel func() forecast.Model
}

// OptionsFromConfig maps the analysis and alerts sections.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	group, err := aggregate.ParseGroupField(cfg.Analysis.GroupField)
	if err != nil {
		return Options{}, err
	}
	return Options{
		TextField:  cfg.Analysis.TextField,
		GroupField: group,
		Horizon:    cfg.Analysis.ForecastHorizon,
		Thresholds: alerting.ThresholdsFromConfig(cfg.Alerts),
	}, nil
}

// Request is one pipeline run.
type Request struct {
	Collect collector.Request `json:"collect"`
	// SnapshotPath, when set, receives the collected rows.
	SnapshotPath string `json:"snapshot_path,omitempty"`
	// Notify dispatches the alerts through the configured notifier.
	Notify bool `json:"notify,omitempty"`
}

// Report is everything one run produced.
type Report struct {
	GeneratedAt     time.Time                 `json:"generated_at"`
	Empty           bool                      `json:"empty"`
	TextField       string                    `json:"text_field,omitempty"`
	Rows            []models.AnnotatedArticle `json:"rows"`
	KPIs            models.KPIs               `json:"kpis"`
	Breakdown       []models.EntityBreakdown  `json:"breakdown"`
	Alerts          []models.Alert            `json:"alerts"`
	Daily           []models.DailyPoint       `json:"daily"`
	Forecast        []models.ForecastPoint    `json:"forecast"`
	ForecastSkipped []string                  `json:"forecast_skipped,omitempty"`
	Failures        []collector.Failure       `json:"failures,omitempty"`
	SnapshotPath    string                    `json:"snapshot_path,omitempty"`
	Dispatch        *alerting.DispatchReport  `json:"dispatch,omitempty"`
}

// Pipeline wires the stages together.
type Pipeline struct {
	collector  *collector.Collector
	annotator  *sentiment.Annotator
	dispatcher *alerting.Dispatcher
	opts       Options
	log        *slog.Logger
	now        func() time.Time
}

// New builds a pipeline. c may be nil when only AnalyzeRows is used, and
// d may be nil when alerts are never dispatched.
func New(c *collector.Collector, a *sentiment.Annotator, d *alerting.Dispatcher, opts Options, logger *slog.Logger) *Pipeline {
	if opts.Horizon <= 0 {
		opts.Horizon = forecast.DefaultHorizon
	}
	if opts.GroupField == "" {
		opts.GroupField = aggregate.GroupEntity
	}
	if opts.NewModel == nil {
		opts.NewModel = forecast.NewLinearTrend
	}
	return &Pipeline{
		collector:  c,
		annotator:  a,
		dispatcher: d,
		opts:       opts,
		log:        logging.OrDefault(logger),
		now:        time.Now,
	}
}

// Collect runs the collection stage only and, when snapshotPath is set and
// rows were found, writes them there.
func (p *Pipeline) Collect(ctx context.Context, req collector.Request, snapshotPath string) (*collector.Batch, error) {
	if p.collector == nil {
		return nil, fmt.Errorf("pipeline: no collector configured")
	}
	batch, err := p.collector.Collect(ctx, req)
	if err != nil {
		return nil, err
	}
	if snapshotPath != "" && !batch.Empty() {
		if err := snapshot.Write(snapshotPath, batch.Rows); err != nil {
			return nil, err
		}
		p.log.Info("snapshot_written", slog.String("path", snapshotPath), slog.Int("rows", len(batch.Rows)))
	}
	return batch, nil
}

// Run collects and analyses. Source failures are carried in the report;
// only an invalid request, a cancelled context, or a failing snapshot write
// is returned as an error.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Report, error) {
	batch, err := p.Collect(ctx, req.Collect, req.SnapshotPath)
	if err != nil {
		return nil, err
	}

	rep, err := p.AnalyzeRows(batch.Rows, nil)
	if err != nil {
		return nil, err
	}
	rep.Failures = batch.Failures
	if req.SnapshotPath != "" && !batch.Empty() {
		rep.SnapshotPath = req.SnapshotPath
	}
	if req.Notify {
		p.Dispatch(ctx, rep)
	}
	p.log.Info("pipeline_done",
		slog.Int("rows", rep.KPIs.Total),
		slog.Int("alerts", len(rep.Alerts)),
		slog.Int("failures", len(rep.Failures)))
	return rep, nil
}

// Dispatch sends the report's alerts and records the outcome on it.
func (p *Pipeline) Dispatch(ctx context.Context, rep *Report) {
	dr := p.dispatcher.Dispatch(ctx, rep.Alerts)
	rep.Dispatch = &dr
}

// AnalyzeRows runs every post-collection stage on rows from a snapshot or
// CSV import. columns is the input column set used to pick the default
// text field; nil means the full article schema.
func (p *Pipeline) AnalyzeRows(rows []models.Article, columns []string) (*Report, error) {
	rep := &Report{GeneratedAt: p.now().UTC()}
	if len(rows) == 0 {
		rep.Empty = true
		return rep, nil
	}

	field := p.opts.TextField
	if field == "" {
		if columns == nil {
			columns = sentiment.TextFields
		}
		field = sentiment.PreferredField(columns)
	}
	rep.TextField = field

	annotated, err := p.annotator.Annotate(rows, field)
	if err != nil {
		return nil, err
	}
	rep.Rows = annotated
	rep.KPIs = sentiment.Summarize(annotated)
	rep.Breakdown = sentiment.Breakdown(annotated)
	rep.Alerts = alerting.Evaluate(annotated, p.opts.Thresholds)

	rep.Daily, err = aggregate.Daily(annotated, p.opts.GroupField)
	if err != nil {
		return nil, err
	}
	rep.Forecast, rep.ForecastSkipped, err = forecast.ForecastAll(rep.Daily, p.opts.Horizon, p.opts.NewModel)
	if err != nil {
		return nil, err
	}
	return rep, nil
}
