// Package report renders a pipeline run as a self-contained HTML page.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/seenimoa/newspulse/internal/pipeline"
	"github.com/seenimoa/newspulse/pkg/models"
)

// Config controls report generation.
type Config struct {
	// Title defaults to "newspulse sentiment report".
	Title string

	// MaxRows caps the article table. 0 means 100; negative hides it.
	MaxRows int
}

// ════════════════════════════════════════════════════════════════════
// Report Data (flattened for template rendering)
// ════════════════════════════════════════════════════════════════════

// Data is the template model.
type Data struct {
	Title       string
	GeneratedAt string
	TextField   string
	Empty       bool

	KPIs      models.KPIs
	Average   string
	Breakdown []models.EntityBreakdown
	Alerts    []AlertRow
	Forecast  []ForecastRow
	Skipped   []string
	Articles  []ArticleRow
	Hidden    int // articles beyond MaxRows
	Failures  []FailureRow
}

// AlertRow is one alert for rendering.
type AlertRow struct {
	Class  string // CSS class: neg, pos
	Entity string
	Score  string
	Title  string
	URL    string
}

// ForecastRow is one projected day.
type ForecastRow struct {
	Group     string
	Day       string
	Predicted string
	Band      string
}

// ArticleRow is one annotated article.
type ArticleRow struct {
	Date   string
	Entity string
	Source string
	Title  string
	URL    string
	Score  string
	Label  string
}

// FailureRow is one failed source fetch.
type FailureRow struct {
	Provider string
	Term     string
	Error    string
}

var tmpl = template.Must(template.New("report").Parse(reportTemplate))

// ════════════════════════════════════════════════════════════════════
// Generate Report
// ════════════════════════════════════════════════════════════════════

// GenerateHTML renders rep.
func GenerateHTML(rep *pipeline.Report, cfg Config) (string, error) {
	if rep == nil {
		return "", fmt.Errorf("report is nil")
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, buildData(rep, cfg)); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// WriteHTML renders rep to path, creating parent directories.
func WriteHTML(path string, rep *pipeline.Report, cfg Config) error {
	html, err := GenerateHTML(rep, cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(html), 0o644)
}

func buildData(rep *pipeline.Report, cfg Config) Data {
	d := Data{
		Title:       cfg.Title,
		GeneratedAt: rep.GeneratedAt.UTC().Format(time.RFC1123),
		TextField:   rep.TextField,
		Empty:       rep.Empty,
		KPIs:        rep.KPIs,
		Average:     fmt.Sprintf("%+.3f", rep.KPIs.Average),
		Breakdown:   rep.Breakdown,
		Skipped:     rep.ForecastSkipped,
	}
	if d.Title == "" {
		d.Title = "newspulse sentiment report"
	}

	for _, a := range rep.Alerts {
		class := "neg"
		if a.Kind == models.AlertPositive {
			class = "pos"
		}
		title := a.Title
		if title == "" {
			title = a.Text
		}
		d.Alerts = append(d.Alerts, AlertRow{Class: class, Entity: a.Entity, Score: fmt.Sprintf("%+.2f", a.Score), Title: title, URL: a.URL})
	}

	for _, p := range rep.Forecast {
		if p.InSample {
			continue
		}
		d.Forecast = append(d.Forecast, ForecastRow{
			Group:     p.Group,
			Day:       models.DayOf(p.Day),
			Predicted: fmt.Sprintf("%+.3f", p.Predicted),
			Band:      fmt.Sprintf("%+.3f … %+.3f", p.Lower, p.Upper),
		})
	}

	limit := cfg.MaxRows
	if limit == 0 {
		limit = 100
	}
	if limit > 0 {
		for i, r := range rep.Rows {
			if i == limit {
				d.Hidden = len(rep.Rows) - limit
				break
			}
			d.Articles = append(d.Articles, ArticleRow{
				Date:   r.Date,
				Entity: r.Entity,
				Source: r.Source,
				Title:  r.Title,
				URL:    r.URL,
				Score:  fmt.Sprintf("%+.3f", r.SentimentScore),
				Label:  string(r.SentimentLabel),
			})
		}
	}

	for _, f := range rep.Failures {
		d.Failures = append(d.Failures, FailureRow{Provider: string(f.Provider), Term: f.Term, Error: f.Message})
	}
	return d
}
