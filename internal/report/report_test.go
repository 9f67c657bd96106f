package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/newspulse/internal/collector"
	"github.com/seenimoa/newspulse/internal/pipeline"
	"github.com/seenimoa/newspulse/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func sampleReport() *pipeline.Report {
	row := func(title string, score float64, label models.SentimentLabel) models.AnnotatedArticle {
		return models.AnnotatedArticle{
			Article:        models.Article{Title: title, Entity: "Acme", Source: "wire", Date: "2024-01-02", URL: "https://x/" + title},
			SentimentScore: score,
			SentimentLabel: label,
		}
	}
	return &pipeline.Report{
		GeneratedAt: time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC),
		TextField:   "description",
		Rows: []models.AnnotatedArticle{
			row("recall", -0.6, models.LabelNegative),
			row("<script>alert(1)</script>", 0.1, models.LabelPositive),
		},
		KPIs:      models.KPIs{Total: 2, Positive: 1, Negative: 1, Average: -0.25},
		Breakdown: []models.EntityBreakdown{{Entity: "Acme", Negative: 1, Positive: 1}},
		Alerts: []models.Alert{
			{Kind: models.AlertNegative, Entity: "Acme", Title: "recall", Score: -0.6},
		},
		Forecast: []models.ForecastPoint{
			{Group: "Acme", Day: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), InSample: true},
			{Group: "Acme", Day: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Predicted: -0.3, Lower: -0.5, Upper: -0.1},
		},
		ForecastSkipped: []string{"Globex"},
		Failures:        []collector.Failure{{Provider: "gnews", Term: "Acme", Message: "quota"}},
	}
}

// ════════════════════════════════════════════════════════════════════
// GenerateHTML
// ════════════════════════════════════════════════════════════════════

func TestGenerateHTML(t *testing.T) {
	html, err := GenerateHTML(sampleReport(), Config{})
	if err != nil {
		t.Fatalf("GenerateHTML: %v", err)
	}
	for _, want := range []string{
		"<title>newspulse sentiment report</title>",
		"<code>description</code>",
		"-0.250",
		"-0.60",
		"2024-01-03",
		"Not enough data to forecast Globex.",
		"quota",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("article titles must be escaped")
	}
	if strings.Contains(html, "<tr><td>Acme</td><td>2024-01-02</td>") {
		t.Error("in-sample forecast points should not be listed")
	}
	if !strings.Contains(html, "<tr><td>Acme</td><td>2024-01-03</td>") {
		t.Error("future forecast point missing")
	}
}

func TestGenerateHTMLEmpty(t *testing.T) {
	html, err := GenerateHTML(&pipeline.Report{Empty: true}, Config{Title: "Weekly"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "No articles found") || !strings.Contains(html, "<title>Weekly</title>") {
		t.Errorf("unexpected empty report:\n%s", html)
	}
}

func TestGenerateHTMLNil(t *testing.T) {
	if _, err := GenerateHTML(nil, Config{}); err == nil {
		t.Error("expected error for nil report")
	}
}

func TestMaxRows(t *testing.T) {
	d := buildData(sampleReport(), Config{MaxRows: 1})
	if len(d.Articles) != 1 || d.Hidden != 1 {
		t.Errorf("articles=%d hidden=%d", len(d.Articles), d.Hidden)
	}
	d = buildData(sampleReport(), Config{MaxRows: -1})
	if len(d.Articles) != 0 {
		t.Errorf("negative MaxRows should hide articles, got %d", len(d.Articles))
	}
}

func TestWriteHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.html")
	if err := WriteHTML(path, sampleReport(), Config{}); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "<!DOCTYPE html>") {
		t.Error("file is not an HTML page")
	}
}
