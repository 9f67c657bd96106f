package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seenimoa/newspulse/internal/alerting"
	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/logging"
	"github.com/seenimoa/newspulse/internal/provider"
	"github.com/seenimoa/newspulse/pkg/models"
)

func testCollectorConfig() config.CollectorConfig {
	return config.CollectorConfig{
		MaxArticles:  50,
		LookbackDays: 30,
		Competitors:  []string{"Google", "Microsoft"},
		Providers:    []string{"newsapi", "gnews"},
	}
}

func TestQueryDefaults(t *testing.T) {
	now := time.Date(2024, 3, 31, 18, 45, 0, 0, time.UTC)
	req, err := Query{}.Request(testCollectorConfig(), now)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if len(req.Terms) != 2 || req.Terms[0].Text != "Google" || req.Terms[0].Type != models.TermCompetitor {
		t.Errorf("terms = %+v", req.Terms)
	}
	if len(req.Providers) != 2 || req.Providers[1] != models.ProviderGNews {
		t.Errorf("providers = %v", req.Providers)
	}
	if models.DayOf(req.To) != "2024-03-31" || models.DayOf(req.From) != "2024-03-01" {
		t.Errorf("range = %s..%s", models.DayOf(req.From), models.DayOf(req.To))
	}
	if req.MaxArticles != 50 {
		t.Errorf("max = %d", req.MaxArticles)
	}
}

func TestQueryOverrides(t *testing.T) {
	q := Query{
		Keywords:    []string{"widgets"},
		Providers:   []string{"GNews"},
		From:        "2024-01-01",
		To:          "2024-01-07",
		MaxArticles: 5,
	}
	req, err := q.Request(testCollectorConfig(), time.Now())
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if len(req.Terms) != 1 || req.Terms[0].Type != models.TermKeyword {
		t.Errorf("terms = %+v", req.Terms)
	}
	if req.Providers[0] != models.ProviderGNews || req.MaxArticles != 5 {
		t.Errorf("req = %+v", req)
	}
	if models.DayOf(req.From) != "2024-01-01" || models.DayOf(req.To) != "2024-01-07" {
		t.Errorf("range = %v..%v", req.From, req.To)
	}
}

func TestQueryInvalid(t *testing.T) {
	tests := []struct {
		name string
		q    Query
	}{
		{"unknown provider", Query{Providers: []string{"bing"}}},
		{"bad date", Query{From: "01/02/2024"}},
		{"inverted range", Query{From: "2024-02-01", To: "2024-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.q.Request(testCollectorConfig(), time.Now())
			if !errors.Is(err, provider.ErrInvalidQuery) {
				t.Errorf("got %v, want ErrInvalidQuery", err)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	cfg := &config.Config{
		Providers: config.ProvidersConfig{NewsAPI: config.KeyedProviderConfig{APIKey: "k", BaseURL: "http://localhost"}},
		Collector: config.CollectorConfig{Concurrency: 2},
		Analysis:  config.AnalysisConfig{Scorer: "keyword"},
		Alerts:    config.AlertsConfig{Threshold: -0.5, Notifier: "none"},
	}
	extra := &recordNotifier{}
	env, err := Build(cfg, extra, logging.Discard())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if names := env.Registry.Names(); len(names) != 1 || names[0] != models.ProviderNewsAPI {
		t.Errorf("registered = %v", names)
	}
	if _, ok := env.Unavailable[models.ProviderGNews]; !ok {
		t.Error("gnews should be reported unavailable")
	}
	if env.Notifier != alerting.Notifier(extra) {
		t.Errorf("notifier = %T, want the extra notifier", env.Notifier)
	}

	cfg.Analysis.Scorer = "bert"
	if _, err := Build(cfg, nil, logging.Discard()); err == nil {
		t.Error("unknown scorer should fail Build")
	}
}

func TestBuildExtraChannelWithUnconfiguredSlack(t *testing.T) {
	cfg := &config.Config{
		Collector: config.CollectorConfig{Concurrency: 1},
		Analysis:  config.AnalysisConfig{Scorer: "keyword"},
		Alerts:    config.AlertsConfig{Threshold: -0.5, Notifier: "slack"},
	}
	extra := &recordNotifier{}
	env, err := Build(cfg, extra, logging.Discard())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rep := &Report{Alerts: []models.Alert{{Message: "one"}, {Message: "two"}}}
	env.Pipeline.Dispatch(context.Background(), rep)
	if rep.Dispatch == nil {
		t.Fatal("dispatch report missing")
	}
	if rep.Dispatch.Sent != 2 || rep.Dispatch.Failed != 0 || rep.Dispatch.NotConfigured {
		t.Errorf("dispatch = %+v, want both sent through the extra channel", *rep.Dispatch)
	}
}
