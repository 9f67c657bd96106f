package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/seenimoa/newspulse/internal/alerting"
	"github.com/seenimoa/newspulse/internal/analysis/sentiment"
	"github.com/seenimoa/newspulse/internal/collector"
	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/logging"
	"github.com/seenimoa/newspulse/internal/provider"
	"github.com/seenimoa/newspulse/internal/providers"
	"github.com/seenimoa/newspulse/pkg/models"
)

// Env is the set of components built from one configuration.
type Env struct {
	Config      *config.Config
	Registry    *provider.Registry
	Unavailable map[models.ProviderName]error
	Notifier    alerting.Notifier
	Pipeline    *Pipeline
}

// Build wires sources, collector, scorer and notifier from cfg. extra, when
// non-nil, receives every alert alongside the configured channel.
func Build(cfg *config.Config, extra alerting.Notifier, logger *slog.Logger) (*Env, error) {
	logger = logging.OrDefault(logger)

	client := providers.NewClient(cfg.HTTP, logger)
	reg := provider.NewRegistry()
	if err := providers.RegisterAllTo(reg, cfg, client); err != nil {
		return nil, fmt.Errorf("register providers: %w", err)
	}
	unavailable := providers.Unconfigured(cfg)

	var enricher collector.Enricher
	if cfg.Collector.FullText {
		enricher = collector.NewReadabilityEnricher(client, cfg.Collector.Concurrency, logger)
	}
	coll := collector.New(reg, collector.Options{
		Concurrency: cfg.Collector.Concurrency,
		Unavailable: unavailable,
		Enricher:    enricher,
		Logger:      logger,
	})

	scorer, err := sentiment.NewScorer(cfg.Analysis.Scorer)
	if err != nil {
		return nil, err
	}

	notifier := alerting.NewNotifierFromConfig(cfg.Alerts, logger)
	switch {
	case notifier == nil:
		notifier = extra
	case extra != nil:
		notifier = alerting.MultiNotifier{extra, notifier}
	}

	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	p := New(coll, sentiment.NewAnnotator(scorer, logger), alerting.NewDispatcher(notifier, logger), opts, logger)
	return &Env{
		Config:      cfg,
		Registry:    reg,
		Unavailable: unavailable,
		Notifier:    notifier,
		Pipeline:    p,
	}, nil
}

// Query is a user-facing collection request. Zero fields fall back to the
// collector config section.
type Query struct {
	Competitors  []string `json:"competitors,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
	Providers    []string `json:"providers,omitempty"`
	From         string   `json:"from,omitempty"` // YYYY-MM-DD
	To           string   `json:"to,omitempty"`   // YYYY-MM-DD, default today
	LookbackDays int      `json:"lookback_days,omitempty"`
	MaxArticles  int      `json:"max_articles,omitempty"`
}

// Request resolves q against cfg. The range defaults to the lookback window
// ending on today's date.
func (q Query) Request(cfg config.CollectorConfig, now time.Time) (collector.Request, error) {
	competitors, keywords := q.Competitors, q.Keywords
	if len(competitors) == 0 && len(keywords) == 0 {
		competitors, keywords = cfg.Competitors, cfg.Keywords
	}
	names := q.Providers
	if len(names) == 0 {
		names = cfg.Providers
	}
	provs := make([]models.ProviderName, 0, len(names))
	for _, n := range names {
		p, err := models.ParseProviderName(n)
		if err != nil {
			return collector.Request{}, fmt.Errorf("%w: %v", provider.ErrInvalidQuery, err)
		}
		provs = append(provs, p)
	}

	to, _ := models.ParseDay(models.DayOf(now))
	if q.To != "" {
		t, err := models.ParseDay(q.To)
		if err != nil {
			return collector.Request{}, fmt.Errorf("%w: to: %v", provider.ErrInvalidQuery, err)
		}
		to = t
	}
	lookback := q.LookbackDays
	if lookback <= 0 {
		lookback = cfg.LookbackDays
	}
	from := to.AddDate(0, 0, -lookback)
	if q.From != "" {
		f, err := models.ParseDay(q.From)
		if err != nil {
			return collector.Request{}, fmt.Errorf("%w: from: %v", provider.ErrInvalidQuery, err)
		}
		from = f
	}

	limit := q.MaxArticles
	if limit <= 0 {
		limit = cfg.MaxArticles
	}
	req := collector.Request{
		Terms:       models.Terms(competitors, keywords),
		Providers:   provs,
		From:        from,
		To:          to,
		MaxArticles: limit,
	}
	return req, req.Validate()
}
