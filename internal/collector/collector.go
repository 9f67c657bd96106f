// Package collector fans search terms out across the selected news sources,
// tags and merges the results, and isolates per-source failures so a run
// succeeds with whatever data could be fetched.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/newspulse/internal/provider"
	"github.com/seenimoa/newspulse/pkg/models"
)

// Request selects what to collect.
type Request struct {
	Terms       []models.Term         `json:"terms"`
	Providers   []models.ProviderName `json:"providers"`
	From        time.Time             `json:"from"`
	To          time.Time             `json:"to"`
	MaxArticles int                   `json:"max_articles"` // per term per provider
}

// Validate rejects requests that cannot produce any query.
func (r Request) Validate() error {
	switch {
	case len(r.Terms) == 0:
		return fmt.Errorf("%w: no search terms", provider.ErrInvalidQuery)
	case len(r.Providers) == 0:
		return fmt.Errorf("%w: no providers selected", provider.ErrInvalidQuery)
	case r.MaxArticles <= 0:
		return fmt.Errorf("%w: max articles must be positive, got %d", provider.ErrInvalidQuery, r.MaxArticles)
	case !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From):
		return fmt.Errorf("%w: range end before start", provider.ErrInvalidQuery)
	}
	return nil
}

// Failure records one (term, provider) fetch that did not succeed.
type Failure struct {
	Term     string              `json:"term"`
	Provider models.ProviderName `json:"provider"`
	Message  string              `json:"error"`
	Err      error               `json:"-"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s/%s: %v", f.Provider, f.Term, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Batch is the merged output of one collection run.
type Batch struct {
	Rows     []models.Article `json:"rows"`
	Failures []Failure        `json:"failures,omitempty"`
}

// Empty reports that no rows were collected.
func (b *Batch) Empty() bool { return b == nil || len(b.Rows) == 0 }

// Err joins every failure, or returns nil when all fetches succeeded.
func (b *Batch) Err() error {
	if b == nil || len(b.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(b.Failures))
	for i, f := range b.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Enricher can replace truncated article content after collection.
type Enricher interface {
	Enrich(ctx context.Context, rows []models.Article) []models.Article
}

// Options configures a Collector.
type Options struct {
	// Concurrency bounds in-flight fetches. 1 reproduces sequential order.
	Concurrency int
	// Unavailable explains selected providers missing from the registry.
	Unavailable map[models.ProviderName]error
	// Enricher is applied to the merged rows when set.
	Enricher Enricher
	Logger   *slog.Logger
}

// Collector runs requests against a provider registry.
type Collector struct {
	reg  *provider.Registry
	opts Options
	log  *slog.Logger
}

// New creates a collector.
func New(reg *provider.Registry, opts Options) *Collector {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Collector{reg: reg, opts: opts, log: log}
}

type task struct {
	term     models.Term
	provider models.ProviderName
	rows     []models.Article
	err      error
}

// Collect fetches every (term, provider) pair, then concatenates results in
// term-major order and removes duplicates on (title, url), first wins.
// Only an invalid request or a cancelled context is returned as an error.
func (c *Collector) Collect(ctx context.Context, req Request) (*Batch, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tasks := make([]*task, 0, len(req.Terms)*len(req.Providers))
	for _, term := range req.Terms {
		for _, name := range req.Providers {
			tasks = append(tasks, &task{term: term, provider: name})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for _, t := range tasks {
		g.Go(func() error {
			t.rows, t.err = c.fetch(gctx, t.term, t.provider, req)
			return nil // non-fatal
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := &Batch{}
	var rows []models.Article
	for _, t := range tasks {
		if t.err != nil {
			c.log.Warn("collect_failed",
				slog.String("provider", string(t.provider)),
				slog.String("term", t.term.Text),
				slog.String("error", t.err.Error()))
			batch.Failures = append(batch.Failures, Failure{
				Term:     t.term.Text,
				Provider: t.provider,
				Message:  t.err.Error(),
				Err:      t.err,
			})
			continue
		}
		rows = append(rows, t.rows...)
	}
	batch.Rows = provider.Dedup(rows, provider.ByIdentity)

	if c.opts.Enricher != nil && len(batch.Rows) > 0 {
		batch.Rows = c.opts.Enricher.Enrich(ctx, batch.Rows)
	}

	c.log.Info("collect_done",
		slog.Int("terms", len(req.Terms)),
		slog.Int("providers", len(req.Providers)),
		slog.Int("rows", len(batch.Rows)),
		slog.Int("failures", len(batch.Failures)))
	return batch, nil
}

func (c *Collector) fetch(ctx context.Context, term models.Term, name models.ProviderName, req Request) ([]models.Article, error) {
	src, err := c.reg.Get(name)
	if err != nil {
		if why, ok := c.opts.Unavailable[name]; ok {
			return nil, why
		}
		return nil, err
	}
	rows, err := src.Fetch(ctx, provider.Query{
		Term:        term.Text,
		From:        req.From,
		To:          req.To,
		MaxArticles: req.MaxArticles,
	})
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Entity = term.Text
		rows[i].SourceProvider = name
		rows[i].TermType = term.Type
	}
	return rows, nil
}
