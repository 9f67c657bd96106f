package collector

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/newspulse/internal/provider"
	"github.com/seenimoa/newspulse/pkg/models"
)

const maxContentChars = 4000

// truncatedSuffix matches NewsAPI's "… [+1234 chars]" content marker.
var truncatedSuffix = regexp.MustCompile(`\[\+\d+ chars\]\s*$`)

// Truncated reports whether content carries a truncation marker.
func Truncated(content string) bool {
	return truncatedSuffix.MatchString(content)
}

// ReadabilityEnricher fetches truncated articles and replaces their content
// with the readable page text.
type ReadabilityEnricher struct {
	client      *provider.Client
	concurrency int
	log         *slog.Logger
}

// NewReadabilityEnricher creates an enricher sharing the source HTTP client.
func NewReadabilityEnricher(client *provider.Client, concurrency int, logger *slog.Logger) *ReadabilityEnricher {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadabilityEnricher{client: client, concurrency: concurrency, log: logger}
}

// Enrich returns rows with truncated content replaced where extraction
// succeeds. Failures keep the original row.
func (e *ReadabilityEnricher) Enrich(ctx context.Context, rows []models.Article) []models.Article {
	out := make([]models.Article, len(rows))
	copy(out, rows)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range out {
		if !Truncated(out[i].Content) || out[i].URL == "" {
			continue
		}
		g.Go(func() error {
			text, err := e.extract(gctx, out[i].URL)
			if err != nil {
				e.log.Debug("enrich_failed", slog.String("url", out[i].URL), slog.String("error", err.Error()))
				return nil
			}
			if text != "" {
				out[i].Content = text
				out[i].RebuildText()
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *ReadabilityEnricher) extract(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	body, err := e.client.Get(ctx, pageURL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return "", err
	}
	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return "", err
	}
	return truncate(strings.TrimSpace(article.TextContent), maxContentChars), nil
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
