// Package gnews implements the GNews.io search source.
//
// Requires an API token from https://gnews.io
// Docs: https://gnews.io/docs/v4#search-endpoint
package gnews

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/seenimoa/newspulse/internal/provider"
	"github.com/seenimoa/newspulse/pkg/models"
)

const (
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://gnews.io/api/v4"
	maxPageSize    = 100
	credAPIKey     = "api_key"
	isoLayout      = "2006-01-02T15:04:05Z"
)

// Provider implements provider.Source for GNews.
type Provider struct {
	provider.BaseSource
	baseURL string
}

// New creates a GNews source. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, client *provider.Client) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		BaseSource: provider.NewBaseSource(provider.ProviderInfo{
			Name:        models.ProviderGNews,
			Description: "GNews.io article search",
			Website:     "https://gnews.io",
			Credentials: []provider.Credential{{
				Name:        credAPIKey,
				Description: "GNews API token",
				Required:    true,
				EnvVar:      "GNEWS_KEY",
			}},
			MaxPageSize: maxPageSize,
		}, client),
		baseURL: baseURL,
	}
}

// Fetch requests a fixed max of min(100, q.MaxArticles) on every page and
// stops on a short page. The total is trimmed to q.MaxArticles.
func (p *Provider) Fetch(ctx context.Context, q provider.Query) ([]models.Article, error) {
	if err := p.Ready(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	rows, err := provider.Paginate(ctx,
		provider.Pager{MaxArticles: q.MaxArticles, MaxPage: maxPageSize, FixedSize: true},
		func(ctx context.Context, page, size int) ([]models.Article, error) {
			return p.fetchPage(ctx, q, page, size)
		})
	if err != nil {
		return nil, fmt.Errorf("gnews %q: %w", q.Term, err)
	}
	return provider.Dedup(rows, provider.ByKeyword), nil
}

func (p *Provider) fetchPage(ctx context.Context, q provider.Query, page, size int) ([]models.Article, error) {
	var resp searchResponse
	if err := p.Client().GetJSON(ctx, p.searchURL(q, page, size), nil, &resp); err != nil {
		return nil, err
	}
	if msg := resp.errorText(); msg != "" {
		return nil, &provider.ErrAPI{Provider: models.ProviderGNews, Message: msg}
	}

	rows := make([]models.Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		rows = append(rows, models.NewArticle(
			q.Term, a.Title, a.Description, a.Content, a.Source.Name, "", a.URL, published,
		))
	}
	return rows, nil
}

func (p *Provider) searchURL(q provider.Query, page, size int) string {
	to := q.To
	if to.IsZero() {
		to = time.Now().UTC().Truncate(24 * time.Hour)
	}
	v := url.Values{}
	v.Set("q", q.Term)
	v.Set("token", p.Credential(credAPIKey))
	v.Set("lang", "en")
	if !q.From.IsZero() {
		v.Set("from", q.From.UTC().Format(isoLayout))
	}
	v.Set("to", to.UTC().Format(isoLayout))
	v.Set("max", strconv.Itoa(size))
	v.Set("page", strconv.Itoa(page))
	return p.baseURL + "/search?" + v.Encode()
}

// Ping issues a one-article query.
func (p *Provider) Ping(ctx context.Context) error {
	if err := p.Ready(); err != nil {
		return err
	}
	if _, err := p.fetchPage(ctx, provider.Query{Term: "news", MaxArticles: 1}, 1, 1); err != nil {
		return fmt.Errorf("gnews ping: %w", err)
	}
	return nil
}
