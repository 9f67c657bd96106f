// Package newsapi implements the NewsAPI.org source.
// It queries /v2/everything for English articles sorted by publish time.
//
// Requires an API key from https://newsapi.org/register
// Page size is capped at 100.
// Docs: https://newsapi.org/docs/endpoints/everything
package newsapi

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
	DefaultBaseURL = "https://newsapi.org/v2"
	maxPageSize    = 100
	credAPIKey     = "api_key"
)

// Provider implements provider.Source for NewsAPI.
type Provider struct {
	provider.BaseSource
	baseURL string
}

// New creates a NewsAPI source. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, client *provider.Client) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		BaseSource: provider.NewBaseSource(provider.ProviderInfo{
			Name:        models.ProviderNewsAPI,
			Description: "NewsAPI.org everything search",
			Website:     "https://newsapi.org",
			Credentials: []provider.Credential{{
				Name:        credAPIKey,
				Description: "NewsAPI key from newsapi.org",
				Required:    true,
				EnvVar:      "NEWSAPI_KEY",
			}},
			MaxPageSize: maxPageSize,
		}, client),
		baseURL: baseURL,
	}
}

// Fetch pages through /everything until q.MaxArticles rows are collected,
// an empty page arrives or a page comes back short.
func (p *Provider) Fetch(ctx context.Context, q provider.Query) ([]models.Article, error) {
	if err := p.Ready(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	rows, err := provider.Paginate(ctx, provider.Pager{MaxArticles: q.MaxArticles, MaxPage: maxPageSize},
		func(ctx context.Context, page, size int) ([]models.Article, error) {
			return p.fetchPage(ctx, q, page, size)
		})
	if err != nil {
		return nil, fmt.Errorf("newsapi %q: %w", q.Term, err)
	}
	return provider.Dedup(rows, provider.ByKeyword), nil
}

func (p *Provider) fetchPage(ctx context.Context, q provider.Query, page, size int) ([]models.Article, error) {
	var resp everythingResponse
	if err := p.Client().GetJSON(ctx, p.everythingURL(q, page, size), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "error" {
		return nil, &provider.ErrAPI{Provider: models.ProviderNewsAPI, Code: resp.Code, Message: resp.Message}
	}

	rows := make([]models.Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		rows = append(rows, models.NewArticle(
			q.Term,
			deref(a.Title),
			deref(a.Description),
			deref(a.Content),
			a.Source.Name,
			deref(a.Author),
			a.URL,
			parseTime(a.PublishedAt),
		))
	}
	return rows, nil
}

func (p *Provider) everythingURL(q provider.Query, page, size int) string {
	to := q.To
	if to.IsZero() {
		to = time.Now().UTC()
	}
	v := url.Values{}
	v.Set("q", q.Term)
	if !q.From.IsZero() {
		v.Set("from", q.From.Format(time.DateOnly))
	}
	v.Set("to", to.Format(time.DateOnly))
	v.Set("language", "en")
	v.Set("sortBy", "publishedAt")
	v.Set("pageSize", strconv.Itoa(size))
	v.Set("page", strconv.Itoa(page))
	v.Set("apiKey", p.Credential(credAPIKey))
	return p.baseURL + "/everything?" + v.Encode()
}

// Ping issues a one-article query.
func (p *Provider) Ping(ctx context.Context) error {
	if err := p.Ready(); err != nil {
		return err
	}
	_, err := p.fetchPage(ctx, provider.Query{Term: "news", MaxArticles: 1}, 1, 1)
	if err != nil {
		return fmt.Errorf("newsapi ping: %w", err)
	}
	return nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
