// Package googlenews implements a keyless source over the Google News RSS
// search feed. The feed is a single page, so the article cap is applied by
// trimming.
package googlenews

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/newspulse/internal/provider"
	"github.com/seenimoa/newspulse/pkg/models"
)

// DefaultBaseURL is the production feed host.
const DefaultBaseURL = "https://news.google.com"

// Provider implements provider.Source for Google News RSS.
type Provider struct {
	provider.BaseSource
	baseURL string
	parser  *gofeed.Parser
}

// New creates a Google News source. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, client *provider.Client) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		BaseSource: provider.NewBaseSource(provider.ProviderInfo{
			Name:        models.ProviderGoogleNews,
			Description: "Google News RSS search (no key)",
			Website:     "https://news.google.com",
		}, client),
		baseURL: baseURL,
		parser:  gofeed.NewParser(),
	}
}

// Fetch reads the search feed for q.Term and keeps items published inside
// the query range.
func (p *Provider) Fetch(ctx context.Context, q provider.Query) ([]models.Article, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	body, err := p.Client().Get(ctx, p.searchURL(q), map[string]string{"Accept": "application/rss+xml"})
	if err != nil {
		return nil, fmt.Errorf("googlenews %q: %w", q.Term, err)
	}
	feed, err := p.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("googlenews %q: parse RSS: %w", q.Term, err)
	}

	rows := make([]models.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		}
		if !inRange(published, q.From, q.To) {
			continue
		}
		rows = append(rows, models.NewArticle(
			q.Term,
			item.Title,
			cleanHTML(item.Description),
			"",
			sourceName(item),
			authorName(item),
			item.Link,
			published,
		))
	}

	rows = provider.Dedup(rows, provider.ByKeyword)
	if len(rows) > q.MaxArticles {
		rows = rows[:q.MaxArticles]
	}
	return rows, nil
}

// searchURL builds /rss/search?q=<term> after:<from> before:<to+1d>.
func (p *Provider) searchURL(q provider.Query) string {
	query := q.Term
	if !q.From.IsZero() {
		query += " after:" + q.From.UTC().Format(time.DateOnly)
	}
	if !q.To.IsZero() {
		query += " before:" + q.To.UTC().AddDate(0, 0, 1).Format(time.DateOnly)
	}
	v := url.Values{}
	v.Set("q", query)
	v.Set("hl", "en-US")
	v.Set("gl", "US")
	v.Set("ceid", "US:en")
	return p.baseURL + "/rss/search?" + v.Encode()
}

// inRange compares calendar days; undated items are kept.
func inRange(t, from, to time.Time) bool {
	if t.IsZero() {
		return true
	}
	day := models.DayOf(t)
	if !from.IsZero() && day < models.DayOf(from) {
		return false
	}
	if !to.IsZero() && day > models.DayOf(to) {
		return false
	}
	return true
}

// sourceName reads the " - Publisher" suffix Google appends to titles.
func sourceName(item *gofeed.Item) string {
	if i := strings.LastIndex(item.Title, " - "); i > 0 {
		return strings.TrimSpace(item.Title[i+3:])
	}
	return ""
}

func authorName(item *gofeed.Item) string {
	if item.Author != nil {
		return item.Author.Name
	}
	return ""
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
