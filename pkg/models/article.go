// Package models defines the core data structures used throughout newspulse.
package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-day layout used for Article.Date and daily series.
const DateLayout = "2006-01-02"

// ProviderName identifies a news source client.
type ProviderName string

const (
	ProviderNewsAPI    ProviderName = "newsapi"    // NewsAPI.org /v2/everything
	ProviderGNews      ProviderName = "gnews"      // GNews.io /api/v4/search
	ProviderGoogleNews ProviderName = "googlenews" // Google News RSS search, keyless
)

// AllProviders lists every known provider in display order.
var AllProviders = []ProviderName{ProviderNewsAPI, ProviderGNews, ProviderGoogleNews}

// ParseProviderName accepts the canonical names plus the display names used by
// the dashboard ("NewsAPI", "GNews").
func ParseProviderName(s string) (ProviderName, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "newsapi", "news_api":
		return ProviderNewsAPI, nil
	case "gnews":
		return ProviderGNews, nil
	case "googlenews", "google_news", "google":
		return ProviderGoogleNews, nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// TermType classifies how a search term was chosen.
type TermType string

const (
	TermCompetitor TermType = "Competitor"
	TermKeyword    TermType = "Keyword"
)

// Term is one literal search string sent to the source clients.
type Term struct {
	Text string   `json:"text"`
	Type TermType `json:"type"`
}

// Terms builds the search list: competitors first, then free-text keywords.
// Blank entries are dropped.
func Terms(competitors, keywords []string) []Term {
	out := make([]Term, 0, len(competitors)+len(keywords))
	for _, c := range competitors {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, Term{Text: c, Type: TermCompetitor})
		}
	}
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, Term{Text: k, Type: TermKeyword})
		}
	}
	return out
}

// ParseKeywords splits a comma separated keyword list.
func ParseKeywords(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Article is one fetched news item normalized into the common row schema.
type Article struct {
	Keyword        string       `json:"keyword"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Content        string       `json:"content,omitempty"`
	Source         string       `json:"source"`
	Author         string       `json:"author,omitempty"`
	URL            string       `json:"url"`
	PublishedAt    time.Time    `json:"published_at"`
	Date           string       `json:"date"`
	Text           string       `json:"text"`
	Entity         string       `json:"entity"`
	SourceProvider ProviderName `json:"source_provider"`
	TermType       TermType     `json:"term_type"`
}

// NewArticle builds a row and derives Date and Text.
func NewArticle(keyword, title, description, content, source, author, url string, publishedAt time.Time) Article {
	a := Article{
		Keyword:     keyword,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Content:     strings.TrimSpace(content),
		Source:      source,
		Author:      author,
		URL:         url,
		PublishedAt: publishedAt.UTC(),
	}
	a.Date = DayOf(a.PublishedAt)
	a.RebuildText()
	return a
}

// RebuildText recomputes Text from title, description and content.
func (a *Article) RebuildText() {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Title, a.Description, a.Content} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	a.Text = strings.Join(parts, " ")
}

// Field returns the value of a named text column and whether the column exists.
func (a Article) Field(name string) (string, bool) {
	switch name {
	case "text":
		return a.Text, true
	case "title":
		return a.Title, true
	case "description":
		return a.Description, true
	case "content":
		return a.Content, true
	case "keyword":
		return a.Keyword, true
	case "entity":
		return a.Entity, true
	case "source":
		return a.Source, true
	case "author":
		return a.Author, true
	case "url":
		return a.URL, true
	case "date":
		return a.Date, true
	case "source_provider":
		return string(a.SourceProvider), true
	case "term_type":
		return string(a.TermType), true
	}
	return "", false
}

// KeywordKey identifies a row within one provider's result set.
func (a Article) KeywordKey() string {
	return a.Keyword + "\x00" + a.Title + "\x00" + a.URL
}

// IdentityKey identifies a row across terms and providers.
func (a Article) IdentityKey() string {
	return a.Title + "\x00" + a.URL
}

// DayOf formats t as a UTC calendar day.
func DayOf(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// ParseDay parses a calendar day produced by DayOf.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
