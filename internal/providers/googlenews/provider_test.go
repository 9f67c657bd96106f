package googlenews

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/newspulse/internal/provider"
	"github.com/seenimoa/newspulse/pkg/models"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>"Acme" - Google News</title>
<item>
  <title>Acme wins contract - Reuters</title>
  <link>https://news.example/1</link>
  <pubDate>Mon, 15 Jan 2024 10:00:00 GMT</pubDate>
  <description>&lt;a href="https://news.example/1"&gt;Acme wins contract&lt;/a&gt;&amp;nbsp;&amp;nbsp;&lt;font color="#6f6f6f"&gt;Reuters&lt;/font&gt;</description>
</item>
<item>
  <title>Acme wins contract - Reuters</title>
  <link>https://news.example/1</link>
  <pubDate>Mon, 15 Jan 2024 10:00:00 GMT</pubDate>
</item>
<item>
  <title>Acme recalls widgets - AP</title>
  <link>https://news.example/2</link>
  <pubDate>Tue, 16 Jan 2024 09:00:00 GMT</pubDate>
</item>
<item>
  <title>Old Acme story - Times</title>
  <link>https://news.example/3</link>
  <pubDate>Mon, 01 Jan 2023 09:00:00 GMT</pubDate>
</item>
</channel></rss>`

func newTestProvider(t *testing.T, gotQuery *string) *Provider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rss/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if gotQuery != nil {
			*gotQuery = r.URL.Query().Get("q")
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedXML))
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, nil)
}

func TestProviderInfoKeyless(t *testing.T) {
	p := New("", nil)
	if p.Info().Name != models.ProviderGoogleNews {
		t.Errorf("name = %s", p.Info().Name)
	}
	if len(p.Info().Credentials) != 0 {
		t.Error("googlenews should not need credentials")
	}
}

func TestFetchParsesAndFilters(t *testing.T) {
	var q string
	p := newTestProvider(t, &q)

	from := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	rows, err := p.Fetch(context.Background(), provider.Query{Term: "Acme", From: from, To: to, MaxArticles: 10})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if q != "Acme after:2024-01-10 before:2024-01-21" {
		t.Errorf("search query = %q", q)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (dup and out-of-range dropped)", len(rows))
	}
	first := rows[0]
	if first.Source != "Reuters" {
		t.Errorf("Source = %q, want Reuters", first.Source)
	}
	if strings.Contains(first.Description, "<") {
		t.Errorf("Description still has HTML: %q", first.Description)
	}
	if first.Date != "2024-01-15" || first.Keyword != "Acme" {
		t.Errorf("unexpected row: %+v", first)
	}
}

func TestFetchTrimsToMax(t *testing.T) {
	p := newTestProvider(t, nil)
	rows, err := p.Fetch(context.Background(), provider.Query{Term: "Acme", MaxArticles: 1})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d rows, want 1", len(rows))
	}
}

func TestCleanHTML(t *testing.T) {
	got := cleanHTML(`<p>Hello <b>world</b></p>  <br/>again`)
	if got != "Hello world again" {
		t.Errorf("cleanHTML = %q", got)
	}
}
