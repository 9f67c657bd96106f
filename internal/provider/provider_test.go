package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seenimoa/newspulse/pkg/models"
)

// mockSource implements Source for testing.
type mockSource struct {
	BaseSource
	rows []models.Article
}

func newMockSource(name models.ProviderName, keyed bool) *mockSource {
	info := ProviderInfo{Name: name, Description: "Mock " + string(name)}
	if keyed {
		info.Credentials = []Credential{{Name: "api_key", Required: true}}
	}
	return &mockSource{BaseSource: NewBaseSource(info, nil)}
}

func (m *mockSource) Fetch(ctx context.Context, q Query) ([]models.Article, error) {
	if err := m.Ready(); err != nil {
		return nil, err
	}
	return m.rows, nil
}

// ── Query ──

func TestQueryValidate(t *testing.T) {
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		q       Query
		wantErr bool
	}{
		{"ok", Query{Term: "Acme", From: day, To: day.AddDate(0, 0, 1), MaxArticles: 10}, false},
		{"open range", Query{Term: "Acme", MaxArticles: 1}, false},
		{"empty term", Query{MaxArticles: 10}, true},
		{"zero limit", Query{Term: "Acme"}, true},
		{"inverted range", Query{Term: "Acme", From: day, To: day.AddDate(0, 0, -1), MaxArticles: 10}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("error should wrap ErrInvalidQuery: %v", err)
			}
		})
	}
}

// ── BaseSource ──

func TestBaseSourceMissingCredential(t *testing.T) {
	s := newMockSource("keyed", true)

	_, err := s.Fetch(context.Background(), Query{Term: "x", MaxArticles: 1})
	var missing *ErrMissingCredential
	if !errors.As(err, &missing) {
		t.Fatalf("Fetch before Init: got %v, want *ErrMissingCredential", err)
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Error("missing credential should be a configuration error")
	}

	if err := s.Init(map[string]string{"api_key": ""}); err == nil {
		t.Error("Init with blank key should fail")
	}
	if err := s.Init(map[string]string{"api_key": "k"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if s.Credential("api_key") != "k" {
		t.Errorf("Credential: got %q", s.Credential("api_key"))
	}
	if _, err := s.Fetch(context.Background(), Query{Term: "x", MaxArticles: 1}); err != nil {
		t.Errorf("Fetch after Init: %v", err)
	}
}

func TestBaseSourceKeyless(t *testing.T) {
	s := newMockSource("open", false)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("keyless source should be ready: %v", err)
	}
}

// ── Registry ──

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(newMockSource("zeta", false)); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(newMockSource("alpha", false)); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(newMockSource("", false)); err == nil {
		t.Error("empty name should be rejected")
	}

	names := reg.Names()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("Names() = %v, want [alpha zeta]", names)
	}

	_, err := reg.Get("missing")
	var nf *ErrProviderNotFound
	if !errors.As(err, &nf) || nf.Name != "missing" {
		t.Errorf("Get(missing) = %v", err)
	}

	reg.Unregister("zeta")
	if _, err := reg.Get("zeta"); err == nil {
		t.Error("Get after Unregister should fail")
	}
}

// ── Paginate ──

func rowsN(page, n int) []models.Article {
	out := make([]models.Article, n)
	for i := range out {
		out[i] = models.Article{Title: fmt.Sprintf("p%d-%d", page, i)}
	}
	return out
}

func TestPaginateRemainingSize(t *testing.T) {
	var sizes []int
	rows, err := Paginate(context.Background(), Pager{MaxArticles: 250, MaxPage: 100},
		func(ctx context.Context, page, size int) ([]models.Article, error) {
			sizes = append(sizes, size)
			return rowsN(page, size), nil
		})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 250 {
		t.Errorf("got %d rows, want 250", len(rows))
	}
	want := []int{100, 100, 50}
	if fmt.Sprint(sizes) != fmt.Sprint(want) {
		t.Errorf("page sizes = %v, want %v", sizes, want)
	}
}

func TestPaginateFixedSizeTrims(t *testing.T) {
	var sizes []int
	rows, err := Paginate(context.Background(), Pager{MaxArticles: 150, MaxPage: 100, FixedSize: true},
		func(ctx context.Context, page, size int) ([]models.Article, error) {
			sizes = append(sizes, size)
			return rowsN(page, size), nil
		})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 150 {
		t.Errorf("got %d rows, want 150", len(rows))
	}
	if fmt.Sprint(sizes) != "[100 100]" {
		t.Errorf("page sizes = %v, want [100 100]", sizes)
	}
}

func TestPaginateStopsOnShortPage(t *testing.T) {
	calls := 0
	rows, err := Paginate(context.Background(), Pager{MaxArticles: 50, MaxPage: 20},
		func(ctx context.Context, page, size int) ([]models.Article, error) {
			calls++
			if page == 2 {
				return rowsN(page, 5), nil
			}
			return rowsN(page, size), nil
		})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 || len(rows) != 25 {
		t.Errorf("calls=%d rows=%d, want 2 and 25", calls, len(rows))
	}
}

func TestPaginateEmptyAndError(t *testing.T) {
	rows, err := Paginate(context.Background(), Pager{MaxArticles: 10, MaxPage: 10},
		func(ctx context.Context, page, size int) ([]models.Article, error) { return nil, nil })
	if err != nil || len(rows) != 0 || rows == nil {
		t.Errorf("empty: rows=%v err=%v, want empty non-nil slice", rows, err)
	}

	boom := errors.New("boom")
	_, err = Paginate(context.Background(), Pager{MaxArticles: 10, MaxPage: 10},
		func(ctx context.Context, page, size int) ([]models.Article, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want boom", err)
	}
}

// ── Dedup ──

func TestDedupFirstWins(t *testing.T) {
	rows := []models.Article{
		{Keyword: "Acme", Title: "a", URL: "u1", Source: "first"},
		{Keyword: "Acme", Title: "a", URL: "u1", Source: "second"},
		{Keyword: "Globex", Title: "a", URL: "u1"},
	}
	byKw := Dedup(rows, ByKeyword)
	if len(byKw) != 2 || byKw[0].Source != "first" {
		t.Errorf("ByKeyword: got %+v", byKw)
	}
	byID := Dedup(rows, ByIdentity)
	if len(byID) != 1 {
		t.Errorf("ByIdentity: got %d rows, want 1", len(byID))
	}
}

// ── Client ──

func TestClientErrHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{MaxRetries: 3})
	_, err := c.Get(context.Background(), srv.URL, nil)
	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) {
		t.Fatalf("got %v, want *ErrHTTP", err)
	}
	if httpErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d", httpErr.StatusCode)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{MaxRetries: 2, RetryBackoff: time.Millisecond})
	var out struct{ OK bool }
	if err := c.GetJSON(context.Background(), srv.URL, nil, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if !out.OK || calls.Load() != 3 {
		t.Errorf("ok=%v calls=%d, want true and 3", out.OK, calls.Load())
	}
}

func TestClientNoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(ClientOptions{}).Get(context.Background(), srv.URL, nil)
	if err == nil || calls.Load() != 1 {
		t.Errorf("err=%v calls=%d, want error after 1 call", err, calls.Load())
	}
}

func TestRedact(t *testing.T) {
	if got := redact("https://x/y?apiKey=secret"); got != "https://x/y" {
		t.Errorf("redact = %q", got)
	}
}

func TestClientTransportErrorHidesQuery(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close() // connections to addr are now refused

	_, err := NewClient(ClientOptions{}).Get(context.Background(), addr+"/everything?apiKey=SUPERSECRET123&q=acme", nil)
	if err == nil {
		t.Fatal("expected transport error")
	}
	if strings.Contains(err.Error(), "SUPERSECRET123") {
		t.Errorf("api key leaked in error: %v", err)
	}
	if !strings.Contains(err.Error(), addr+"/everything") {
		t.Errorf("error should still name the endpoint: %v", err)
	}
}
