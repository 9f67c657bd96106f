package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/seenimoa/newspulse/internal/alerting"
	"github.com/seenimoa/newspulse/internal/analysis/sentiment"
	"github.com/seenimoa/newspulse/internal/collector"
	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/logging"
	"github.com/seenimoa/newspulse/internal/pipeline"
	"github.com/seenimoa/newspulse/internal/provider"
	"github.com/seenimoa/newspulse/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

// stubSource serves the same rows for every query and counts calls.
type stubSource struct {
	provider.BaseSource
	rows  []models.Article
	calls atomic.Int32
}

func (s *stubSource) Fetch(context.Context, provider.Query) ([]models.Article, error) {
	s.calls.Add(1)
	return append([]models.Article(nil), s.rows...), nil
}

func stubRows() []models.Article {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 9, 0, 0, 0, time.UTC) }
	return []models.Article{
		models.NewArticle("Acme", "Acme shares surge", "record high for Acme", "", "wire", "", "https://x/1", day(1)),
		models.NewArticle("Acme", "Acme data breach", "lawsuit follows breach", "", "wire", "", "https://x/2", day(2)),
	}
}

func testServer(t *testing.T) (*Server, *stubSource) {
	t.Helper()
	log := logging.Discard()
	cfg := &config.Config{
		Collector: config.CollectorConfig{
			Concurrency:  1,
			MaxArticles:  10,
			LookbackDays: 30,
			Competitors:  []string{"Acme"},
			Providers:    []string{"newsapi"},
		},
		Analysis: config.AnalysisConfig{CacheTTL: 60},
		Alerts:   config.AlertsConfig{Threshold: -0.5, Notifier: "none"},
		Providers: config.ProvidersConfig{
			GNews: config.KeyedProviderConfig{APIKey: "secret-gnews-key"},
		},
	}

	src := &stubSource{
		BaseSource: provider.NewBaseSource(provider.ProviderInfo{Name: models.ProviderNewsAPI, Description: "stub"}, nil),
		rows:       stubRows(),
	}
	reg := provider.NewRegistry()
	if err := reg.Register(src); err != nil {
		t.Fatal(err)
	}
	unavailable := map[models.ProviderName]error{
		models.ProviderGoogleNews: &provider.ErrMissingCredential{Provider: models.ProviderGoogleNews, Credential: "enabled"},
	}

	hub := NewWSHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	coll := collector.New(reg, collector.Options{Concurrency: 1, Unavailable: unavailable, Logger: log})
	p := pipeline.New(coll, sentiment.NewAnnotator(sentiment.KeywordScorer{}, log), alerting.NewDispatcher(hub, log),
		pipeline.Options{Thresholds: alerting.Mirrored(-0.5)}, log)
	env := &pipeline.Env{Config: cfg, Registry: reg, Unavailable: unavailable, Notifier: hub, Pipeline: p}
	return newServer(cfg, env, hub, log), src
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, data any) APIResponse {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if data != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			t.Fatalf("failed to decode data: %v", err)
		}
	}
	return APIResponse{Success: raw.Success, Error: raw.Error}
}

// ════════════════════════════════════════════════════════════════════
// Handlers
// ════════════════════════════════════════════════════════════════════

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := do(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d", path, rec.Code)
		}
		var data map[string]any
		if resp := decodeResponse(t, rec, &data); !resp.Success || data["status"] != "ok" {
			t.Errorf("%s: got %+v %v", path, resp, data)
		}
	}
}

func TestProviders(t *testing.T) {
	srv, _ := testServer(t)
	var got []ProviderStatus
	decodeResponse(t, do(t, srv, http.MethodGet, "/api/v1/providers", ""), &got)
	if len(got) != len(models.AllProviders) {
		t.Fatalf("got %d providers, want %d", len(got), len(models.AllProviders))
	}
	byName := map[models.ProviderName]ProviderStatus{}
	for _, p := range got {
		byName[p.Name] = p
	}
	if !byName[models.ProviderNewsAPI].Available {
		t.Error("newsapi should be available")
	}
	if g := byName[models.ProviderGoogleNews]; g.Available || g.Reason == "" {
		t.Errorf("googlenews = %+v, want unavailable with reason", g)
	}
}

func TestAnalyzeAndCache(t *testing.T) {
	srv, src := testServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/analyze", `{"from":"2024-01-01","to":"2024-01-31"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Errorf("X-Cache = %q, want MISS", rec.Header().Get("X-Cache"))
	}
	var rep pipeline.Report
	decodeResponse(t, rec, &rep)
	if len(rep.Rows) != 2 || rep.KPIs.Total != 2 {
		t.Errorf("report rows=%d kpis=%+v", len(rep.Rows), rep.KPIs)
	}
	if len(rep.Alerts) != 2 {
		t.Errorf("got %d alerts, want 2", len(rep.Alerts))
	}

	rec = do(t, srv, http.MethodPost, "/api/v1/analyze", `{"from":"2024-01-01","to":"2024-01-31"}`)
	if rec.Header().Get("X-Cache") != "HIT" {
		t.Errorf("second call X-Cache = %q, want HIT", rec.Header().Get("X-Cache"))
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("source called %d times, want 1", n)
	}

	var alerts AlertsResponse
	decodeResponse(t, do(t, srv, http.MethodGet, "/api/v1/alerts", ""), &alerts)
	if len(alerts.Alerts) != 2 || alerts.RunAt == nil {
		t.Errorf("alerts = %+v", alerts)
	}
}

func TestAnalyzeBadRequest(t *testing.T) {
	srv, _ := testServer(t)
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"unknown provider", `{"providers":["bing"]}`},
		{"bad date", `{"from":"yesterday"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/v1/analyze", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status %d, want 400", rec.Code)
			}
			if resp := decodeResponse(t, rec, nil); resp.Success || resp.Error == "" {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func TestAlertsBeforeAnyRun(t *testing.T) {
	srv, _ := testServer(t)
	var alerts AlertsResponse
	decodeResponse(t, do(t, srv, http.MethodGet, "/api/v1/alerts", ""), &alerts)
	if alerts.Alerts == nil || len(alerts.Alerts) != 0 || alerts.RunAt != nil {
		t.Errorf("alerts = %+v", alerts)
	}
}

func TestAnnotateCSV(t *testing.T) {
	srv, _ := testServer(t)
	body := "keyword,title,description,date\n" +
		"Acme,Acme news,Acme hit by fraud investigation,2024-01-01\n" +
		"Acme,More news,quiet day,2024-01-02\n"
	rec := do(t, srv, http.MethodPost, "/api/v1/annotate", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var rep pipeline.Report
	decodeResponse(t, rec, &rep)
	if rep.TextField != "description" {
		t.Errorf("text field = %q, want description", rep.TextField)
	}
	if len(rep.Rows) != 2 || rep.Rows[0].SentimentLabel != models.LabelNegative {
		t.Errorf("rows = %+v", rep.Rows)
	}
	if len(rep.Daily) != 2 {
		t.Errorf("got %d daily points, want 2", len(rep.Daily))
	}
}

func TestAnnotateBadCSV(t *testing.T) {
	srv, _ := testServer(t)
	rec := do(t, srv, http.MethodPost, "/api/v1/annotate", "foo,bar\n1,2\n")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", rec.Code)
	}
}

func TestConfigRedacted(t *testing.T) {
	srv, _ := testServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/config", "")
	if strings.Contains(rec.Body.String(), "secret-gnews-key") {
		t.Error("config response leaks an API key")
	}
	if srv.cfg.Providers.GNews.APIKey != "secret-gnews-key" {
		t.Error("redaction must not modify the running config")
	}

	var keys []config.KeyStatus
	decodeResponse(t, do(t, srv, http.MethodGet, "/api/v1/config/keys", ""), &keys)
	if len(keys) == 0 {
		t.Fatal("no key statuses")
	}
	for _, k := range keys {
		if strings.Contains(k.Masked, "secret-gnews-key") {
			t.Errorf("key %s not masked: %q", k.Name, k.Masked)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// WebSocket
// ════════════════════════════════════════════════════════════════════

func TestHubNotify(t *testing.T) {
	hub := NewWSHub(logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := &WSClient{hub: hub, send: make(chan WSMessage, 4)}
	hub.Register(client)

	if err := hub.Notify(context.Background(), "ALERT: test"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	select {
	case msg := <-client.send:
		if msg.Type != "alert" || msg.Data != "ALERT: test" {
			t.Errorf("got %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}

	cancel()
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected channel closed after hub stops")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client channel not closed on shutdown")
	}
}

func TestWebSocketReceivesRunEvents(t *testing.T) {
	srv, _ := testServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// wait for registration
	deadline := time.Now().Add(2 * time.Second)
	for srv.Hub().ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Post(ts.URL+"/api/v1/analyze", "application/json",
		strings.NewReader(`{"from":"2024-01-01","to":"2024-01-31","notify":true}`))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	resp.Body.Close()

	seen := map[string]int{}
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for seen["run_complete"] == 0 {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v (seen %v)", err, seen)
		}
		seen[msg.Type]++
	}
	if seen["alert"] != 2 {
		t.Errorf("got %d alert messages, want 2", seen["alert"])
	}
}
