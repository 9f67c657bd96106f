// Package api provides the HTTP REST API server for newspulse.
//
// It exposes endpoints for running the monitoring pipeline, annotating
// uploaded CSV exports, listing sources and recent alerts, and a WebSocket
// feed of alerts and run events.
package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/newspulse/internal/analysis/sentiment"
	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/infra"
	"github.com/seenimoa/newspulse/internal/logging"
	"github.com/seenimoa/newspulse/internal/pipeline"
	"github.com/seenimoa/newspulse/internal/provider"
	"github.com/seenimoa/newspulse/internal/snapshot"
	"github.com/seenimoa/newspulse/pkg/models"
)

// Version is reported by /health; cmd overrides it at build time.
var Version = "dev"

// maxUploadBytes caps POST /api/v1/annotate bodies.
const maxUploadBytes = 32 << 20

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	env    *pipeline.Env
	wsHub  *WSHub
	cache  *infra.Cache[*pipeline.Report]
	log    *slog.Logger
	now    func() time.Time

	mu         sync.RWMutex
	lastAlerts []models.Alert
	lastRun    time.Time
}

// NewServer creates a configured API server with all routes and middleware.
// The WebSocket hub is registered as an extra alert channel.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	logger = logging.OrDefault(logger)
	hub := NewWSHub(logger)
	env, err := pipeline.Build(cfg, hub, logger)
	if err != nil {
		return nil, fmt.Errorf("pipeline setup failed: %w", err)
	}
	return newServer(cfg, env, hub, logger), nil
}

func newServer(cfg *config.Config, env *pipeline.Env, hub *WSHub, logger *slog.Logger) *Server {
	srv := &Server{
		cfg:   cfg,
		env:   env,
		wsHub: hub,
		cache: infra.NewCache[*pipeline.Report](time.Duration(cfg.Analysis.CacheTTL) * time.Second),
		log:   logger,
		now:   time.Now,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.wsHub.Run(hubCtx)
	go s.cache.Sweep(hubCtx, time.Duration(s.cfg.Analysis.CacheTTL)*time.Second)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api_listening", slog.String("addr", addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("api_shutdown")
	shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/providers", s.handleProviders)

		r.With(middleware.Timeout(5*time.Minute)).Post("/analyze", s.handleAnalyze)
		r.Post("/annotate", s.handleAnnotate)
		r.Get("/alerts", s.handleAlerts)

		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)
	})

	r.Get("/ws", s.handleWebSocket)
	return r
}

// requestLogger logs one line per request with slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http_request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("took", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AnalyzeRequest is the body for POST /api/v1/analyze.
type AnalyzeRequest struct {
	pipeline.Query
	Notify bool `json:"notify,omitempty"`
}

// ProviderStatus describes one source for GET /api/v1/providers.
type ProviderStatus struct {
	Name        models.ProviderName `json:"name"`
	Description string              `json:"description,omitempty"`
	Website     string              `json:"website,omitempty"`
	Available   bool                `json:"available"`
	Reason      string              `json:"reason,omitempty"`
}

// AlertsResponse is the body of GET /api/v1/alerts.
type AlertsResponse struct {
	RunAt  *time.Time     `json:"run_at,omitempty"`
	Alerts []models.Alert `json:"alerts"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":     "ok",
			"version":    Version,
			"time":       s.now().UTC().Format(time.RFC3339),
			"ws_clients": s.wsHub.ClientCount(),
		},
	})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	registered := map[models.ProviderName]provider.ProviderInfo{}
	for _, info := range s.env.Registry.List() {
		registered[info.Name] = info
	}
	out := make([]ProviderStatus, 0, len(models.AllProviders))
	for _, name := range models.AllProviders {
		st := ProviderStatus{Name: name}
		if info, ok := registered[name]; ok {
			st.Available = true
			st.Description = info.Description
			st.Website = info.Website
		} else if why, ok := s.env.Unavailable[name]; ok {
			st.Reason = why.Error()
		}
		out = append(out, st)
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	creq, err := req.Query.Request(s.cfg.Collector, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := cacheKey(creq)
	if !req.Notify {
		if rep, ok := s.cache.Get(key); ok {
			w.Header().Set("X-Cache", "HIT")
			writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: rep})
			return
		}
	}

	rep, err := s.env.Pipeline.Run(r.Context(), pipeline.Request{Collect: creq, Notify: req.Notify})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, provider.ErrInvalidQuery) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	s.cache.Set(key, rep)
	s.recordRun(rep)

	w.Header().Set("X-Cache", "MISS")
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: rep})
}

func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	rows, columns, err := snapshot.ReadCSV(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, err := s.env.Pipeline.AnalyzeRows(rows, columns)
	if err != nil {
		var missing *sentiment.ErrMissingField
		if errors.As(err, &missing) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: rep})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := AlertsResponse{Alerts: s.lastAlerts}
	if !s.lastRun.IsZero() {
		t := s.lastRun
		resp.RunAt = &t
	}
	s.mu.RUnlock()
	if resp.Alerts == nil {
		resp.Alerts = []models.Alert{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}

// recordRun stores the alerts of a fresh run and announces it on /ws.
func (s *Server) recordRun(rep *pipeline.Report) {
	s.mu.Lock()
	s.lastAlerts = rep.Alerts
	s.lastRun = rep.GeneratedAt
	s.mu.Unlock()

	s.wsHub.Broadcast(WSMessage{
		Type: "run_complete",
		Data: map[string]interface{}{
			"generated_at": rep.GeneratedAt,
			"kpis":         rep.KPIs,
			"alerts":       len(rep.Alerts),
			"failures":     len(rep.Failures),
		},
	})
}

// cacheKey hashes the resolved collection request.
func cacheKey(v any) string {
	b, _ := json.Marshal(v)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write JSON response", slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
