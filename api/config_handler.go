// Package api: configuration inspection endpoints.
package api

import (
	"net/http"

	"github.com/seenimoa/newspulse/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Config *config.Config     `json:"config"`
	Keys   []config.KeyStatus `json:"keys"`
}

// handleGetConfig returns the running configuration with every secret removed.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config: redacted(s.cfg),
			Keys:   config.CheckAPIKeys(s.cfg),
		},
	})
}

// handleGetConfigKeys returns the status of all sensitive API keys.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}

// redacted returns a copy of cfg with keys and tokens blanked.
func redacted(cfg *config.Config) *config.Config {
	c := *cfg
	c.Providers.NewsAPI.APIKey = ""
	c.Providers.GNews.APIKey = ""
	c.Alerts.Slack.BotToken = ""
	c.Alerts.Telegram.BotToken = ""
	return &c
}
