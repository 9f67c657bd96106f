// Package providers constructs the concrete news sources from configuration
// and registers them with a provider registry.
package providers

import (
	"log/slog"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/provider"
	"github.com/seenimoa/newspulse/internal/providers/gnews"
	"github.com/seenimoa/newspulse/internal/providers/googlenews"
	"github.com/seenimoa/newspulse/internal/providers/newsapi"
	"github.com/seenimoa/newspulse/pkg/models"
)

// NewClient builds the shared HTTP client from the http config section.
func NewClient(cfg config.HTTPConfig, logger *slog.Logger) *provider.Client {
	return provider.NewClient(provider.ClientOptions{
		Timeout:           cfg.Timeout(),
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff(),
		RequestsPerSecond: cfg.RequestsPerSecond,
		UserAgent:         cfg.UserAgent,
		Logger:            logger,
	})
}

// RegisterAllTo registers every source that can run with cfg. Keyed sources
// are registered only when their key is set; Google News only when enabled.
func RegisterAllTo(reg *provider.Registry, cfg *config.Config, client *provider.Client) error {
	// --- NewsAPI (requires API key) ---
	if key := cfg.Providers.NewsAPI.APIKey; key != "" {
		p := newsapi.New(cfg.Providers.NewsAPI.BaseURL, client)
		if err := p.Init(map[string]string{"api_key": key}); err != nil {
			return err
		}
		if err := reg.Register(p); err != nil {
			return err
		}
	}

	// --- GNews (requires API key) ---
	if key := cfg.Providers.GNews.APIKey; key != "" {
		p := gnews.New(cfg.Providers.GNews.BaseURL, client)
		if err := p.Init(map[string]string{"api_key": key}); err != nil {
			return err
		}
		if err := reg.Register(p); err != nil {
			return err
		}
	}

	// --- Google News RSS (free, opt-in) ---
	if cfg.Providers.GoogleNews.Enabled {
		if err := reg.Register(googlenews.New(cfg.Providers.GoogleNews.BaseURL, client)); err != nil {
			return err
		}
	}
	return nil
}

// Unconfigured explains why each known but unregistered source is missing.
// The collector reports these errors for the selected providers they name.
func Unconfigured(cfg *config.Config) map[models.ProviderName]error {
	out := make(map[models.ProviderName]error)
	if cfg.Providers.NewsAPI.APIKey == "" {
		out[models.ProviderNewsAPI] = &provider.ErrMissingCredential{Provider: models.ProviderNewsAPI, Credential: "api_key"}
	}
	if cfg.Providers.GNews.APIKey == "" {
		out[models.ProviderGNews] = &provider.ErrMissingCredential{Provider: models.ProviderGNews, Credential: "api_key"}
	}
	if !cfg.Providers.GoogleNews.Enabled {
		out[models.ProviderGoogleNews] = &disabledError{name: models.ProviderGoogleNews}
	}
	return out
}

type disabledError struct{ name models.ProviderName }

func (e *disabledError) Error() string {
	return "provider " + string(e.name) + " is disabled (set providers." + string(e.name) + ".enabled)"
}

func (e *disabledError) Unwrap() error { return provider.ErrConfiguration }
