// Package config handles configuration loading for newspulse.
// It supports YAML config files, a local .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalidConfig is returned by Validate for out-of-range or unknown values.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the complete application configuration.
type Config struct {
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	HTTP      HTTPConfig      `mapstructure:"http"      yaml:"http"`
	Collector CollectorConfig `mapstructure:"collector" yaml:"collector"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"  yaml:"analysis"`
	Alerts    AlertsConfig    `mapstructure:"alerts"    yaml:"alerts"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"  yaml:"snapshot"`
	Watch     WatchConfig     `mapstructure:"watch"     yaml:"watch"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// ProvidersConfig holds news source credentials and endpoints.
type ProvidersConfig struct {
	NewsAPI    KeyedProviderConfig `mapstructure:"newsapi"    yaml:"newsapi"`
	GNews      KeyedProviderConfig `mapstructure:"gnews"      yaml:"gnews"`
	GoogleNews GoogleNewsConfig    `mapstructure:"googlenews" yaml:"googlenews"`
}

// KeyedProviderConfig is a REST news API that needs an API key.
type KeyedProviderConfig struct {
	APIKey  string `mapstructure:"api_key"  yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// GoogleNewsConfig configures the keyless RSS source.
type GoogleNewsConfig struct {
	Enabled bool   `mapstructure:"enabled"  yaml:"enabled"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// HTTPConfig holds outbound HTTP client settings shared by every source.
type HTTPConfig struct {
	TimeoutSec        int     `mapstructure:"timeout_sec"         yaml:"timeout_sec"`
	MaxRetries        int     `mapstructure:"max_retries"         yaml:"max_retries"`
	RetryBackoffMs    int     `mapstructure:"retry_backoff_ms"    yaml:"retry_backoff_ms"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"` // 0 = unlimited
	UserAgent         string  `mapstructure:"user_agent"          yaml:"user_agent"`
}

// Timeout returns the per-request timeout.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSec) * time.Second
}

// RetryBackoff returns the base delay between retries.
func (h HTTPConfig) RetryBackoff() time.Duration {
	return time.Duration(h.RetryBackoffMs) * time.Millisecond
}

// CollectorConfig holds fan-out and default query settings.
type CollectorConfig struct {
	Concurrency  int      `mapstructure:"concurrency"   yaml:"concurrency"`
	MaxArticles  int      `mapstructure:"max_articles"  yaml:"max_articles"` // per term per source
	LookbackDays int      `mapstructure:"lookback_days" yaml:"lookback_days"`
	FullText     bool     `mapstructure:"full_text"     yaml:"full_text"`
	Competitors  []string `mapstructure:"competitors"   yaml:"competitors"`
	Keywords     []string `mapstructure:"keywords"      yaml:"keywords"`
	Providers    []string `mapstructure:"providers"     yaml:"providers"`
}

// AnalysisConfig holds annotation, aggregation and forecast settings.
type AnalysisConfig struct {
	Scorer          string `mapstructure:"scorer"           yaml:"scorer"`           // "vader" or "keyword"
	TextField       string `mapstructure:"text_field"       yaml:"text_field"`       // empty = description when present, else text
	GroupField      string `mapstructure:"group_field"      yaml:"group_field"`
	ForecastHorizon int    `mapstructure:"forecast_horizon" yaml:"forecast_horizon"` // days
	CacheTTL        int    `mapstructure:"cache_ttl"        yaml:"cache_ttl"`        // seconds
}

// AlertsConfig holds alert thresholds and notification channels.
type AlertsConfig struct {
	Threshold      float64        `mapstructure:"threshold"       yaml:"threshold"`
	UpperThreshold *float64       `mapstructure:"upper_threshold" yaml:"upper_threshold"` // nil = |threshold|
	Notifier       string         `mapstructure:"notifier"        yaml:"notifier"`        // "slack", "telegram", "none"
	Slack          SlackConfig    `mapstructure:"slack"           yaml:"slack"`
	Telegram       TelegramConfig `mapstructure:"telegram"        yaml:"telegram"`
}

// SlackConfig holds Slack bot credentials.
type SlackConfig struct {
	BotToken string `mapstructure:"bot_token" yaml:"bot_token"`
	Channel  string `mapstructure:"channel"   yaml:"channel"`
	APIURL   string `mapstructure:"api_url"   yaml:"api_url"`
}

// TelegramConfig holds Telegram bot credentials.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token" yaml:"bot_token"`
	ChatID   string `mapstructure:"chat_id"   yaml:"chat_id"` // numeric id or @channel
}

// SnapshotConfig holds the parquet snapshot location.
type SnapshotConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// WatchConfig holds the scheduled collection settings.
type WatchConfig struct {
	Schedule string `mapstructure:"schedule" yaml:"schedule"` // cron expression
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.newspulse/config.yaml (home directory)
//  3. /etc/newspulse/config.yaml (system)
//
// A .env file in the working directory is loaded first when present.
// Environment variables override config file values.
// Format: NEWSPULSE_<SECTION>_<KEY>, e.g., NEWSPULSE_PROVIDERS_NEWSAPI_API_KEY
func Load() (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".newspulse"))
	v.AddConfigPath("/etc/newspulse")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("NEWSPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	// Unmarshal does not see env-only keys that have no default.
	if cfg.Alerts.UpperThreshold == nil && v.IsSet("alerts.upper_threshold") {
		u := v.GetFloat64("alerts.upper_threshold")
		cfg.Alerts.UpperThreshold = &u
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// loadDotEnv loads ./.env without overriding variables already set.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Provider defaults
	v.SetDefault("providers.newsapi.api_key", "")
	v.SetDefault("providers.newsapi.base_url", "https://newsapi.org/v2")
	v.SetDefault("providers.gnews.api_key", "")
	v.SetDefault("providers.gnews.base_url", "https://gnews.io/api/v4")
	v.SetDefault("providers.googlenews.enabled", false)
	v.SetDefault("providers.googlenews.base_url", "https://news.google.com")

	// HTTP defaults (no retry, matching the plain request/response behaviour)
	v.SetDefault("http.timeout_sec", 10)
	v.SetDefault("http.max_retries", 0)
	v.SetDefault("http.retry_backoff_ms", 500)
	v.SetDefault("http.requests_per_second", 0)
	v.SetDefault("http.user_agent", "newspulse/1.0")

	// Collector defaults
	v.SetDefault("collector.concurrency", 4)
	v.SetDefault("collector.max_articles", 50)
	v.SetDefault("collector.lookback_days", 30)
	v.SetDefault("collector.full_text", false)
	v.SetDefault("collector.competitors", []string{"Google", "Microsoft"})
	v.SetDefault("collector.keywords", []string{})
	v.SetDefault("collector.providers", []string{"newsapi", "gnews"})

	// Analysis defaults
	v.SetDefault("analysis.scorer", "vader")
	v.SetDefault("analysis.text_field", "")
	v.SetDefault("analysis.group_field", "entity")
	v.SetDefault("analysis.forecast_horizon", 7)
	v.SetDefault("analysis.cache_ttl", 300) // 5 minutes

	// Alert defaults
	v.SetDefault("alerts.threshold", -0.5)
	v.SetDefault("alerts.notifier", "slack")
	v.SetDefault("alerts.slack.bot_token", "")
	v.SetDefault("alerts.slack.channel", "")
	v.SetDefault("alerts.slack.api_url", "")
	v.SetDefault("alerts.telegram.bot_token", "")
	v.SetDefault("alerts.telegram.chat_id", "")

	v.SetDefault("snapshot.path", "data/processed/news.parquet")

	v.SetDefault("watch.schedule", "0 */6 * * *")
	v.SetDefault("watch.timezone", "UTC")

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// legacyEnv maps the bare variable names used by existing deployments.
var legacyEnv = []struct {
	name string
	set  func(*Config, string)
}{
	{"NEWSAPI_KEY", func(c *Config, s string) { c.Providers.NewsAPI.APIKey = s }},
	{"GNEWS_KEY", func(c *Config, s string) { c.Providers.GNews.APIKey = s }},
	{"SLACK_BOT_TOKEN", func(c *Config, s string) { c.Alerts.Slack.BotToken = s }},
	{"SLACK_CHANNEL", func(c *Config, s string) { c.Alerts.Slack.Channel = s }},
	{"TELEGRAM_BOT_TOKEN", func(c *Config, s string) { c.Alerts.Telegram.BotToken = s }},
	{"TELEGRAM_CHAT_ID", func(c *Config, s string) { c.Alerts.Telegram.ChatID = s }},
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// Bare names apply first; NEWSPULSE_-prefixed names win when both are set.
func overrideFromEnv(cfg *Config) {
	for _, e := range legacyEnv {
		if val := os.Getenv(e.name); val != "" {
			e.set(cfg, val)
		}
	}
	if key := os.Getenv("NEWSPULSE_PROVIDERS_NEWSAPI_API_KEY"); key != "" {
		cfg.Providers.NewsAPI.APIKey = key
	}
	if key := os.Getenv("NEWSPULSE_PROVIDERS_GNEWS_API_KEY"); key != "" {
		cfg.Providers.GNews.APIKey = key
	}
	if key := os.Getenv("NEWSPULSE_ALERTS_SLACK_BOT_TOKEN"); key != "" {
		cfg.Alerts.Slack.BotToken = key
	}
	if key := os.Getenv("NEWSPULSE_ALERTS_TELEGRAM_BOT_TOKEN"); key != "" {
		cfg.Alerts.Telegram.BotToken = key
	}
}

// Validate checks enums and ranges.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.HTTP.TimeoutSec <= 0 {
		bad("http.timeout_sec must be positive, got %d", c.HTTP.TimeoutSec)
	}
	if c.HTTP.MaxRetries < 0 {
		bad("http.max_retries must be >= 0, got %d", c.HTTP.MaxRetries)
	}
	if c.HTTP.RequestsPerSecond < 0 {
		bad("http.requests_per_second must be >= 0, got %g", c.HTTP.RequestsPerSecond)
	}
	if c.Collector.Concurrency < 1 {
		bad("collector.concurrency must be >= 1, got %d", c.Collector.Concurrency)
	}
	if c.Collector.MaxArticles < 1 {
		bad("collector.max_articles must be >= 1, got %d", c.Collector.MaxArticles)
	}
	if c.Collector.LookbackDays < 0 {
		bad("collector.lookback_days must be >= 0, got %d", c.Collector.LookbackDays)
	}
	switch c.Analysis.Scorer {
	case "vader", "keyword":
	default:
		bad("analysis.scorer %q must be vader or keyword", c.Analysis.Scorer)
	}
	switch c.Analysis.TextField {
	case "", "text", "title", "description", "content":
	default:
		bad("analysis.text_field %q is not a text column", c.Analysis.TextField)
	}
	switch c.Analysis.GroupField {
	case "entity", "keyword", "source", "source_provider", "term_type":
	default:
		bad("analysis.group_field %q is not groupable", c.Analysis.GroupField)
	}
	if c.Analysis.ForecastHorizon < 1 {
		bad("analysis.forecast_horizon must be >= 1, got %d", c.Analysis.ForecastHorizon)
	}
	if c.Alerts.Threshold < -1 || c.Alerts.Threshold > 1 {
		bad("alerts.threshold must be within [-1, 1], got %g", c.Alerts.Threshold)
	}
	if u := c.Alerts.UpperThreshold; u != nil && (*u < -1 || *u > 1) {
		bad("alerts.upper_threshold must be within [-1, 1], got %g", *u)
	}
	switch c.Alerts.Notifier {
	case "", "none", "slack", "telegram":
	default:
		bad("alerts.notifier %q must be slack, telegram or none", c.Alerts.Notifier)
	}
	if _, err := time.LoadLocation(c.Watch.Timezone); err != nil {
		bad("watch.timezone %q: %v", c.Watch.Timezone, err)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		bad("logging.format %q must be text or json", c.Logging.Format)
	}
	return errors.Join(errs...)
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
