package config

import "os"

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of an API key.
type KeyStatus struct {
	Name   string       `json:"name"`
	Source APIKeySource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "abc...xyz"
}

// CheckAPIKeys returns the status of all provider keys and notifier tokens.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("NewsAPI Key", cfg.Providers.NewsAPI.APIKey, "NEWSPULSE_PROVIDERS_NEWSAPI_API_KEY", "NEWSAPI_KEY"),
		checkKey("GNews Key", cfg.Providers.GNews.APIKey, "NEWSPULSE_PROVIDERS_GNEWS_API_KEY", "GNEWS_KEY"),
		checkKey("Slack Bot Token", cfg.Alerts.Slack.BotToken, "NEWSPULSE_ALERTS_SLACK_BOT_TOKEN", "SLACK_BOT_TOKEN"),
		checkKey("Telegram Bot Token", cfg.Alerts.Telegram.BotToken, "NEWSPULSE_ALERTS_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN"),
	}
}

// checkKey checks if a key is set and where it came from.
func checkKey(name, value string, envVars ...string) KeyStatus {
	status := KeyStatus{
		Name:   name,
		IsSet:  value != "",
		Source: KeySourceNone,
	}
	if value == "" {
		return status
	}

	status.Source = KeySourceConfig
	for _, env := range envVars {
		if os.Getenv(env) != "" {
			status.Source = KeySourceEnv
			break
		}
	}
	status.Masked = maskKey(value)
	return status
}

// maskKey masks an API key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
