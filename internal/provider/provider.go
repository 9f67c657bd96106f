// Package provider defines the news source abstraction: a Source interface,
// the shared query/pagination/dedup contract every source honours, and a
// thread-safe registry that the collector routes requests through.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/seenimoa/newspulse/pkg/models"
)

// Credential describes a credential a source needs.
type Credential struct {
	Name        string `json:"name"`        // e.g., "api_key"
	Description string `json:"description"` // e.g., "NewsAPI key from newsapi.org"
	Required    bool   `json:"required"`
	EnvVar      string `json:"env_var"` // e.g., "NEWSAPI_KEY"
}

// ProviderInfo holds metadata about a source.
type ProviderInfo struct {
	Name        models.ProviderName `json:"name"`
	Description string              `json:"description"`
	Website     string              `json:"website"`
	Credentials []Credential        `json:"credentials"`
	MaxPageSize int                 `json:"max_page_size"`
}

// Source is implemented by every news API client.
type Source interface {
	// Info returns metadata about this source.
	Info() ProviderInfo

	// Init stores credentials. Returns *ErrMissingCredential when a required
	// credential is absent.
	Init(credentials map[string]string) error

	// Fetch returns up to q.MaxArticles articles matching q.Term published in
	// [q.From, q.To]. Zero matches is an empty slice, not an error.
	Fetch(ctx context.Context, q Query) ([]models.Article, error)

	// Ping verifies connectivity and credentials.
	Ping(ctx context.Context) error
}

// Query is one search against one source.
type Query struct {
	Term        string    `json:"term"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	MaxArticles int       `json:"max_articles"`
}

// Validate rejects empty terms, non-positive limits and inverted ranges.
func (q Query) Validate() error {
	switch {
	case q.Term == "":
		return fmt.Errorf("%w: empty term", ErrInvalidQuery)
	case q.MaxArticles <= 0:
		return fmt.Errorf("%w: max articles must be positive, got %d", ErrInvalidQuery, q.MaxArticles)
	case !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From):
		return fmt.Errorf("%w: range end %s before start %s", ErrInvalidQuery,
			q.To.Format(time.DateOnly), q.From.Format(time.DateOnly))
	}
	return nil
}

var (
	// ErrConfiguration marks failures caused by missing or invalid setup.
	// They are never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidQuery is returned by Query.Validate.
	ErrInvalidQuery = errors.New("invalid query")
)

// ErrMissingCredential is returned when a source lacks a required credential.
type ErrMissingCredential struct {
	Provider   models.ProviderName
	Credential string
}

func (e *ErrMissingCredential) Error() string {
	return fmt.Sprintf("provider %q: missing required credential %q", e.Provider, e.Credential)
}

func (e *ErrMissingCredential) Unwrap() error { return ErrConfiguration }

// ErrProviderNotFound is returned when a requested provider is not registered.
type ErrProviderNotFound struct {
	Name models.ProviderName
}

func (e *ErrProviderNotFound) Error() string {
	return fmt.Sprintf("provider %q not found", e.Name)
}

// ErrHTTP wraps a non-2xx response.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// Temporary reports whether the status is worth retrying.
func (e *ErrHTTP) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// ErrAPI is an error reported inside a 2xx JSON body.
type ErrAPI struct {
	Provider models.ProviderName
	Code     string
	Message  string
}

func (e *ErrAPI) Error() string {
	return fmt.Sprintf("%s api error %s: %s", e.Provider, e.Code, e.Message)
}
