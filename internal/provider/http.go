package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/seenimoa/newspulse/internal/infra"
)

// DefaultUserAgent is sent when ClientOptions.UserAgent is empty.
const DefaultUserAgent = "newspulse/1.0"

const maxErrorBody = 512

// ClientOptions configures the shared HTTP client.
type ClientOptions struct {
	Timeout           time.Duration // per request; default 10s
	MaxRetries        int           // 0 = single attempt
	RetryBackoff      time.Duration // linear: attempt * backoff
	RequestsPerSecond float64       // 0 = unlimited
	UserAgent         string
	Logger            *slog.Logger
	HTTPClient        *http.Client // overrides Timeout when set
}

// Client performs GET requests with a fixed timeout, optional pacing and
// optional retry of transport errors and 5xx/429 responses.
type Client struct {
	http      *http.Client
	retries   int
	backoff   time.Duration
	limiter   *infra.RateLimiter
	userAgent string
	logger    *slog.Logger
}

// NewClient builds a client from opts.
func NewClient(opts ClientOptions) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		http:      hc,
		retries:   retries,
		backoff:   opts.RetryBackoff,
		limiter:   infra.PerSecond(opts.RequestsPerSecond),
		userAgent: ua,
		logger:    logger,
	}
}

// Get fetches url and returns the body. Non-2xx responses become *ErrHTTP.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * c.backoff
			c.logger.Debug("http_retry", slog.String("url", redact(url)), slog.Int("attempt", attempt), slog.Duration("delay", delay))
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
		body, err := c.do(ctx, url, headers)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			break
		}
	}
	return nil, lastErr
}

// GetJSON fetches url and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.Get(ctx, url, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, target string, headers map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", redactErr(err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, application/rss+xml, text/html, */*")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", redactErr(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var httpErr *ErrHTTP
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// redactErr drops the query string from the URL a *url.Error carries,
// since provider keys travel as query parameters.
func redactErr(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = redact(ue.URL)
	}
	return err
}

// redact strips the query string so keys never reach the logs.
func redact(url string) string {
	for i := 0; i < len(url); i++ {
		if url[i] == '?' {
			return url[:i]
		}
	}
	return url
}
