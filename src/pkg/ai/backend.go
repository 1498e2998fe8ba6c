package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
)

// maxResponseSize caps how much of a backend response body is read.
const maxResponseSize = 10 * 1024 * 1024

// Backend generates free text for a prompt.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HTTPBackend calls a hosted text generation API through a registered Provider.
type HTTPBackend struct {
	provider    Provider
	baseURL     string
	model       string
	apiKey      string
	temperature *float64
	httpClient  *http.Client
	retryConfig RetryConfig
	logger      *log.Logger
}

// BackendOption configures an HTTPBackend.
type BackendOption func(*HTTPBackend)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) BackendOption {
	return func(b *HTTPBackend) {
		b.httpClient = c
	}
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(cfg RetryConfig) BackendOption {
	return func(b *HTTPBackend) {
		b.retryConfig = cfg
	}
}

// WithBackendLogger sets the logger.
func WithBackendLogger(logger *log.Logger) BackendOption {
	return func(b *HTTPBackend) {
		b.logger = logger
	}
}

// NewHTTPBackend creates a backend for the provider named in cfg.
func NewHTTPBackend(cfg model.AIConfig, opts ...BackendOption) (*HTTPBackend, error) {
	provider := GetProvider(cfg.Provider)
	if provider == nil {
		return nil, fmt.Errorf("unknown AI provider %q (registered: %v)", cfg.Provider, ListProviders())
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	retry := DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}

	b := &HTTPBackend{
		provider:    provider,
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		httpClient:  &http.Client{Timeout: timeout},
		retryConfig: retry,
		logger:      log.Nop(),
	}
	if cfg.Temperature > 0 {
		t := cfg.Temperature
		b.temperature = &t
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// NewBackend returns the backend described by cfg, or nil when the
// configuration leaves the client in local mode: no provider, or a hosted
// provider without an API key.
func NewBackend(cfg model.AIConfig, logger *log.Logger) (Backend, error) {
	ctx := context.Background()
	if cfg.Provider == "" || cfg.Provider == "local" {
		logger.Info(ctx, "AI backend disabled, running in local mode", nil)
		return nil, nil
	}

	b, err := NewHTTPBackend(cfg, WithBackendLogger(logger))
	if err != nil {
		return nil, err
	}
	if b.provider.RequiresKey() && b.apiKey == "" {
		logger.Warn(ctx, "No API key configured, running in local mode", log.Fields{"provider": cfg.Provider})
		return nil, nil
	}

	logger.Info(ctx, "AI backend configured", log.Fields{"provider": cfg.Provider, "model": cfg.Model})
	return b, nil
}

// Generate sends prompt to the provider, retrying transient failures with
// exponential backoff.
func (b *HTTPBackend) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	attempts := b.retryConfig.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := b.doRequest(ctx, prompt)
		if err == nil {
			return text, nil
		}

		lastErr = err
		if IsFatal(err) {
			return "", err
		}

		if attempt < attempts {
			backoff := b.retryConfig.backoff(attempt)
			b.logger.Debug(ctx, "Request failed, retrying", log.Fields{
				"attempt":      attempt,
				"max_attempts": attempts,
				"backoff":      backoff.String(),
				"error":        err,
			})

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return "", lastErr
}

func (b *HTTPBackend) doRequest(ctx context.Context, prompt string) (string, error) {
	url := b.provider.BuildURL(b.baseURL, b.model)

	body, err := b.provider.BuildRequestBody(b.model, prompt, b.temperature)
	if err != nil {
		return "", NewFatalError(fmt.Errorf("build request body: %w", err))
	}

	b.logger.Debug(ctx, "Sending AI request", log.Fields{
		"provider": b.provider.Name(),
		"model":    b.model,
		"prompt":   len(prompt),
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", NewFatalError(fmt.Errorf("create HTTP request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	b.provider.SetHeaders(httpReq, b.apiKey)

	httpResp, err := b.httpClient.Do(httpReq)
	if err != nil {
		// Network errors are transient
		return "", NewTransientError(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return "", NewTransientError(fmt.Errorf("read response body: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", classifyHTTPError(httpResp.StatusCode, respBody)
	}

	text, err := b.provider.ParseResponse(respBody)
	if err != nil {
		return "", NewFatalError(err)
	}
	return text, nil
}

// classifyHTTPError determines if an HTTP error is transient or fatal.
func classifyHTTPError(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}

	err := fmt.Errorf("AI API error (status %d): %s", statusCode, bodyStr)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewTransientError(err)
	case statusCode >= 500:
		return NewTransientError(err)
	default:
		// Auth failures, bad requests and anything unexpected are not retried
		return NewFatalError(err)
	}
}
