// Package ai turns node titles into child suggestions and chat replies using
// a generative text backend.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"aetherflow/local-app/src/pkg/log"
)

const (
	opExpand = "expand"
	opChat   = "chat"
)

// Client validates requests, calls the backend and bounds its output. It
// holds no state between calls. A nil backend puts the client in local mode.
type Client struct {
	backend Backend
	sem     *semaphore.Weighted
	metrics *Metrics
	logger  *log.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics records call outcomes on m.
func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithMaxConcurrent bounds the number of backend calls in flight.
func WithMaxConcurrent(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// NewClient creates a client over backend.
func NewClient(backend Backend, opts ...ClientOption) *Client {
	c := &Client{
		backend: backend,
		sem:     semaphore.NewWeighted(4),
		logger:  log.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether a backend is configured.
func (c *Client) Available() bool {
	return c.backend != nil
}

// Expand proposes child nodes for a node. Without a backend it returns the
// fallback suggestions. Malformed backend output is retried once with a
// simpler prompt before failing with ErrMalformedOutput.
func (c *Client) Expand(ctx context.Context, title, description string) ([]Suggestion, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		return nil, ErrTitleRequired
	}

	if c.backend == nil {
		c.logger.Info(ctx, "Using fallback expansion", log.Fields{"title": title})
		c.metrics.observe(opExpand, OutcomeFallback, 0)
		return FallbackSuggestions(), nil
	}

	start := time.Now()
	text, err := c.generate(ctx, ExpansionPrompt(title, description))
	if err != nil {
		c.logger.Error(ctx, "Failed to call AI backend", log.Fields{"operation": opExpand, "error": err})
		c.metrics.observe(opExpand, OutcomeError, time.Since(start))
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	payload, err := parseExpansion(text)
	if err != nil {
		c.logger.Warn(ctx, "Failed to parse AI response, retrying", log.Fields{"title": title, "error": err})
		text, err = c.generate(ctx, RetryPrompt(title))
		if err == nil {
			payload, err = parseExpansion(text)
		}
		if err != nil {
			c.logger.Error(ctx, "AI response still malformed after retry", log.Fields{"title": title, "error": err})
			c.metrics.observe(opExpand, OutcomeMalformed, time.Since(start))
			return nil, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
		}
	}

	suggestions, err := SanitizeSuggestions(payload)
	if err != nil {
		c.logger.Warn(ctx, "AI response rejected", log.Fields{"title": title, "error": err})
		c.metrics.observe(opExpand, OutcomeInvalid, time.Since(start))
		return nil, err
	}

	c.logger.Info(ctx, "Expansion generated", log.Fields{"title": title, "suggestions": len(suggestions)})
	c.metrics.observe(opExpand, OutcomeSuccess, time.Since(start))
	return suggestions, nil
}

// Chat returns the backend's reply to message in the context of a node's
// conversation, trimmed of surrounding whitespace. There is no offline reply.
func (c *Client) Chat(ctx context.Context, title string, history []Turn, message string) (string, error) {
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if title == "" {
		return "", ErrTitleRequired
	}
	if message == "" {
		return "", ErrMessageRequired
	}

	if c.backend == nil {
		c.metrics.observe(opChat, OutcomeUnavailable, 0)
		return "", ErrUnavailable
	}

	start := time.Now()
	text, err := c.generate(ctx, ChatPrompt(title, history, message))
	if err != nil {
		c.logger.Error(ctx, "Failed to get chat reply", log.Fields{"title": title, "error": err})
		c.metrics.observe(opChat, OutcomeError, time.Since(start))
		return "", fmt.Errorf("%w: %w", ErrChatFailed, err)
	}

	c.metrics.observe(opChat, OutcomeSuccess, time.Since(start))
	return strings.TrimSpace(text), nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("wait for backend slot: %w", err)
	}
	defer c.sem.Release(1)
	return c.backend.Generate(ctx, prompt)
}
