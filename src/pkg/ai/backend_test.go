package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aetherflow/local-app/src/pkg/model"
)

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// echoProvider sends the prompt as the raw body and returns the raw response.
type echoProvider struct{ needsKey bool }

func (p *echoProvider) Name() string {
	if p.needsKey {
		return "test-keyed"
	}
	return "test-echo"
}

func (p *echoProvider) BuildURL(baseURL, _ string) string { return baseURL + "/generate" }

func (p *echoProvider) SetHeaders(req *http.Request, apiKey string) {
	req.Header.Set("X-Key", apiKey)
}

func (p *echoProvider) BuildRequestBody(_, prompt string, _ *float64) ([]byte, error) {
	return []byte(prompt), nil
}

func (p *echoProvider) ParseResponse(body []byte) (string, error) {
	if strings.HasPrefix(string(body), "!") {
		return "", fmt.Errorf("bad body")
	}
	return string(body), nil
}

func (p *echoProvider) RequiresKey() bool { return p.needsKey }

func init() {
	RegisterProvider(&echoProvider{})
	RegisterProvider(&echoProvider{needsKey: true})
}

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, BackoffBase: time.Millisecond, BackoffMultiplier: 2, MaxBackoff: 5 * time.Millisecond}
}

func TestHTTPBackendRetriesTransientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	b, err := NewHTTPBackend(model.AIConfig{Provider: "test-echo", BaseURL: server.URL}, WithRetryConfig(fastRetry(3)))
	require.NoError(t, err)

	text, err := b.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestHTTPBackendDoesNotRetryFatalErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("bad key"))
	}))
	defer server.Close()

	b, err := NewHTTPBackend(model.AIConfig{Provider: "test-echo", BaseURL: server.URL}, WithRetryConfig(fastRetry(3)))
	require.NoError(t, err)

	_, err = b.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Contains(t, err.Error(), "status 401")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestHTTPBackendParseFailureIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("!garbage"))
	}))
	defer server.Close()

	b, err := NewHTTPBackend(model.AIConfig{Provider: "test-echo", BaseURL: server.URL})
	require.NoError(t, err)
	_, err = b.Generate(context.Background(), "hi")
	assert.True(t, IsFatal(err))
}

func TestHTTPBackendSendsKeyAndPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte("reply"))
	}))
	defer server.Close()

	b, err := NewHTTPBackend(model.AIConfig{Provider: "test-keyed", BaseURL: server.URL, APIKey: "secret"})
	require.NoError(t, err)
	text, err := b.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "reply", text)
}

func TestClassifyHTTPError(t *testing.T) {
	assert.True(t, IsTransient(classifyHTTPError(http.StatusTooManyRequests, nil)))
	assert.True(t, IsTransient(classifyHTTPError(http.StatusBadGateway, nil)))
	assert.True(t, IsFatal(classifyHTTPError(http.StatusForbidden, nil)))
	assert.True(t, IsFatal(classifyHTTPError(http.StatusBadRequest, nil)))

	err := classifyHTTPError(http.StatusBadRequest, []byte(strings.Repeat("x", 300)))
	assert.Contains(t, err.Error(), "...")
}

func TestNewBackendRequiresKeyForHostedProviders(t *testing.T) {
	b, err := NewBackend(model.AIConfig{Provider: "test-keyed"}, nil)
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = NewBackend(model.AIConfig{Provider: "test-keyed", APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, b)
}
