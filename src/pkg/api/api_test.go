package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aetherflow/local-app/src/pkg/ai"
	"aetherflow/local-app/src/pkg/ai/testutil"
	"aetherflow/local-app/src/pkg/log"
)

func newTestServer(t *testing.T, backend ai.Backend) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	client := ai.NewClient(backend, ai.WithMetrics(ai.NewMetrics(reg)))
	srv := httptest.NewServer(NewServer(client, reg, log.Nop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string, dst interface{}) int {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
	return resp.StatusCode
}

func TestExpandFallbackWithoutBackend(t *testing.T) {
	srv := newTestServer(t, nil)

	var resp ExpandResponse
	status := post(t, srv, "/api/expand", `{"nodeTitle":"Learn guitar"}`, &resp)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)
	assert.Equal(t, ai.FallbackSuggestions(), resp.Nodes)
}

func TestExpandWithBackend(t *testing.T) {
	mock := &testutil.MockBackend{Responses: []string{
		"```json\n{\"nodes\":[{\"title\":\"Scales\",\"description\":\"Major and minor\",\"type\":\"task\"}]}\n```",
	}}
	srv := newTestServer(t, mock)

	var resp ExpandResponse
	status := post(t, srv, "/api/expand", `{"nodeTitle":"Learn guitar","nodeDescription":"From scratch"}`, &resp)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, resp.Nodes, 1)
	assert.Equal(t, "Scales", resp.Nodes[0].Title)
	assert.Contains(t, mock.Prompts()[0], "From scratch")
}

func TestExpandValidationAndFailure(t *testing.T) {
	srv := newTestServer(t, &testutil.MockBackend{Responses: []string{"no json", "still none"}})

	var resp ExpandResponse
	status := post(t, srv, "/api/expand", `{"nodeTitle":"   "}`, &resp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Node title is required", resp.Error)
	assert.False(t, resp.Success)

	resp = ExpandResponse{}
	status = post(t, srv, "/api/expand", `{"nodeTitle":`, &resp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "bad_request", resp.Code)

	resp = ExpandResponse{}
	status = post(t, srv, "/api/expand", `{"nodeTitle":"Learn guitar"}`, &resp)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "malformed_output", resp.Code)
	assert.NotEmpty(t, resp.Error)
}

func TestChat(t *testing.T) {
	mock := &testutil.MockBackend{Responses: []string{"Practice **daily**."}}
	srv := newTestServer(t, mock)

	var resp ChatResponse
	body := `{"nodeTitle":"Learn guitar","chatHistory":[{"role":"user","content":"Hi"},{"role":"assistant","content":"Hello"}],"userMessage":"How often?"}`
	status := post(t, srv, "/api/chat", body, &resp)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)
	assert.Equal(t, "Practice **daily**.", resp.Response)
	assert.Contains(t, mock.Prompts()[0], "How often?")
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name    string
		backend ai.Backend
		body    string
		status  int
		message string
	}{
		{"missing title", nil, `{"userMessage":"Hi"}`, http.StatusBadRequest, "Node title is required"},
		{"missing message", nil, `{"nodeTitle":"Guitar","userMessage":" "}`, http.StatusBadRequest, "User message is required"},
		{"unavailable", nil, `{"nodeTitle":"Guitar","userMessage":"Hi"}`, http.StatusInternalServerError, "AI chat is not available in local mode"},
		{"backend error", &testutil.MockBackend{Err: ai.NewFatalError(errors.New("quota"))}, `{"nodeTitle":"Guitar","userMessage":"Hi"}`, http.StatusInternalServerError, "Failed to get AI response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.backend)
			var resp ChatResponse
			status := post(t, srv, "/api/chat", tt.body, &resp)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, resp.Error)
			assert.False(t, resp.Success)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/api/expand")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, nil)

	var health map[string]interface{}
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, false, health["ai"])

	var expand ExpandResponse
	post(t, srv, "/api/expand", `{"nodeTitle":"Learn guitar"}`, &expand)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = io.Copy(&buf, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `aetherflow_ai_requests_total{operation="expand",outcome="fallback"} 1`)
}
