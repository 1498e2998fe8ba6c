// Package api serves the AI expansion and chat operations over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aetherflow/local-app/src/pkg/ai"
	"aetherflow/local-app/src/pkg/log"
)

// maxRequestBodySize limits POST bodies.
const maxRequestBodySize = 1 << 20

const shutdownTimeout = 5 * time.Second

// ExpandRequest is the body of POST /api/expand.
type ExpandRequest struct {
	NodeTitle       string `json:"nodeTitle"`
	NodeDescription string `json:"nodeDescription,omitempty"`
}

// ExpandResponse is the reply of POST /api/expand.
type ExpandResponse struct {
	Success bool            `json:"success"`
	Nodes   []ai.Suggestion `json:"nodes,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	NodeTitle   string    `json:"nodeTitle"`
	ChatHistory []ai.Turn `json:"chatHistory"`
	UserMessage string    `json:"userMessage"`
}

// ChatResponse is the reply of POST /api/chat.
type ChatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Code     string `json:"code,omitempty"`
}

// Server exposes the AI client.
type Server struct {
	client   *ai.Client
	gatherer prometheus.Gatherer
	logger   *log.Logger
}

// NewServer creates a Server. Metrics are served from gatherer when it is
// not nil.
func NewServer(client *ai.Client, gatherer prometheus.Gatherer, logger *log.Logger) *Server {
	return &Server{client: client, gatherer: gatherer, logger: logger}
}

// Handler returns the routes of the server.
//
//	POST /api/expand
//	POST /api/chat
//	GET  /healthz
//	GET  /metrics
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/expand", s.handleExpand)
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP server listening", log.Fields{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info(context.Background(), "Shutting down HTTP server", nil)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ExpandRequest
	if err := decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ExpandResponse{Error: "Invalid request body", Code: "bad_request"})
		return
	}
	if strings.TrimSpace(req.NodeTitle) == "" {
		writeJSON(w, http.StatusBadRequest, ExpandResponse{Error: "Node title is required", Code: ai.ErrorCode(ai.ErrTitleRequired)})
		return
	}

	nodes, err := s.client.Expand(r.Context(), req.NodeTitle, req.NodeDescription)
	if err != nil {
		s.logger.Error(r.Context(), "Expand request failed", log.Fields{"title": req.NodeTitle, "error": err})
		writeJSON(w, http.StatusInternalServerError, ExpandResponse{Error: ai.UserMessage(err), Code: ai.ErrorCode(err)})
		return
	}
	writeJSON(w, http.StatusOK, ExpandResponse{Success: true, Nodes: nodes})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ChatResponse{Error: "Invalid request body", Code: "bad_request"})
		return
	}
	if strings.TrimSpace(req.NodeTitle) == "" {
		writeJSON(w, http.StatusBadRequest, ChatResponse{Error: "Node title is required", Code: ai.ErrorCode(ai.ErrTitleRequired)})
		return
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		writeJSON(w, http.StatusBadRequest, ChatResponse{Error: "User message is required", Code: ai.ErrorCode(ai.ErrMessageRequired)})
		return
	}

	reply, err := s.client.Chat(r.Context(), req.NodeTitle, req.ChatHistory, req.UserMessage)
	if err != nil {
		s.logger.Error(r.Context(), "Chat request failed", log.Fields{"title": req.NodeTitle, "error": err})
		writeJSON(w, http.StatusInternalServerError, ChatResponse{Error: ai.UserMessage(err), Code: ai.ErrorCode(err)})
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Success: true, Response: reply})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"ai":     s.client.Available(),
	})
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
