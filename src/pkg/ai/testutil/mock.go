// Package testutil provides test utilities for the ai package.
package testutil

import (
	"context"
	"sync"
)

// MockBackend is a thread-safe scripted backend. It returns Responses in
// sequence, with Errors[i] taking precedence over Responses[i] when set, and
// records every prompt it receives.
//
//	mock := &MockBackend{Responses: []string{"not json", `{"nodes":[{"title":"A"}]}`}}
type MockBackend struct {
	mu        sync.Mutex
	Responses []string
	Errors    []error
	Err       error         // returned for every call when set
	Gate      chan struct{} // when set, each call waits for a receive or close
	prompts   []string
}

// Generate implements ai.Backend.
func (m *MockBackend) Generate(ctx context.Context, prompt string) (string, error) {
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	index := len(m.prompts)
	m.prompts = append(m.prompts, prompt)

	if m.Err != nil {
		return "", m.Err
	}
	if index < len(m.Errors) && m.Errors[index] != nil {
		return "", m.Errors[index]
	}
	if index < len(m.Responses) {
		return m.Responses[index], nil
	}
	return "", nil
}

// Prompts returns the prompts received so far.
func (m *MockBackend) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// CallCount returns the number of Generate calls.
func (m *MockBackend) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}
