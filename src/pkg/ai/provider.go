package ai

import (
	"net/http"
	"sort"
	"sync"
)

// Provider adapts the HTTP backend to one hosted text generation API.
type Provider interface {
	// Name returns the provider identifier (e.g. "gemini", "ollama").
	Name() string

	// BuildURL constructs the full API endpoint URL for model.
	BuildURL(baseURL, model string) string

	// SetHeaders adds provider-specific headers, including authentication.
	SetHeaders(req *http.Request, apiKey string)

	// BuildRequestBody creates the JSON request body for a single prompt.
	// temperature is nil to use the provider default.
	BuildRequestBody(model, prompt string, temperature *float64) ([]byte, error)

	// ParseResponse extracts the generated text from the provider's JSON.
	ParseResponse(body []byte) (string, error)

	// RequiresKey reports whether the provider cannot be used without an API key.
	RequiresKey() bool
}

var (
	providerRegistry = make(map[string]Provider)
	providerMu       sync.RWMutex
)

// RegisterProvider adds a provider to the registry.
func RegisterProvider(p Provider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	providerRegistry[p.Name()] = p
}

// GetProvider retrieves a provider by name.
func GetProvider(name string) Provider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return providerRegistry[name]
}

// ListProviders returns all registered provider names, sorted.
func ListProviders() []string {
	providerMu.RLock()
	defer providerMu.RUnlock()

	names := make([]string, 0, len(providerRegistry))
	for name := range providerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
