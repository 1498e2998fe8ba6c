package providers

import (
	"aetherflow/local-app/src/pkg/ai"
)

// OpenAIProvider implements the OpenAI API. It shares the request and response
// format of OllamaProvider but defaults to the hosted endpoint and needs a key.
type OpenAIProvider struct {
	OllamaProvider
}

func init() {
	ai.RegisterProvider(&OpenAIProvider{})
}

// Name returns the provider identifier.
func (o *OpenAIProvider) Name() string {
	return "openai"
}

// BuildURL constructs the OpenAI API endpoint.
func (o *OpenAIProvider) BuildURL(baseURL, _ string) string {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return chatCompletionsURL(baseURL)
}

// RequiresKey reports that the hosted API needs a key.
func (o *OpenAIProvider) RequiresKey() bool {
	return true
}
