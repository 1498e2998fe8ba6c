package ai

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"aetherflow/local-app/src/pkg/model"
)

const (
	MaxTitleLength       = model.MaxTitleLength
	MaxDescriptionLength = model.MaxDescriptionLength
	MaxCategoryLength    = 50
	MaxSuggestions       = 6
)

// Suggestion is one sanitized child proposal.
type Suggestion struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Type        model.NodeType `json:"type"`
	Category    string         `json:"category,omitempty"`
}

// Turn is one transcript entry sent along with a chat message.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FallbackSuggestions are returned by Expand when no backend is configured.
func FallbackSuggestions() []Suggestion {
	return []Suggestion{
		{
			Title:       "Planning & Preparation",
			Description: "Initial steps and requirements for getting started",
			Type:        model.NodeTypeIdea,
			Category:    "planning",
		},
		{
			Title:       "Implementation Tasks",
			Description: "Core actions needed to accomplish this goal",
			Type:        model.NodeTypeTask,
			Category:    "execution",
		},
		{
			Title:       "Resources & Tools",
			Description: "Materials, tools, or knowledge required",
			Type:        model.NodeTypeNote,
			Category:    "resources",
		},
	}
}

// parseExpansion decodes the structured block of a model response.
func parseExpansion(text string) (map[string]interface{}, error) {
	raw := ExtractJSON(text)
	if raw == "" {
		raw = text
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode expansion: %w", err)
	}
	return payload, nil
}

// SanitizeSuggestions validates a decoded expansion payload. Entries without a
// title are dropped, text fields are trimmed and truncated, unknown types
// become ideas and at most MaxSuggestions entries are kept.
func SanitizeSuggestions(payload map[string]interface{}) ([]Suggestion, error) {
	entries, ok := payload["nodes"].([]interface{})
	if !ok {
		return nil, ErrInvalidStructure
	}

	var out []Suggestion
	for _, entry := range entries {
		fields, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		title := truncate(stringField(fields, "title"), MaxTitleLength)
		if title == "" {
			continue
		}
		nodeType, known := model.ParseNodeType(stringField(fields, "type"))
		if !known {
			nodeType = model.NodeTypeIdea
		}
		out = append(out, Suggestion{
			Title:       title,
			Description: truncate(stringField(fields, "description"), MaxDescriptionLength),
			Type:        nodeType,
			Category:    truncate(stringField(fields, "category"), MaxCategoryLength),
		})
		if len(out) == MaxSuggestions {
			break
		}
	}

	if len(out) == 0 {
		return nil, ErrNoValidNodes
	}
	return out, nil
}

func stringField(fields map[string]interface{}, key string) string {
	s, _ := fields[key].(string)
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	return model.Truncate(s, n)
}
