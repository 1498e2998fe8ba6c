package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aetherflow/local-app/src/pkg/model"
)

func TestSanitizeSuggestionsTruncatesAndCoerces(t *testing.T) {
	payload, err := parseExpansion(`{"nodes":[{"title":"` + strings.Repeat("a", 500) + `","description":"` +
		strings.Repeat("d", 400) + `","type":"banana","category":"` + strings.Repeat("c", 60) + `"}]}`)
	require.NoError(t, err)

	got, err := SanitizeSuggestions(payload)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Title, MaxTitleLength)
	assert.Len(t, got[0].Description, MaxDescriptionLength)
	assert.Len(t, got[0].Category, MaxCategoryLength)
	assert.Equal(t, model.NodeTypeIdea, got[0].Type)
}

func TestSanitizeSuggestionsTruncatesByRune(t *testing.T) {
	payload := map[string]interface{}{
		"nodes": []interface{}{map[string]interface{}{"title": strings.Repeat("é", 150)}},
	}
	got, err := SanitizeSuggestions(payload)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", MaxTitleLength), got[0].Title)
}

func TestSanitizeSuggestionsFiltersAndCaps(t *testing.T) {
	entries := []interface{}{
		map[string]interface{}{"title": "   "},
		map[string]interface{}{"description": "no title"},
		"not an object",
		map[string]interface{}{"title": 42},
	}
	for i := 0; i < 10; i++ {
		entries = append(entries, map[string]interface{}{"title": " Step ", "type": "task"})
	}

	got, err := SanitizeSuggestions(map[string]interface{}{"nodes": entries})
	require.NoError(t, err)
	require.Len(t, got, MaxSuggestions)
	assert.Equal(t, "Step", got[0].Title)
	assert.Equal(t, model.NodeTypeTask, got[0].Type)
	assert.Empty(t, got[0].Category)
}

func TestSanitizeSuggestionsErrors(t *testing.T) {
	_, err := SanitizeSuggestions(map[string]interface{}{"items": []interface{}{}})
	assert.ErrorIs(t, err, ErrInvalidStructure)

	_, err = SanitizeSuggestions(map[string]interface{}{"nodes": "three nodes"})
	assert.ErrorIs(t, err, ErrInvalidStructure)

	_, err = SanitizeSuggestions(map[string]interface{}{"nodes": []interface{}{map[string]interface{}{"title": ""}}})
	assert.ErrorIs(t, err, ErrNoValidNodes)
}

func TestUserMessageAndErrorCode(t *testing.T) {
	assert.Equal(t, "Node title is required", UserMessage(ErrTitleRequired))
	assert.Equal(t, "Failed to parse AI response after retry", UserMessage(ErrMalformedOutput))
	assert.Equal(t, "malformed_output", ErrorCode(ErrMalformedOutput))
	assert.Equal(t, "internal", ErrorCode(assert.AnError))
	assert.Equal(t, "Internal server error", UserMessage(assert.AnError))
	assert.Empty(t, ErrorCode(nil))
}
