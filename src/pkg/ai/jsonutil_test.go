package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bare object",
			content: `{"nodes":[]}`,
			want:    `{"nodes":[]}`,
		},
		{
			name:    "markdown fence",
			content: "Here you go:\n```json\n{\"nodes\":[{\"title\":\"A\"}]}\n```\nEnjoy!",
			want:    `{"nodes":[{"title":"A"}]}`,
		},
		{
			name:    "prose around object",
			content: `Sure! {"nodes":[{"title":"A"}]} Let me know.`,
			want:    `{"nodes":[{"title":"A"}]}`,
		},
		{
			name:    "trailing commas",
			content: `{"nodes":[{"title":"A",},],}`,
			want:    `{"nodes":[{"title":"A"}]}`,
		},
		{
			name:    "line comments outside strings",
			content: "{\n  \"url\": \"http://example.com\", // source\n  \"n\": 1\n}",
			want:    "{\n  \"url\": \"http://example.com\",\n  \"n\": 1\n}",
		},
		{
			name:    "commas inside strings are kept",
			content: `{"nodes":[{"title":"a, }","description":"x,]"},]}`,
			want:    `{"nodes":[{"title":"a, }","description":"x,]"}]}`,
		},
		{
			name:    "trailing comma before a comment",
			content: "{\n  \"n\": 1, // last\n}",
			want:    "{\n  \"n\": 1\n}",
		},
		{
			name:    "no object",
			content: "I cannot help with that.",
			want:    "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.content))
		})
	}
}

func TestCleanJSONKeepsSlashesInStrings(t *testing.T) {
	in := `{"path": "a//b\"//c"} // note`
	assert.Equal(t, `{"path": "a//b\"//c"}`, cleanJSON(in))
}
