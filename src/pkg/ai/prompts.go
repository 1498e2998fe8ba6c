package ai

import (
	"fmt"
	"strings"
)

// ExpansionPrompt asks the backend for 3-5 child concepts as strict JSON.
func ExpansionPrompt(title, description string) string {
	subject := fmt.Sprintf("%q", title)
	if description != "" {
		subject += fmt.Sprintf(" and description %q", description)
	}

	return `You are an AI assistant helping users expand their ideas into structured mind maps. Given a node with the title ` + subject + `, generate 3-5 meaningful child nodes that break down or expand upon this concept.

IMPORTANT: Respond ONLY with valid JSON in the following format:
{
  "nodes": [
    {
      "title": "Short, clear title (max 50 chars)",
      "description": "Brief explanation (max 200 chars)",
      "type": "idea",
      "category": "optional category"
    }
  ]
}

Guidelines:
- Create practical, actionable breakdowns
- Mix different types of nodes (idea, task, note)
- Include diverse perspectives (planning, execution, risks, resources)
- Keep titles concise and descriptions informative
- For projects: include planning, execution, and evaluation phases
- For topics: include research, analysis, and application aspects
- For goals: include preparation, action steps, and success metrics

Generate 3-5 child nodes now:`
}

// RetryPrompt is the simplified expansion prompt used after malformed output.
func RetryPrompt(title string) string {
	return fmt.Sprintf(`Generate 3 child nodes for %q. Respond with JSON: {"nodes":[{"title":"Title","description":"Description","type":"idea"}]}`, title)
}

// ChatPrompt builds the brainstorming prompt from the node title, the
// flattened transcript and the latest user message.
func ChatPrompt(title string, history []Turn, message string) string {
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		lines = append(lines, turn.Role+": "+turn.Content)
	}

	return fmt.Sprintf(`You are an AI brainstorming partner helping a user explore the concept: %q.

Chat History:
%s

User's latest message: %q

Respond conversationally to help brainstorm, analyze, or expand on this topic. Be helpful, creative, and ask follow-up questions when appropriate. Keep responses concise but insightful (max 300 words).`,
		title, strings.Join(lines, "\n"), message)
}
