package ai

import (
	"regexp"
)

var (
	fencedObjectPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	// Greedy: first '{' to last '}'.
	anyObjectPattern = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
)

// ExtractJSON returns the JSON object found in a model reply, preferring a
// fenced code block over the first-to-last brace span. Line comments and
// trailing commas outside string literals are dropped. It returns "" when
// the reply holds no object.
func ExtractJSON(content string) string {
	var raw string
	if m := fencedObjectPattern.FindStringSubmatch(content); len(m) > 1 {
		raw = m[1]
	} else {
		raw = anyObjectPattern.FindString(content)
	}
	if raw == "" {
		return ""
	}
	return cleanJSON(raw)
}

// cleanJSON removes // comments and commas that directly precede a closing
// bracket. String literals are copied untouched.
func cleanJSON(raw string) string {
	out := make([]byte, 0, len(raw))
	inString, escaped := false, false

	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			out = append(out, ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch {
		case ch == '"':
			inString = true
			out = append(out, ch)
		case ch == '/' && i+1 < len(raw) && raw[i+1] == '/':
			out = trimTrailingBlanks(out)
			i = skipComment(raw, i) - 1
		case ch == ',' && closesNext(raw, i+1):
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

// skipComment returns the index of the newline ending the comment at i, or
// len(s).
func skipComment(s string, i int) int {
	for i < len(s) && s[i] != '\n' {
		i++
	}
	return i
}

// closesNext reports whether the next token at or after i is ']' or '}'.
func closesNext(s string, i int) bool {
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
			i++
		case '/':
			if i+1 < len(s) && s[i+1] == '/' {
				i = skipComment(s, i)
				continue
			}
			return false
		case ']', '}':
			return true
		default:
			return false
		}
	}
	return false
}

func trimTrailingBlanks(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}
