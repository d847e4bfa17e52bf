package insight

import (
	"encoding/json"
	"strings"
)

// parseInsight decodes the model's free-text reply. Two stages: a
// lexical scan for the first balanced {...} span (the model tends to
// wrap its JSON in prose or markdown fencing), then a structured decode.
// When either stage fails the raw text becomes the summary and
// structured is false.
func parseInsight(text string) (ins Insight, structured bool) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	span, ok := extractObject(cleaned)
	if ok {
		var decoded Insight
		if err := json.Unmarshal([]byte(span), &decoded); err == nil &&
			(decoded.Summary != "" || len(decoded.Recommendations) > 0) {
			if decoded.Recommendations == nil {
				decoded.Recommendations = []string{}
			}
			return decoded, true
		}
	}

	return Insight{Summary: cleaned, Recommendations: []string{}}, false
}

// extractObject returns the first balanced top-level {...} span of s.
// Braces inside JSON strings are ignored, as are escaped quotes.
func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
