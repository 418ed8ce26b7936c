package fileutils

import "strings"

// StripCodeFence removes a leading ```json (or bare ```) marker and a trailing ``` marker from a model
// response, returning the trimmed payload.
func StripCodeFence(outputText string) string {
	s := strings.TrimSpace(outputText)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = strings.TrimSpace(s[len("```json"):])
	case strings.HasPrefix(s, "```"):
		s = strings.TrimSpace(s[len("```"):])
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(s[:len(s)-len("```")])
	}
	return s
}
