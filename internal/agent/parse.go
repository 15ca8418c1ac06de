package agent

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoJSONObject = errors.New("agent: no JSON object found in response")

// ExtractJSON locates the first balanced `{...}` span in text and decodes
// it into v; exported so other components (the clarifying phase parsing a
// Clarifier's staged analysis) can reuse the same tolerant parsing.
func ExtractJSON(text string, v any) error {
	return extractJSON(text, v)
}

// extractJSON locates the first balanced `{...}` span in text and decodes it
// into v. LLM responses sometimes wrap the requested JSON in prose or a
// markdown fence; this tolerates both rather than demanding a bare object.
func extractJSON(text string, v any) error {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return errNoJSONObject
	}

	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return json.Unmarshal([]byte(text[start:i+1]), v)
			}
		}
	}
	return errNoJSONObject
}
