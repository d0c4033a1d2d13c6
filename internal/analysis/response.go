package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// responseSnippetLen bounds the diagnostic excerpt logged when the model
// returns something that is not valid JSON.
const responseSnippetLen = 500

// ParseModelResponse strips any markdown code-fence wrapping from the raw
// model text and decodes the analysis object.
func ParseModelResponse(raw string) (*AIAnalysis, error) {
	clean := stripCodeFences(raw)
	if clean == "" {
		return nil, fmt.Errorf("analysis.ParseModelResponse: empty response from model")
	}

	var result AIAnalysis
	if err := json.Unmarshal([]byte(clean), &result); err != nil {
		return nil, fmt.Errorf("analysis.ParseModelResponse: unmarshal JSON: %w", err)
	}
	return &result, nil
}

// stripCodeFences removes ```json ... ``` or ``` ... ``` wrappers when the
// model ignores the no-markdown instruction.
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)

		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		return strings.TrimSpace(s)
	}

	return s
}

// Snippet truncates raw model output for diagnostic logging.
func Snippet(raw string) string {
	if len(raw) <= responseSnippetLen {
		return raw
	}
	return raw[:responseSnippetLen]
}
