package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// decodeStrict parses content as JSON; on failure it strips a
// surrounding code fence and parses exactly once more.
func decodeStrict(content string, out any) error {
	trimmed := strings.TrimSpace(content)
	err := json.Unmarshal([]byte(trimmed), out)
	if err == nil {
		return nil
	}
	stripped := stripCodeBlock(trimmed)
	if stripped == trimmed {
		return err
	}
	return json.Unmarshal([]byte(stripped), out)
}

// DecodeLoose recovers JSON from model text without the gateway's retry
// loop: a direct parse first, then the outermost {...} span. It reports
// false when neither yields valid JSON. Helpers that tolerate a missing
// payload use this instead of ChatJSON's strict path.
func DecodeLoose(content string, out any) bool {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return false
	}
	if json.Unmarshal([]byte(trimmed), out) == nil {
		return true
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		return json.Unmarshal([]byte(trimmed[start:end+1]), out) == nil
	}
	return false
}

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
