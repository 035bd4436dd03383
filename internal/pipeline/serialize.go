package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"pitchforge/internal/screenplay"
)

const truncationMarker = "\n[script truncated]"

// ScriptExcerpt renders a script as prompt text, scene by scene, and
// stops once the character budget is spent. Dialogue keeps its speaker
// so the model can track voices; action lines are carried verbatim.
func ScriptExcerpt(doc *screenplay.ScriptDocument, budget int) string {
	if budget <= 0 {
		budget = 12000
	}

	var sb strings.Builder
	if doc.Title != "" {
		sb.WriteString("TITLE: " + doc.Title + "\n")
	}
	if len(doc.Authors) > 0 {
		sb.WriteString("AUTHOR: " + strings.Join(doc.Authors, ", ") + "\n")
	}

	write := func(line string) bool {
		if sb.Len()+len(line)+1 > budget {
			return false
		}
		sb.WriteString(line)
		sb.WriteString("\n")
		return true
	}

	for _, scene := range doc.Scenes {
		if !write(fmt.Sprintf("\nSCENE %d: %s", scene.ID, scene.Heading)) {
			sb.WriteString(truncationMarker)
			return sb.String()
		}
		for _, action := range scene.Action {
			if !write(action) {
				sb.WriteString(truncationMarker)
				return sb.String()
			}
		}
		for _, block := range scene.Dialogue {
			line := block.Character + ": " + strings.Join(block.Lines, " ")
			if !write(line) {
				sb.WriteString(truncationMarker)
				return sb.String()
			}
		}
		for _, tr := range scene.Transitions {
			if !write(tr) {
				sb.WriteString(truncationMarker)
				return sb.String()
			}
		}
	}
	return sb.String()
}

// compactJSON serializes a stage output for inclusion in the next
// stage's prompt. Marshal failures collapse to an empty object so a
// prompt is always buildable.
func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// clip truncates s to at most limit runes, appending an ellipsis when
// anything was cut.
func clip(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
