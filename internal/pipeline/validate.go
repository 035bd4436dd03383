package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Stage output schemas. Every field is optional (absent arrays default
// to empty during normalization), but present fields must carry the
// right type, and the top level must be an object.
var stageSchemas = map[string]*jsonschema.Schema{
	StageCoreElements: jsonschema.MustCompileString("core_elements.json", `{
		"type": "object",
		"properties": {
			"logline": {"type": "string"},
			"synopsis": {"type": "string"},
			"genre": {"type": "string"},
			"setting": {"type": "string"},
			"themes": {"type": "array", "items": {"type": "string"}},
			"comparable_titles": {"type": "array", "items": {"type": "string"}}
		}
	}`),
	StageCharacterBible: jsonschema.MustCompileString("character_bible.json", `{
		"type": "object",
		"properties": {
			"characters": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"name": {"type": "string"},
						"role": {"type": "string"},
						"arc": {"type": "string"},
						"description": {"type": "string"},
						"traits": {"type": "array", "items": {"type": "string"}}
					}
				}
			}
		}
	}`),
	StageMarketAdaptation: jsonschema.MustCompileString("market_adaptation.json", `{
		"type": "object",
		"properties": {
			"target_audience": {"type": "string"},
			"positioning": {"type": "string"},
			"platforms": {"type": "array", "items": {"type": "string"}},
			"selling_points": {"type": "array", "items": {"type": "string"}},
			"adjustments": {"type": "array", "items": {"type": "string"}}
		}
	}`),
	StagePitchContent: jsonschema.MustCompileString("pitch_content.json", `{
		"type": "object",
		"properties": {
			"logline": {"type": "string"},
			"synopsis": {"type": "string"},
			"hook": {"type": "string"},
			"why_now": {"type": "string"},
			"taglines": {"type": "array", "items": {"type": "string"}}
		}
	}`),
	StageVisualConcepts: jsonschema.MustCompileString("visual_concepts.json", `{
		"type": "object",
		"properties": {
			"palette": {"type": "array", "items": {"type": "string"}},
			"mood": {"type": "string"},
			"key_images": {"type": "array", "items": {"type": "string"}},
			"style_references": {"type": "array", "items": {"type": "string"}}
		}
	}`),
}

// validateStagePayload checks a model response against the stage's
// schema. A non-object top level or a mistyped field is terminal for
// the stage; retrying the same prompt is the gateway's job, not ours.
func validateStagePayload(stage string, raw json.RawMessage) error {
	schema, ok := stageSchemas[stage]
	if !ok {
		return fmt.Errorf("no schema for stage %s", stage)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unmarshal %s output: %w", stage, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("model output does not match %s schema: %w", stage, err)
	}
	return nil
}
