package pipeline

import (
	"strings"
)

// SystemPrompt frames every generative stage call.
const SystemPrompt = `You are a film development assistant preparing pitch materials from a screenplay. Always respond with a single valid JSON object and nothing else: no prose, no explanations, no markdown fences.`

const coreElementsPrompt = `Distill the screenplay below into its core story elements. Return a JSON object with these fields:

- "logline": one-sentence summary of the story (string)
- "synopsis": 150-300 word prose summary (string)
- "genre": primary genre, e.g. "drama", "thriller" (string)
- "setting": time and place of the story (string)
- "themes": central themes (list of strings, max 5)
- "comparable_titles": released films or shows this resembles (list of strings, max 4)

Rules:
- Ground every field in the script text; do not invent plot points
- Prefer concrete, specific wording over marketing vagueness
- Use empty strings or empty lists when the script gives nothing to work with

Respond with ONLY the JSON object, no other text.`

const characterBiblePrompt = `Build a character bible for the screenplay. Return a JSON object with one field:

- "characters": list of character objects, one per significant character

Each character object must have:
- "name": the character's name as used in the script (string)
- "role": one of "protagonist", "antagonist", "supporting"
- "arc": how the character changes across the story (string)
- "description": age, bearing, and story function in one or two sentences (string)
- "traits": defining traits (list of strings, max 4)

Rules:
- Cover every name in the cast list; merge obvious aliases into one entry
- Base arcs on what the dialogue and action actually show
- Keep descriptions castable: concrete, visual, short

Respond with ONLY the JSON object, no other text.`

const marketAdaptationPrompt = `Position this story for the Indian streaming market. Return a JSON object with these fields:

- "target_audience": who this is for (string)
- "positioning": one-paragraph positioning statement (string)
- "platforms": best-fit platforms in priority order (list of strings)
- "selling_points": reasons a buyer says yes (list of strings, max 5)
- "adjustments": changes that would widen the audience (list of strings, max 5)

Rules:
- Platforms must be real services, e.g. "Netflix India", "Prime Video India", "Disney+ Hotstar", "ZEE5", "JioCinema"
- Tie every selling point to something in the story elements or characters
- Adjustments are suggestions, not mandates; respect the material

Respond with ONLY the JSON object, no other text.`

const pitchContentPrompt = `Write the pitch copy for this story. Return a JSON object with these fields:

- "logline": sharpened one-sentence logline (string)
- "synopsis": 200-350 word selling synopsis (string)
- "hook": the single most arresting idea, one sentence (string)
- "why_now": why this story belongs in today's market (string)
- "taglines": poster taglines (list of strings, max 3)

Rules:
- Write for a buyer skimming twenty pitches; lead with what is distinctive
- Stay consistent with the market positioning; do not contradict it
- No spoilers past the midpoint in the synopsis

Respond with ONLY the JSON object, no other text.`

const visualConceptsPrompt = `Describe the visual identity for this story. Return a JSON object with these fields:

- "palette": dominant colors, e.g. "burnt orange" (list of strings, max 5)
- "mood": overall visual mood in one sentence (string)
- "key_images": single frames that would sell the story (list of strings, max 6)
- "style_references": films, photographers, or movements to draw on (list of strings, max 4)

Rules:
- Derive imagery from settings and scenes that exist in the story
- Each key image should be shootable: one subject, one place, one light

Respond with ONLY the JSON object, no other text.`

func buildCoreElementsPrompt(excerpt string) string {
	var sb strings.Builder
	sb.WriteString(coreElementsPrompt)
	sb.WriteString("\n\n---\n")
	sb.WriteString(excerpt)
	return sb.String()
}

func buildCharacterBiblePrompt(coreJSON string, cast []string, excerpt string) string {
	var sb strings.Builder
	sb.WriteString(characterBiblePrompt)
	sb.WriteString("\n\n---\n")
	sb.WriteString("Cast list: ")
	sb.WriteString(strings.Join(cast, ", "))
	sb.WriteString("\nStory elements: ")
	sb.WriteString(coreJSON)
	sb.WriteString("\n---\n")
	sb.WriteString(excerpt)
	return sb.String()
}

func buildMarketPrompt(coreJSON, charactersJSON string, ov Overrides) string {
	var sb strings.Builder
	sb.WriteString(marketAdaptationPrompt)
	sb.WriteString("\n\n---\n")
	sb.WriteString("Story elements: ")
	sb.WriteString(coreJSON)
	sb.WriteString("\nCharacters: ")
	sb.WriteString(charactersJSON)
	if ov.Platform != "" {
		sb.WriteString("\n\nAdditional guidance: target platform is ")
		sb.WriteString(ov.Platform)
		sb.WriteString(".")
	}
	if ov.Tone != "" {
		sb.WriteString("\nAdditional guidance: desired tone is ")
		sb.WriteString(ov.Tone)
		sb.WriteString(".")
	}
	return sb.String()
}

func buildPitchPrompt(coreJSON, marketJSON string) string {
	var sb strings.Builder
	sb.WriteString(pitchContentPrompt)
	sb.WriteString("\n\n---\n")
	sb.WriteString("Story elements: ")
	sb.WriteString(coreJSON)
	sb.WriteString("\nMarket positioning: ")
	sb.WriteString(marketJSON)
	return sb.String()
}

func buildVisualPrompt(coreJSON, charactersJSON string) string {
	var sb strings.Builder
	sb.WriteString(visualConceptsPrompt)
	sb.WriteString("\n\n---\n")
	sb.WriteString("Story elements: ")
	sb.WriteString(coreJSON)
	sb.WriteString("\nCharacters: ")
	sb.WriteString(charactersJSON)
	return sb.String()
}
