package pipeline

import (
	"fmt"
	"time"

	"pitchforge/internal/screenplay"
	"pitchforge/internal/visual"
)

// Stage names, in execution order. The first two are local work; the
// rest call the model except document_prep, which is a local merge.
const (
	StageExtract          = "extract"
	StageParse            = "parse"
	StageCoreElements     = "core_elements"
	StageCharacterBible   = "character_bible"
	StageMarketAdaptation = "market_adaptation"
	StagePitchContent     = "pitch_content"
	StageVisualConcepts   = "visual_concepts"
	StageDocumentPrep     = "document_prep"
)

// JobSteps is the full step sequence a job walks through.
var JobSteps = []string{
	StageExtract,
	StageParse,
	StageCoreElements,
	StageCharacterBible,
	StageMarketAdaptation,
	StagePitchContent,
	StageVisualConcepts,
	StageDocumentPrep,
}

// CoreElements is the first generative stage's output: the story
// distilled to its marketable bones.
type CoreElements struct {
	Logline          string   `json:"logline"`
	Synopsis         string   `json:"synopsis"`
	Genre            string   `json:"genre"`
	Setting          string   `json:"setting"`
	Themes           []string `json:"themes"`
	ComparableTitles []string `json:"comparable_titles"`
}

func (c *CoreElements) normalize() {
	if c.Themes == nil {
		c.Themes = []string{}
	}
	if c.ComparableTitles == nil {
		c.ComparableTitles = []string{}
	}
}

// CharacterProfile describes one character in the bible.
type CharacterProfile struct {
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Arc         string   `json:"arc"`
	Description string   `json:"description"`
	Traits      []string `json:"traits"`
}

// characterBible is the wire shape of the character_bible stage.
type characterBible struct {
	Characters []CharacterProfile `json:"characters"`
}

func (b *characterBible) normalize() {
	if b.Characters == nil {
		b.Characters = []CharacterProfile{}
	}
	for i := range b.Characters {
		if b.Characters[i].Traits == nil {
			b.Characters[i].Traits = []string{}
		}
	}
}

// MarketAdaptation positions the story for a target market.
type MarketAdaptation struct {
	TargetAudience string   `json:"target_audience"`
	Positioning    string   `json:"positioning"`
	Platforms      []string `json:"platforms"`
	SellingPoints  []string `json:"selling_points"`
	Adjustments    []string `json:"adjustments"`
}

func (m *MarketAdaptation) normalize() {
	if m.Platforms == nil {
		m.Platforms = []string{}
	}
	if m.SellingPoints == nil {
		m.SellingPoints = []string{}
	}
	if m.Adjustments == nil {
		m.Adjustments = []string{}
	}
}

// PitchContent is the polished pitch copy.
type PitchContent struct {
	Logline  string   `json:"logline"`
	Synopsis string   `json:"synopsis"`
	Hook     string   `json:"hook"`
	WhyNow   string   `json:"why_now"`
	Taglines []string `json:"taglines"`
}

func (p *PitchContent) normalize() {
	if p.Taglines == nil {
		p.Taglines = []string{}
	}
}

// VisualConcepts sketches the look of the piece.
type VisualConcepts struct {
	Palette         []string `json:"palette"`
	Mood            string   `json:"mood"`
	KeyImages       []string `json:"key_images"`
	StyleReferences []string `json:"style_references"`
}

func (v *VisualConcepts) normalize() {
	if v.Palette == nil {
		v.Palette = []string{}
	}
	if v.KeyImages == nil {
		v.KeyImages = []string{}
	}
	if v.StyleReferences == nil {
		v.StyleReferences = []string{}
	}
}

// Overrides carries optional caller guidance. Only the market
// adaptation stage sees it; other stages' prompts are fixed.
type Overrides struct {
	Platform string `json:"platform,omitempty"`
	Tone     string `json:"tone,omitempty"`
}

// Result is the immutable merge of all stage outputs. Later stages
// never mutate it; document_prep produces it once.
type Result struct {
	Core        CoreElements       `json:"core_elements"`
	Characters  []CharacterProfile `json:"characters"`
	Market      MarketAdaptation   `json:"market_adaptation"`
	Pitch       PitchContent       `json:"pitch_content"`
	Visual      VisualConcepts     `json:"visual_concepts"`
	Quality     int                `json:"quality_score"`
	Model       string             `json:"model,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// DeckSection is one slide-sized block of the pitch deck outline.
type DeckSection struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

// PitchPackage bundles everything a job produced for one script.
type PitchPackage struct {
	ID        string                     `json:"id"`
	Title     string                     `json:"title"`
	Filename  string                     `json:"filename"`
	CreatedAt time.Time                  `json:"created_at"`
	Quality   int                        `json:"quality_score"`
	Script    *screenplay.ScriptDocument `json:"script"`
	Summary   screenplay.Summary         `json:"summary"`
	Result    *Result                    `json:"result"`
	Deck      []DeckSection              `json:"deck"`
	Brief     *visual.Brief              `json:"visual_brief,omitempty"`
	Warnings  []string                   `json:"warnings"`
}

// StageError marks which stage a terminal failure happened in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
