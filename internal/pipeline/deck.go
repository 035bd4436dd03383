package pipeline

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pitchforge/internal/screenplay"
)

// documentPrep is the final stage. No model call: it merges the
// committed stage outputs into one immutable result and scores it.
func documentPrep(core CoreElements, chars []CharacterProfile, market MarketAdaptation, pitch PitchContent, visual VisualConcepts) *Result {
	if chars == nil {
		chars = []CharacterProfile{}
	}
	return &Result{
		Core:        core,
		Characters:  chars,
		Market:      market,
		Pitch:       pitch,
		Visual:      visual,
		Quality:     qualityScore(core),
		GeneratedAt: time.Now().UTC(),
	}
}

// qualityScore rates completeness of the core elements on a 0-10
// scale. Baseline 5, +2 for a logline, +2 for a substantial synopsis,
// +1 for any themes, capped at 10.
func qualityScore(core CoreElements) int {
	score := 5
	if strings.TrimSpace(core.Logline) != "" {
		score += 2
	}
	if utf8.RuneCountInString(core.Synopsis) > 200 {
		score += 2
	}
	if len(core.Themes) > 0 {
		score++
	}
	if score > 10 {
		score = 10
	}
	return score
}

// BuildDeck lays the result out as slide-sized sections in pitch-deck
// order. Empty fields are dropped rather than rendered blank.
func BuildDeck(doc *screenplay.ScriptDocument, res *Result) []DeckSection {
	title := doc.Title
	if title == "" {
		title = "Untitled Script"
	}

	var titleLines []string
	titleLines = appendLine(titleLines, title)
	if len(doc.Authors) > 0 {
		titleLines = appendLine(titleLines, "Written by "+strings.Join(doc.Authors, ", "))
	}
	titleLines = appendLine(titleLines, res.Core.Genre)

	logline := res.Pitch.Logline
	if logline == "" {
		logline = res.Core.Logline
	}
	synopsis := res.Pitch.Synopsis
	if synopsis == "" {
		synopsis = res.Core.Synopsis
	}

	var worldLines []string
	worldLines = appendLine(worldLines, res.Core.Setting)
	if len(res.Core.Themes) > 0 {
		worldLines = appendLine(worldLines, "Themes: "+strings.Join(res.Core.Themes, ", "))
	}
	if len(res.Core.ComparableTitles) > 0 {
		worldLines = appendLine(worldLines, "In the vein of "+strings.Join(res.Core.ComparableTitles, ", "))
	}

	var charLines []string
	for _, c := range res.Characters {
		line := c.Name
		if c.Role != "" {
			line = fmt.Sprintf("%s (%s)", c.Name, c.Role)
		}
		if c.Description != "" {
			line += ": " + c.Description
		}
		charLines = appendLine(charLines, line)
	}

	var marketLines []string
	marketLines = appendLine(marketLines, res.Market.TargetAudience)
	marketLines = appendLine(marketLines, res.Market.Positioning)
	if len(res.Market.Platforms) > 0 {
		marketLines = appendLine(marketLines, "Platforms: "+strings.Join(res.Market.Platforms, ", "))
	}
	marketLines = append(marketLines, res.Market.SellingPoints...)

	var visualLines []string
	visualLines = appendLine(visualLines, res.Visual.Mood)
	if len(res.Visual.Palette) > 0 {
		visualLines = appendLine(visualLines, "Palette: "+strings.Join(res.Visual.Palette, ", "))
	}
	visualLines = append(visualLines, res.Visual.KeyImages...)

	var askLines []string
	askLines = appendLine(askLines, res.Pitch.Hook)
	askLines = appendLine(askLines, res.Pitch.WhyNow)
	askLines = append(askLines, res.Pitch.Taglines...)

	sections := []DeckSection{
		{Title: "Title Card", Lines: titleLines},
		{Title: "Logline", Lines: appendLine(nil, logline)},
		{Title: "Synopsis", Lines: appendLine(nil, synopsis)},
		{Title: "World & Tone", Lines: worldLines},
		{Title: "Characters", Lines: charLines},
		{Title: "Market & Audience", Lines: marketLines},
		{Title: "Visual Direction", Lines: visualLines},
		{Title: "The Ask", Lines: askLines},
	}
	for i := range sections {
		if sections[i].Lines == nil {
			sections[i].Lines = []string{}
		}
	}
	return sections
}

func appendLine(lines []string, s string) []string {
	if strings.TrimSpace(s) == "" {
		return lines
	}
	return append(lines, s)
}
