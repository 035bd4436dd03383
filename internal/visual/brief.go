package visual

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"pitchforge/internal/llm"
)

const (
	placeholderImage = "placeholder_ai_image.png"
	aiImageSamples   = 3
	styleSuffix      = ", Indian style, Bollywood visuals, vibrant colors"
)

// Brief is the visual package attached to a pitch: imagery to show a
// buyer plus prompts ready for an image generation model.
type Brief struct {
	MoodBoard       []string `json:"mood_board"`
	ArtDirection    string   `json:"art_direction_notes"`
	ReferenceImages []string `json:"reference_images"`
	PromptSeeds     []string `json:"prompt_seeds"`
}

// OptimizePrompt decorates an image prompt with the house aesthetic.
func OptimizePrompt(prompt string) string {
	return prompt + styleSuffix
}

// Builder turns a pipeline's visual concepts into a brief.
type Builder struct {
	source ImageSource
	gen    ImageGenerator
	log    *slog.Logger
}

// NewBuilder accepts nil clients; briefs then carry placeholders.
func NewBuilder(source ImageSource, gen ImageGenerator, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{source: source, gen: gen, log: log}
}

// BuildBrief assembles a brief from the generated mood, key images,
// and palette. Imagery failures never propagate; the brief is always
// complete, with placeholders standing in for missing renders. The
// mood board leads with generated art, stock references follow.
func (b *Builder) BuildBrief(ctx context.Context, mood string, keyImages, palette []string) Brief {
	mood = unwrapMood(mood)

	seeds := make([]string, 0, len(keyImages))
	for _, img := range keyImages {
		if strings.TrimSpace(img) == "" {
			continue
		}
		seeds = append(seeds, OptimizePrompt(img))
	}
	if len(seeds) == 0 && strings.TrimSpace(mood) != "" {
		seeds = append(seeds, OptimizePrompt(mood))
	}

	description := strings.TrimSpace(mood)
	if description == "" {
		description = "cinematic still"
	}
	if len(palette) > 0 {
		description += ", palette of " + strings.Join(palette, ", ")
	}
	art := OptimizePrompt(description)

	generated := b.renderImages(ctx, art)

	query := strings.TrimSpace(mood)
	if query == "" && len(keyImages) > 0 {
		query = keyImages[0]
	}
	if query == "" {
		query = "cinematic still"
	}

	refs := []string{}
	if b.source != nil {
		found, err := b.source.Search(ctx, query, 5)
		if err != nil {
			b.log.Warn("stock image search failed", "query", query, "error", err)
		} else if found != nil {
			refs = found
		}
	}

	board := append(append([]string(nil), generated...), refs...)

	return Brief{
		MoodBoard:       board,
		ArtDirection:    art,
		ReferenceImages: refs,
		PromptSeeds:     seeds,
	}
}

// renderImages asks the generator for mood board art. Placeholders
// stand in when no generator is configured or the render fails or
// comes back empty.
func (b *Builder) renderImages(ctx context.Context, prompt string) []string {
	if b.gen != nil {
		images, err := b.gen.Generate(ctx, prompt, aiImageSamples)
		if err != nil {
			b.log.Warn("ai image generation failed", "error", err)
		} else if len(images) > 0 {
			return images
		}
	}
	images := make([]string, aiImageSamples)
	for i := range images {
		images[i] = placeholderImage
	}
	return images
}

// unwrapMood recovers the mood value when a model nested JSON inside
// the string field.
func unwrapMood(mood string) string {
	if !strings.Contains(mood, "{") {
		return mood
	}
	var nested struct {
		Mood string `json:"mood"`
	}
	if llm.DecodeLoose(mood, &nested) && strings.TrimSpace(nested.Mood) != "" {
		return nested.Mood
	}
	return mood
}
