package visual

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeSource struct {
	urls    []string
	err     error
	queries []string
	limits  []int
}

func (f *fakeSource) Search(ctx context.Context, query string, limit int) ([]string, error) {
	f.queries = append(f.queries, query)
	f.limits = append(f.limits, limit)
	return f.urls, f.err
}

type fakeGenerator struct {
	images  []string
	err     error
	prompts []string
	samples []int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, samples int) ([]string, error) {
	f.prompts = append(f.prompts, prompt)
	f.samples = append(f.samples, samples)
	return f.images, f.err
}

func TestOptimizePromptAppendsHouseStyle(t *testing.T) {
	got := OptimizePrompt("a train at dusk")
	if got != "a train at dusk, Indian style, Bollywood visuals, vibrant colors" {
		t.Errorf("unexpected prompt %q", got)
	}
}

func TestBuildBriefWithStockImagery(t *testing.T) {
	src := &fakeSource{urls: []string{"https://img/1.jpg", "https://img/2.jpg"}}
	b := NewBuilder(src, nil, nil)

	brief := b.BuildBrief(context.Background(), "neon noir", []string{"a lit console"}, []string{"sodium orange"})

	if len(brief.MoodBoard) != aiImageSamples+2 {
		t.Fatalf("expected placeholders plus stock urls, got %v", brief.MoodBoard)
	}
	for _, img := range brief.MoodBoard[:aiImageSamples] {
		if img != placeholderImage {
			t.Errorf("expected placeholder leading the board, got %q", img)
		}
	}
	if brief.MoodBoard[aiImageSamples] != "https://img/1.jpg" {
		t.Errorf("expected stock urls after placeholders, got %v", brief.MoodBoard)
	}
	if len(brief.ReferenceImages) != 2 {
		t.Errorf("expected stock urls as references, got %v", brief.ReferenceImages)
	}
	if len(brief.PromptSeeds) != 1 || !strings.HasPrefix(brief.PromptSeeds[0], "a lit console") {
		t.Errorf("unexpected prompt seeds %v", brief.PromptSeeds)
	}
	if !strings.HasSuffix(brief.PromptSeeds[0], "vibrant colors") {
		t.Error("expected decorated prompt seed")
	}
	if !strings.Contains(brief.ArtDirection, "neon noir") || !strings.Contains(brief.ArtDirection, "sodium orange") {
		t.Errorf("unexpected art direction %q", brief.ArtDirection)
	}
	if len(src.queries) != 1 || src.queries[0] != "neon noir" {
		t.Errorf("expected search by mood, got %v", src.queries)
	}
}

func TestBuildBriefLeadsWithGeneratedImagery(t *testing.T) {
	gen := &fakeGenerator{images: []string{"data:image/png;base64,AAA", "data:image/png;base64,BBB"}}
	src := &fakeSource{urls: []string{"https://img/1.jpg"}}
	b := NewBuilder(src, gen, nil)

	brief := b.BuildBrief(context.Background(), "neon noir", nil, nil)

	if len(brief.MoodBoard) != 3 {
		t.Fatalf("expected generated art plus stock, got %v", brief.MoodBoard)
	}
	if brief.MoodBoard[0] != "data:image/png;base64,AAA" || brief.MoodBoard[2] != "https://img/1.jpg" {
		t.Errorf("expected generated imagery ahead of stock, got %v", brief.MoodBoard)
	}
	if len(gen.prompts) != 1 || !strings.HasPrefix(gen.prompts[0], "neon noir") {
		t.Errorf("expected generation from the mood prompt, got %v", gen.prompts)
	}
	if !strings.HasSuffix(gen.prompts[0], styleSuffix) {
		t.Errorf("expected decorated generation prompt, got %q", gen.prompts[0])
	}
	if len(gen.samples) != 1 || gen.samples[0] != aiImageSamples {
		t.Errorf("expected %d samples requested, got %v", aiImageSamples, gen.samples)
	}
	if len(brief.ReferenceImages) != 1 || brief.ReferenceImages[0] != "https://img/1.jpg" {
		t.Errorf("expected stock urls only as references, got %v", brief.ReferenceImages)
	}
}

func TestBuildBriefGenerationFailureFallsBackToPlaceholders(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exhausted")}
	src := &fakeSource{urls: []string{"https://img/1.jpg"}}
	b := NewBuilder(src, gen, nil)

	brief := b.BuildBrief(context.Background(), "stark daylight", nil, nil)

	if len(brief.MoodBoard) != aiImageSamples+1 {
		t.Fatalf("expected placeholders plus stock, got %v", brief.MoodBoard)
	}
	for _, img := range brief.MoodBoard[:aiImageSamples] {
		if img != placeholderImage {
			t.Errorf("expected placeholder, got %q", img)
		}
	}
	if brief.MoodBoard[aiImageSamples] != "https://img/1.jpg" {
		t.Errorf("expected stock url after placeholders, got %v", brief.MoodBoard)
	}
}

func TestBuildBriefEmptyRenderFallsBackToPlaceholders(t *testing.T) {
	gen := &fakeGenerator{}
	b := NewBuilder(nil, gen, nil)

	brief := b.BuildBrief(context.Background(), "stark daylight", nil, nil)

	if len(brief.MoodBoard) != aiImageSamples {
		t.Fatalf("expected %d placeholders, got %v", aiImageSamples, brief.MoodBoard)
	}
	for _, img := range brief.MoodBoard {
		if img != placeholderImage {
			t.Errorf("expected placeholder, got %q", img)
		}
	}
}

func TestBuildBriefSearchFailureDegradesToPlaceholders(t *testing.T) {
	src := &fakeSource{err: errors.New("rate limited")}
	b := NewBuilder(src, nil, nil)

	brief := b.BuildBrief(context.Background(), "stark daylight", nil, nil)

	if len(brief.MoodBoard) != aiImageSamples {
		t.Fatalf("expected %d placeholders, got %v", aiImageSamples, brief.MoodBoard)
	}
	for _, img := range brief.MoodBoard {
		if img != placeholderImage {
			t.Errorf("expected placeholder, got %q", img)
		}
	}
	if len(brief.ReferenceImages) != 0 {
		t.Errorf("expected no references, got %v", brief.ReferenceImages)
	}
	if brief.ReferenceImages == nil {
		t.Error("expected empty slice, not nil")
	}
}

func TestBuildBriefWithoutClients(t *testing.T) {
	b := NewBuilder(nil, nil, nil)
	brief := b.BuildBrief(context.Background(), "", nil, nil)

	if len(brief.MoodBoard) != aiImageSamples {
		t.Errorf("expected placeholders without clients, got %v", brief.MoodBoard)
	}
	if !strings.HasPrefix(brief.ArtDirection, "cinematic still") {
		t.Errorf("expected generic art direction, got %q", brief.ArtDirection)
	}
}

func TestBuildBriefQueryFallsBackToKeyImage(t *testing.T) {
	src := &fakeSource{}
	b := NewBuilder(src, nil, nil)
	b.BuildBrief(context.Background(), "", []string{"a crowded platform at dawn"}, nil)

	if len(src.queries) != 1 || src.queries[0] != "a crowded platform at dawn" {
		t.Errorf("expected key image as query, got %v", src.queries)
	}
}

func TestBuildBriefMoodOnlySeedsFromMood(t *testing.T) {
	b := NewBuilder(nil, nil, nil)
	brief := b.BuildBrief(context.Background(), "monsoon melancholy", nil, nil)

	if len(brief.PromptSeeds) != 1 || !strings.HasPrefix(brief.PromptSeeds[0], "monsoon melancholy") {
		t.Errorf("expected mood-derived seed, got %v", brief.PromptSeeds)
	}
}

func TestBuildBriefUnwrapsNestedMoodJSON(t *testing.T) {
	src := &fakeSource{}
	b := NewBuilder(src, nil, nil)

	brief := b.BuildBrief(context.Background(), `{"mood": "sun-bleached dread"}`, nil, nil)

	if !strings.HasPrefix(brief.ArtDirection, "sun-bleached dread") {
		t.Errorf("expected unwrapped mood in art direction, got %q", brief.ArtDirection)
	}
	if len(src.queries) != 1 || src.queries[0] != "sun-bleached dread" {
		t.Errorf("expected search by unwrapped mood, got %v", src.queries)
	}
}

func TestUnwrapMoodLeavesPlainStrings(t *testing.T) {
	cases := []string{"wistful neon", "", "half {open brace"}
	for _, in := range cases {
		if got := unwrapMood(in); got != in {
			t.Errorf("unwrapMood(%q) = %q, expected unchanged", in, got)
		}
	}
}
