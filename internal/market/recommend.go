// Package market serves regional content recommendations: which
// genres and platforms are worth targeting for a given region. The
// data is a curated static table, not a model call, so the endpoint
// stays cheap and deterministic.
package market

import (
	"fmt"
	"strings"
)

// Query filters recommendations. All fields are optional; an empty
// region falls back to the Indian market, the product's home turf.
type Query struct {
	Region   string `json:"region,omitempty"`
	Language string `json:"language,omitempty"`
	Genre    string `json:"genre,omitempty"`
}

// Suggestions is the regional guidance returned to callers.
type Suggestions struct {
	Region    string   `json:"region"`
	Genres    []string `json:"genres"`
	Platforms []string `json:"platforms"`
	Notes     []string `json:"notes"`
}

const defaultRegion = "india"

type regionProfile struct {
	Genres    []string
	Platforms []string
	Notes     []string
}

var regionProfiles = map[string]regionProfile{
	"india": {
		Genres:    []string{"Bollywood Drama", "Thriller/Crime", "Romantic Comedy", "Mythological Epic"},
		Platforms: []string{"Disney+ Hotstar", "Prime Video India", "Netflix India", "ZEE5", "JioCinema"},
		Notes:     []string{"Festive season favors family dramas"},
	},
	"global": {
		Genres:    []string{"Thriller/Crime", "Limited Series Drama", "Horror"},
		Platforms: []string{"Netflix", "Prime Video", "Apple TV+", "Max"},
		Notes:     []string{"International buyers favor contained, high-concept stories"},
	},
	"uk": {
		Genres:    []string{"Crime Drama", "Period Drama", "Dark Comedy"},
		Platforms: []string{"BBC iPlayer", "Channel 4", "Netflix", "Sky"},
		Notes:     []string{"Co-production funding favors literary adaptations"},
	},
	"us": {
		Genres:    []string{"Prestige Drama", "Thriller/Crime", "Elevated Horror"},
		Platforms: []string{"Netflix", "Hulu", "Max", "Paramount+"},
		Notes:     []string{"Pilot season matters less than a finished pitch package"},
	},
}

// Recommend returns market guidance for the query. Unknown regions get
// the global profile plus a note saying so; the result is always
// fully populated.
func Recommend(q Query) Suggestions {
	region := strings.ToLower(strings.TrimSpace(q.Region))
	if region == "" {
		region = defaultRegion
	}

	profile, ok := regionProfiles[region]
	var notes []string
	if !ok {
		profile = regionProfiles["global"]
		notes = append(notes, fmt.Sprintf("No trend data for region %q; showing global defaults", region))
	}

	genres := append([]string(nil), profile.Genres...)
	if genre := strings.TrimSpace(q.Genre); genre != "" && !containsFold(genres, genre) {
		genres = append([]string{genre}, genres...)
		notes = append(notes, fmt.Sprintf("Requested genre %q is outside current regional trends", genre))
	}

	notes = append(notes, profile.Notes...)
	if lang := strings.TrimSpace(q.Language); lang != "" {
		notes = append(notes, fmt.Sprintf("Consider a %s-language original with subtitled festival cut", lang))
	}

	return Suggestions{
		Region:    region,
		Genres:    genres,
		Platforms: append([]string(nil), profile.Platforms...),
		Notes:     notes,
	}
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
