package content

import (
	"sort"
	"strings"

	"github.com/shvbsle/survey-sensei/internal/models"
)

// AllTones is the hard-coded set of tone labels a candidate review may carry.
var AllTones = map[string]bool{
	"enthusiastic":   true,
	"warm":           true,
	"balanced":       true,
	"matter-of-fact": true,
	"wry":            true,
	"disappointed":   true,
	"critical":       true,
}

// defaultToneForBand maps each sentiment band to the tone used when the model
// returns an unknown label.
var defaultToneForBand = map[models.SentimentBand]string{
	models.SentimentGood: "enthusiastic",
	models.SentimentOkay: "balanced",
	models.SentimentBad:  "critical",
}

// NormalizeTone lowercases and validates a model-proposed tone label, falling
// back to the band default for anything off the whitelist.
func NormalizeTone(tone string, band models.SentimentBand) string {
	t := strings.TrimSpace(strings.ToLower(tone))
	if AllTones[t] {
		return t
	}
	return defaultToneForBand[band]
}

// toneGuide produces the instruction snippet listing permitted tone labels
// for injection into review-generation prompts.
func toneGuide() string {
	tones := make([]string, 0, len(AllTones))
	for t := range AllTones {
		tones = append(tones, t)
	}
	// Stable order for prompt caching.
	sort.Strings(tones)
	return "Permitted tone labels: " + strings.Join(tones, ", ") + "."
}
