// Package outputclassifier assigns a semantic Family to a raw prediction
// and derives the uniform display contract (displayLabel, displayScore,
// polarity) every consumer renders against regardless of which model
// produced the underlying label vocabulary. The six-rule inference table
// is data straight from the specification's family-inference table; there
// is no teacher analogue for "classify an open vocabulary into one of four
// tags" so the decision tree below is original, built as a plain ordered
// chain of predicate functions in the same first-match-wins shape the
// teacher uses for trigger matching (internal/trigger's ordered matcher
// list, generalized from trigger/no-trigger to a four-way family tag).
package outputclassifier

import (
	"strings"

	"github.com/sentimentomatic/engine/internal/domain"
	"github.com/sentimentomatic/engine/internal/labelremapper"
)

// multiActiveThreshold is the score a multi-label class must exceed,
// alongside the top class, to mark a prediction multiActive.
const multiActiveThreshold = 0.10

var emotionVocabulary = map[string]bool{
	"joy": true, "anger": true, "fear": true, "sadness": true, "love": true,
	"surprise": true, "admiration": true, "approval": true, "annoyance": true,
	"gratitude": true, "desire": true, "excitement": true, "optimism": true,
	"pride": true, "relief": true, "amusement": true, "caring": true,
	"disappointment": true, "disapproval": true, "disgust": true,
	"embarrassment": true, "grief": true, "nervousness": true, "remorse": true,
	"confusion": true, "curiosity": true, "realization": true,
}

var toxicitySubstrings = []string{
	"toxic", "severe_toxic", "obscene", "threat", "insult", "identity_hate", "identity_attack",
}

var moderationShortCodes = map[string]bool{
	"S": true, "H": true, "V": true, "HR": true, "SH": true,
	"S3": true, "H2": true, "V2": true, "OK": true,
}

// InferFamily applies the ordered, first-match-wins rule table over a raw
// prediction's label set.
func InferFamily(pred domain.RawPrediction) domain.Family {
	labels := pred.Labels()

	if isSentimentLabelSet(labels) {
		return domain.FamilySentiment
	}
	if anyLabelIn(labels, emotionVocabulary) {
		return domain.FamilyMultiLabel
	}
	if anyLabelHasSubstring(labels, toxicitySubstrings) {
		return domain.FamilyMultiLabel
	}
	if isModerationShortCodeSet(labels) {
		return domain.FamilyModeration
	}
	return domain.FamilyMultiClass
}

func isSentimentLabelSet(labels []string) bool {
	if len(labels) > 3 {
		return false
	}
	for _, l := range labels {
		lower := strings.ToLower(l)
		if strings.Contains(lower, "pos") || strings.Contains(lower, "neg") || lower == "neutral" {
			return true
		}
	}
	return false
}

func anyLabelIn(labels []string, vocab map[string]bool) bool {
	for _, l := range labels {
		if vocab[strings.ToLower(l)] {
			return true
		}
	}
	return false
}

func anyLabelHasSubstring(labels []string, substrings []string) bool {
	for _, l := range labels {
		lower := strings.ToLower(l)
		for _, sub := range substrings {
			if strings.Contains(lower, sub) {
				return true
			}
		}
	}
	return false
}

func isModerationShortCodeSet(labels []string) bool {
	if len(labels) == 0 {
		return false
	}
	for _, l := range labels {
		if !moderationShortCodes[l] {
			return false
		}
	}
	return true
}

// Classify assigns a family to pred and derives the full Ready cell
// contract for analyzerID. pred carries its analyzer's native labels
// un-remapped: family inference (including the moderation short-code
// match) and the moderation polarity rule both key off the raw short
// codes, and ModerationMap is applied here, internally, only to produce
// DisplayLabel.
func Classify(analyzerID domain.AnalyzerID, pred domain.RawPrediction) domain.CellResult {
	family := InferFamily(pred)
	top, _ := pred.Top()

	result := domain.CellResult{
		State:           domain.CellReady,
		AnalyzerID:      analyzerID,
		Family:          family,
		RawDistribution: pred,
		DisplayScore:    top.Score,
	}

	switch family {
	case domain.FamilySentiment:
		polarity := polarityFromLabel(top.Label)
		result.Polarity = &polarity
		result.DisplayLabel = string(polarity)

	case domain.FamilyMultiLabel:
		multiActive := pred.CountAbove(multiActiveThreshold) >= 2
		result.MultiActive = multiActive
		if multiActive {
			result.DisplayLabel = top.Label + "+"
		} else {
			result.DisplayLabel = top.Label
		}

	case domain.FamilyModeration:
		result.DisplayLabel = labelremapper.ModerationMap(top.Label)
		polarity := domain.PolarityNegative
		if top.Label == "OK" {
			polarity = domain.PolarityPositive
		}
		result.Polarity = &polarity

	default: // multiClass
		result.DisplayLabel = top.Label
	}

	return result
}

// ClassifyRule builds the Ready cell contract for a rule (lexicon) analyzer
// directly from its RuleScore, bypassing family inference and the argmax
// polarity derivation Classify uses for neural predictions: a rule
// analyzer's displayScore is its own native signed scalar (VADER's
// compound or AFINN's comparative) and its polarity was already decided by
// the scorer against that analyzer's own thresholds.
func ClassifyRule(analyzerID domain.AnalyzerID, rs domain.RuleScore) domain.CellResult {
	polarity := rs.Polarity
	return domain.CellResult{
		State:           domain.CellReady,
		AnalyzerID:      analyzerID,
		Family:          domain.FamilySentiment,
		RawDistribution: rs.Distribution,
		DisplayScore:    rs.DisplayScore,
		Polarity:        &polarity,
		DisplayLabel:    string(polarity),
	}
}

func polarityFromLabel(label string) domain.Polarity {
	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "pos"):
		return domain.PolarityPositive
	case strings.Contains(lower, "neg"):
		return domain.PolarityNegative
	default:
		return domain.PolarityNeutral
	}
}
