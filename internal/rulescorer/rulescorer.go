// Package rulescorer implements the lexicon-based sentiment analyzers:
// VADER (compound polarity via a pretrained heuristic lexicon) and AFINN
// (unigram valence sum). Both are synchronous, hold no artifact, and never
// touch inferencehost or artifactstore. VADER wiring is grounded on
// Sumatoshi-tech-codefang's internal/analyzers/sentiment.Scorer, which
// wraps a lazily-constructed *govader.SentimentIntensityAnalyzer behind a
// sync.Once and reads scores.Compound off the same PolarityScores call.
package rulescorer

import (
	"strings"
	"sync"

	"github.com/jonreiter/govader"

	"github.com/sentimentomatic/engine/internal/domain"
)

// Scorer produces a RuleScore for one line of text: the analyzer's native
// signed scalar plus the polarity it implies.
type Scorer interface {
	Score(text string) domain.RuleScore
}

// compoundPositiveThreshold / compoundNegativeThreshold are VADER's own
// polarity cutoffs on its compound score.
const (
	compoundPositiveThreshold = 0.05
	compoundNegativeThreshold = -0.05
)

// labels used by both scorers, always emitted in this order so Top()'s
// stable tie-break is deterministic across analyzers.
const (
	labelPositive = "positive"
	labelNegative = "negative"
	labelNeutral  = "neutral"
)

// VaderScorer wraps govader's compound polarity score, split into
// positive/negative/neutral components already provided by PolarityScores.
type VaderScorer struct {
	once     sync.Once
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer constructs a ready-to-use VaderScorer. The underlying
// lexicon is built lazily on first Score call.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{}
}

func (s *VaderScorer) get() *govader.SentimentIntensityAnalyzer {
	s.once.Do(func() {
		s.analyzer = govader.NewSentimentIntensityAnalyzer()
	})
	return s.analyzer
}

// Score returns govader's compound score as DisplayScore, with polarity
// derived from VADER's own compound thresholds (>=0.05 positive, <=-0.05
// negative, else neutral) -- not from an argmax over the pos/neg/neu
// triple, which is carried only as Distribution for display parity. An
// empty or whitespace-only line scores as fully neutral.
func (s *VaderScorer) Score(text string) domain.RuleScore {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.RuleScore{
			Distribution: domain.RawPrediction{
				{Label: labelPositive, Score: 0},
				{Label: labelNegative, Score: 0},
				{Label: labelNeutral, Score: 1},
			},
			DisplayScore: 0,
			Polarity:     domain.PolarityNeutral,
		}
	}

	scores := s.get().PolarityScores(trimmed)
	return domain.RuleScore{
		Distribution: domain.RawPrediction{
			{Label: labelPositive, Score: scores.Positive},
			{Label: labelNegative, Score: scores.Negative},
			{Label: labelNeutral, Score: scores.Neutral},
		},
		DisplayScore: scores.Compound,
		Polarity:     polarityFromCompound(scores.Compound),
	}
}

func polarityFromCompound(compound float64) domain.Polarity {
	switch {
	case compound >= compoundPositiveThreshold:
		return domain.PolarityPositive
	case compound <= compoundNegativeThreshold:
		return domain.PolarityNegative
	default:
		return domain.PolarityNeutral
	}
}

// AfinnScorer sums per-token valences from a fixed lexicon and reports
// AFINN's native comparative score (sum / total token count).
type AfinnScorer struct {
	lexicon map[string]float64
}

// NewAfinnScorer constructs an AfinnScorer over the built-in lexicon.
func NewAfinnScorer() *AfinnScorer {
	return &AfinnScorer{lexicon: defaultAfinnLexicon}
}

// Score tokenizes on whitespace, sums known-word valences (AFINN's native
// -5..5 scale) across every matched word, and reports comparative = sum /
// total token count (AFINN's own normalization, over every token in the
// line, not just the matched ones) as DisplayScore. Polarity is the sign
// of the raw sum, not of comparative, per AFINN's own rule (they agree in
// sign whenever sum != 0, since total token count is always positive).
func (s *AfinnScorer) Score(text string) domain.RuleScore {
	fields := strings.Fields(strings.ToLower(text))
	var sum float64
	var hits int
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()")
		if v, ok := s.lexicon[f]; ok {
			sum += v
			hits++
		}
	}

	total := len(fields)
	if total == 0 || hits == 0 {
		return domain.RuleScore{
			Distribution: domain.RawPrediction{
				{Label: labelPositive, Score: 0},
				{Label: labelNegative, Score: 0},
				{Label: labelNeutral, Score: 1},
			},
			DisplayScore: 0,
			Polarity:     domain.PolarityNeutral,
		}
	}

	comparative := sum / float64(total)

	// The {positive,negative,neutral} distribution is a display-only
	// projection of the mean valence per matched word (sum / hits, scaled
	// by AFINN's maximum of 5), not used to derive polarity: magnitude
	// drives how much mass leaves "neutral", sign drives which of
	// positive/negative receives it.
	avg := sum / float64(hits)
	intensity := avg / 5
	if intensity < 0 {
		intensity = -intensity
	}
	if intensity > 1 {
		intensity = 1
	}
	var pos, neg float64
	if avg >= 0 {
		pos = intensity
	} else {
		neg = intensity
	}
	neutral := 1 - (pos + neg)

	return domain.RuleScore{
		Distribution: domain.RawPrediction{
			{Label: labelPositive, Score: pos},
			{Label: labelNegative, Score: neg},
			{Label: labelNeutral, Score: neutral},
		},
		DisplayScore: comparative,
		Polarity:     polarityFromSum(sum),
	}
}

func polarityFromSum(sum float64) domain.Polarity {
	switch {
	case sum > 0:
		return domain.PolarityPositive
	case sum < 0:
		return domain.PolarityNegative
	default:
		return domain.PolarityNeutral
	}
}
