// Package chunker splits long input lines into overlapping fixed-size
// windows and aggregates the resulting per-window predictions back into a
// single RawPrediction per line. A window's back half is snapped to the
// nearest sentence-ending character so a window rarely bisects a sentence,
// found by a plain scan for '.', '?', '!' or newline (no sentence
// segmentation library is used). There is no full reference
// implementation to imitate line-for-line, so the windowing loop below is
// original, built directly against the sliding-window/stride/hard-cap
// parameters the core documents.
package chunker

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sentimentomatic/engine/internal/domain"
)

// sentenceEndings are the boundary characters a window's back half is
// snapped to, per the core's documented chunking rule.
var sentenceEndings = []rune{'.', '?', '!', '\n'}

// AggregationMode selects how per-window predictions recombine into one
// line-level RawPrediction.
type AggregationMode string

const (
	// AggregateMean averages raw scores across windows.
	AggregateMean AggregationMode = "mean"
	// AggregateMax takes the highest score seen for each label across windows.
	AggregateMax AggregationMode = "max"
	// AggregateLogitMean averages in logit space and maps back through a
	// sigmoid, which weights confident windows more heavily than a plain
	// mean and avoids a single near-0/near-1 window being diluted away.
	AggregateLogitMean AggregationMode = "logitMean"
)

// defaultMaxChunks hard-caps window count for a Splitter constructed via
// NewSplitter (no explicit cap given), guarding pathological inputs.
const defaultMaxChunks = 100

// Splitter breaks a line of text into overlapping fixed-size windows (the
// spec's L/r/stride sliding-window rule), snapping a window's end to a
// sentence-ending character where one occurs in the window's back half.
type Splitter struct {
	maxChars  int
	stride    int
	maxChunks int
}

// NewSplitter constructs a Splitter with the given maximum window size in
// characters (L), the default overlap ratio (r=0.5), and the default hard
// cap on chunk count. maxChars must be positive; callers size it to the
// neural model's token budget times an average chars-per-token estimate.
func NewSplitter(maxChars int) *Splitter {
	return NewSplitterWithOverlap(maxChars, 0.5, defaultMaxChunks)
}

// NewSplitterWithOverlap constructs a Splitter with an explicit overlap
// ratio and chunk-count cap, matching config.Config's ChunkOverlapRatio
// and ChunkMaxCount.
func NewSplitterWithOverlap(maxChars int, overlapRatio float64, maxChunks int) *Splitter {
	stride := int(float64(maxChars) * (1 - overlapRatio))
	if stride < 1 {
		stride = 1
	}
	if maxChunks < 1 {
		maxChunks = defaultMaxChunks
	}
	return &Splitter{maxChars: maxChars, stride: stride, maxChunks: maxChunks}
}

// Split divides text into overlapping windows of at most maxChars,
// advancing by stride = floor(maxChars*(1-r)) between window starts. A
// line no longer than maxChars returns a single window unchanged. Every
// window but the last is snapped backward to the nearest sentence-ending
// character in its back half, if one exists, so a window rarely bisects a
// sentence. Splitting stops once a window reaches the end of text, or
// once maxChunks windows have been produced (whichever comes first) —
// the cap bounds a single pathological line's inference cost, it is not
// expected to bind on realistic input.
func (s *Splitter) Split(text string) []string {
	if len(text) <= s.maxChars {
		return []string{text}
	}

	var windows []string
	start := 0
	for {
		end := start + s.maxChars
		last := end >= len(text)
		if last {
			end = len(text)
		} else {
			end = snapToSentenceEnd(text, start, end)
		}

		windows = append(windows, text[start:end])
		if last || len(windows) >= s.maxChunks {
			break
		}
		start += s.stride
	}
	return windows
}

// snapToSentenceEnd looks for the last sentence-ending character in the
// back half of text[start:end) and, if found, truncates the window to end
// just after it. Returns end unchanged if no such character exists.
func snapToSentenceEnd(text string, start, end int) int {
	backHalfStart := start + (end-start)/2
	for i := end - 1; i >= backHalfStart; i-- {
		for _, r := range sentenceEndings {
			if rune(text[i]) == r {
				return i + 1
			}
		}
	}
	return end
}

// Aggregate combines one RawPrediction per window into a single
// line-level RawPrediction using mode. All windows must carry the same
// label set in the same order, which holds since they all come from one
// analyzer's output on the same line. Aggregate panics if windows is empty;
// callers always have at least one window (Split never returns zero
// windows for non-empty text).
func Aggregate(windows []domain.RawPrediction, mode AggregationMode) domain.RawPrediction {
	if len(windows) == 1 {
		return windows[0]
	}

	labels := windows[0].Labels()
	out := make(domain.RawPrediction, len(labels))
	for i, label := range labels {
		scores := make([]float64, len(windows))
		for w, pred := range windows {
			scores[w] = pred[i].Score
		}
		out[i] = domain.LabelScore{Label: label, Score: combine(scores, mode)}
	}
	return out
}

func combine(scores []float64, mode AggregationMode) float64 {
	switch mode {
	case AggregateMax:
		max := scores[0]
		for _, s := range scores[1:] {
			if s > max {
				max = s
			}
		}
		return max
	case AggregateLogitMean:
		logits := make([]float64, len(scores))
		for i, s := range scores {
			logits[i] = logit(s)
		}
		return sigmoid(stat.Mean(logits, nil))
	default: // AggregateMean
		return stat.Mean(scores, nil)
	}
}

// clampEpsilon keeps logit() finite at the [0,1] boundary.
const clampEpsilon = 1e-6

func logit(p float64) float64 {
	if p < clampEpsilon {
		p = clampEpsilon
	}
	if p > 1-clampEpsilon {
		p = 1 - clampEpsilon
	}
	return math.Log(p / (1 - p))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
