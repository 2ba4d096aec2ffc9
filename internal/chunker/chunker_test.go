package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentimentomatic/engine/internal/domain"
)

func TestSplitShortLineIsUnchanged(t *testing.T) {
	s := NewSplitter(200)
	windows := s.Split("A short line.")
	require.Len(t, windows, 1)
	assert.Equal(t, "A short line.", windows[0])
}

func TestSplitLongLineProducesMultipleWindows(t *testing.T) {
	s := NewSplitter(40)
	text := strings.Repeat("This is a sentence. ", 10)
	windows := s.Split(text)
	assert.Greater(t, len(windows), 1)
	for _, w := range windows {
		assert.LessOrEqual(t, len(w), 40+len(" sentence.")) // sentence-snapped, small slack allowed
	}
}

func TestSplitNeverDropsText(t *testing.T) {
	s := NewSplitter(30)
	text := "One. Two. Three. Four. Five. Six. Seven. Eight."
	windows := s.Split(text)
	joined := strings.Join(windows, " ")
	for _, word := range strings.Fields(text) {
		assert.Contains(t, joined, strings.Trim(word, "."))
	}
}

func TestSplitWindowsOverlapByStride(t *testing.T) {
	s := NewSplitterWithOverlap(40, 0.5, 100)
	text := strings.Repeat("a", 100)
	windows := s.Split(text)
	require.Greater(t, len(windows), 1)
	// With no sentence-ending characters to snap to, the second window must
	// start exactly stride=floor(40*0.5)=20 characters into the first.
	assert.Equal(t, text[20:60], windows[1])
}

func TestSplitDefaultParametersMatchDocumentedExample(t *testing.T) {
	// spec's worked example: L=1440, r=0.5 (stride=720) over a 6000-char
	// line with no sentence-ending punctuation yields exactly 8 windows.
	s := NewSplitter(1440)
	text := strings.Repeat("a", 6000)
	windows := s.Split(text)
	assert.Len(t, windows, 8)
}

func TestSplitHardCapsChunkCount(t *testing.T) {
	s := NewSplitterWithOverlap(10, 0.5, 5)
	text := strings.Repeat("a", 10000)
	windows := s.Split(text)
	assert.Len(t, windows, 5)
}

func TestSplitSnapsBackHalfToSentenceEnding(t *testing.T) {
	s := NewSplitterWithOverlap(20, 0.5, 100)
	// "0123456789." (period at index 10, in the back half [10,20)) followed
	// by more filler; the first window should truncate right after the
	// period instead of running to the full 20 chars.
	text := "0123456789." + strings.Repeat("x", 40)
	windows := s.Split(text)
	assert.Equal(t, "0123456789.", windows[0])
}

func TestAggregateSingleWindowIsPassthrough(t *testing.T) {
	pred := domain.RawPrediction{{Label: "positive", Score: 0.9}, {Label: "negative", Score: 0.1}}
	out := Aggregate([]domain.RawPrediction{pred}, AggregateMean)
	assert.Equal(t, pred, out)
}

func TestAggregateMean(t *testing.T) {
	windows := []domain.RawPrediction{
		{{Label: "joy", Score: 0.2}},
		{{Label: "joy", Score: 0.8}},
	}
	out := Aggregate(windows, AggregateMean)
	assert.InDelta(t, 0.5, out[0].Score, 1e-9)
}

func TestAggregateMax(t *testing.T) {
	windows := []domain.RawPrediction{
		{{Label: "joy", Score: 0.2}},
		{{Label: "joy", Score: 0.8}},
		{{Label: "joy", Score: 0.5}},
	}
	out := Aggregate(windows, AggregateMax)
	assert.InDelta(t, 0.8, out[0].Score, 1e-9)
}

func TestAggregateLogitMeanFavorsConfidentWindow(t *testing.T) {
	windows := []domain.RawPrediction{
		{{Label: "toxic", Score: 0.99}},
		{{Label: "toxic", Score: 0.5}},
	}
	out := Aggregate(windows, AggregateLogitMean)
	assert.Greater(t, out[0].Score, (0.99+0.5)/2, "a highly confident window should pull the logit-mean above the plain mean")
}

func TestAggregatePreservesLabelOrder(t *testing.T) {
	windows := []domain.RawPrediction{
		{{Label: "a", Score: 0.1}, {Label: "b", Score: 0.2}},
		{{Label: "a", Score: 0.3}, {Label: "b", Score: 0.4}},
	}
	out := Aggregate(windows, AggregateMean)
	assert.Equal(t, []string{"a", "b"}, out.Labels())
}
