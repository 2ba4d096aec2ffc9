package inferencehost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeAddsClsAndSepAndPads(t *testing.T) {
	inputIDs, attentionMask := tokenize("hello world")
	require.Len(t, inputIDs, maxSequenceTokens)
	require.Len(t, attentionMask, maxSequenceTokens)

	assert.Equal(t, clsID, inputIDs[0])
	assert.Equal(t, sepID, inputIDs[3])
	for i := 4; i < maxSequenceTokens; i++ {
		assert.Equal(t, padID, inputIDs[i])
		assert.Equal(t, int64(0), attentionMask[i])
	}
	for i := 0; i < 4; i++ {
		assert.Equal(t, int64(1), attentionMask[i])
	}
}

func TestTokenizeIsDeterministic(t *testing.T) {
	a, maskA := tokenize("the quick brown fox")
	b, maskB := tokenize("the quick brown fox")
	assert.Equal(t, a, b)
	assert.Equal(t, maskA, maskB)
}

func TestTokenizeTruncatesLongInput(t *testing.T) {
	words := ""
	for i := 0; i < maxSequenceTokens*2; i++ {
		words += "word "
	}
	inputIDs, _ := tokenize(words)
	require.Len(t, inputIDs, maxSequenceTokens)
	assert.Equal(t, sepID, inputIDs[maxSequenceTokens-1])
}

func TestHashTokenStaysInVocabRange(t *testing.T) {
	for _, tok := range []string{"great", "terrible", "a", "supercalifragilisticexpialidocious"} {
		h := hashToken(tok)
		assert.GreaterOrEqual(t, h, int64(4))
		assert.Less(t, h, hashedVocabSize)
	}
}

func TestDecodeLogitsSoftmaxSumsToOne(t *testing.T) {
	pred := decodeLogits([]float32{2.0, 0.5}, []string{"NEGATIVE", "POSITIVE"}, false)
	require.Len(t, pred, 2)
	sum := pred[0].Score + pred[1].Score
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.Greater(t, pred[0].Score, pred[1].Score)
}

func TestDecodeLogitsMultiLabelIndependentSigmoids(t *testing.T) {
	labels := []string{"toxic", "threat", "insult"}
	pred := decodeLogits([]float32{5.0, -5.0, 0.0}, labels, true)
	require.Len(t, pred, 3)
	assert.Greater(t, pred[0].Score, 0.9)
	assert.Less(t, pred[1].Score, 0.1)
	assert.InDelta(t, 0.5, pred[2].Score, 1e-6)

	// Independent sigmoids need not sum to one, unlike softmax.
	sum := pred[0].Score + pred[1].Score + pred[2].Score
	assert.NotInDelta(t, 1.0, sum, 0.2)
}
