package rulescorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentimentomatic/engine/internal/domain"
)

func TestVaderScorerPositiveLine(t *testing.T) {
	s := NewVaderScorer()
	rs := s.Score("This is absolutely wonderful and amazing!")
	assert.Equal(t, domain.PolarityPositive, rs.Polarity)
	assert.Greater(t, rs.DisplayScore, compoundPositiveThreshold)
}

func TestVaderScorerNegativeLine(t *testing.T) {
	s := NewVaderScorer()
	rs := s.Score("This is a horrible, terrible disaster.")
	assert.Equal(t, domain.PolarityNegative, rs.Polarity)
	assert.Less(t, rs.DisplayScore, compoundNegativeThreshold)
}

func TestVaderScorerEmptyLineIsNeutral(t *testing.T) {
	s := NewVaderScorer()
	rs := s.Score("   ")
	assert.Equal(t, domain.PolarityNeutral, rs.Polarity)
	assert.Equal(t, float64(0), rs.DisplayScore)
	assert.Equal(t, 3, len(rs.Distribution))
}

func TestVaderScorerReusesAnalyzer(t *testing.T) {
	s := NewVaderScorer()
	first := s.get()
	second := s.get()
	assert.Same(t, first, second)
}

func TestAfinnScorerPositiveLine(t *testing.T) {
	s := NewAfinnScorer()
	rs := s.Score("This is an amazing and wonderful success")
	assert.Equal(t, domain.PolarityPositive, rs.Polarity)
	assert.Greater(t, rs.DisplayScore, 0.0)
	require.Len(t, rs.Distribution, 3)
}

func TestAfinnScorerNegativeLine(t *testing.T) {
	s := NewAfinnScorer()
	rs := s.Score("a terrible disaster, everything is broken and bad")
	assert.Equal(t, domain.PolarityNegative, rs.Polarity)
	assert.Less(t, rs.DisplayScore, 0.0)
}

func TestAfinnScorerNoKnownWordsIsNeutral(t *testing.T) {
	s := NewAfinnScorer()
	rs := s.Score("xyzzy plugh qux")
	assert.Equal(t, domain.PolarityNeutral, rs.Polarity)
	assert.Equal(t, float64(0), rs.DisplayScore)
}

func TestAfinnScorerComparativeDividesByTotalTokenCount(t *testing.T) {
	s := NewAfinnScorer()
	// "good" (+3) and "fine" (+1) are the only known words among 4 tokens;
	// comparative divides by the full token count (4/4), not just the
	// matched word count (which would give 4/2).
	rs := s.Score("good but also fine")
	assert.InDelta(t, (3.0+1.0)/4.0, rs.DisplayScore, 1e-9)
}

func TestAfinnScorerMixedLineDistributionStaysBounded(t *testing.T) {
	s := NewAfinnScorer()
	rs := s.Score("good but also bad and terrible, yet somehow lovely")
	for _, e := range rs.Distribution {
		assert.GreaterOrEqual(t, e.Score, 0.0)
		assert.LessOrEqual(t, e.Score, 1.0)
	}
}
