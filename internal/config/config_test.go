package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sentimentomatic/engine/internal/chunker"
)

func TestDefaultProducesUsableConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, chunker.AggregateLogitMean, cfg.DefaultAggregation)
	assert.Greater(t, cfg.ChunkMaxChars, 0)
	assert.Greater(t, cfg.ChunkOverlapRatio, 0.0)
	assert.Less(t, cfg.ChunkOverlapRatio, 1.0)
	assert.Greater(t, cfg.ChunkMaxCount, 0)
	assert.NotEmpty(t, cfg.MemoryPressureExpr)
	assert.Greater(t, cfg.InferTimeoutMillis, int64(0))
	assert.Empty(t, cfg.OpenAIAPIKey, "no API key should be assumed present by default")
}
