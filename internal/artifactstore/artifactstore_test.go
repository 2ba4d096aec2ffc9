package artifactstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentimentomatic/engine/internal/domain"
	"github.com/sentimentomatic/engine/internal/registry"
)

type fakeFetcher struct {
	calls   int
	content map[string][]byte
	err     error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.content[url], nil
}

func TestMemoryStoreFetchCachesAfterFirstMiss(t *testing.T) {
	fetcher := &fakeFetcher{content: map[string][]byte{"https://example/onnx/model.onnx": []byte("weights")}}
	store := NewMemoryStore(fetcher)
	ctx := context.Background()
	ref := domain.ArtifactRef("Xenova/distilbert")

	data, err := store.Fetch(ctx, ref, "onnx/model.onnx", "https://example/onnx/model.onnx")
	require.NoError(t, err)
	assert.Equal(t, []byte("weights"), data)
	assert.Equal(t, 1, fetcher.calls)

	data, err = store.Fetch(ctx, ref, "onnx/model.onnx", "https://example/onnx/model.onnx")
	require.NoError(t, err)
	assert.Equal(t, []byte("weights"), data)
	assert.Equal(t, 1, fetcher.calls, "second fetch should hit the cache, not the network")
}

func TestMemoryStoreHasAndBatchPresence(t *testing.T) {
	fetcher := &fakeFetcher{content: map[string][]byte{"u1": []byte("a")}}
	store := NewMemoryStore(fetcher)
	ctx := context.Background()
	ref := domain.ArtifactRef("owner/model")

	ok, err := store.Has(ctx, ref, "onnx/model.onnx")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Fetch(ctx, ref, "onnx/model.onnx", "u1")
	require.NoError(t, err)

	presence, err := store.BatchPresence(ctx, ref, []string{"onnx/model.onnx", "tokenizer.json"})
	require.NoError(t, err)
	assert.True(t, presence["onnx/model.onnx"])
	assert.False(t, presence["tokenizer.json"])
}

func TestMemoryStoreSizeAndEvict(t *testing.T) {
	fetcher := &fakeFetcher{content: map[string][]byte{
		"u1": []byte("12345"),
		"u2": []byte("67"),
	}}
	store := NewMemoryStore(fetcher)
	ctx := context.Background()
	ref := domain.ArtifactRef("owner/model")

	_, err := store.Fetch(ctx, ref, "onnx/model.onnx", "u1")
	require.NoError(t, err)
	_, err = store.Fetch(ctx, ref, "tokenizer.json", "u2")
	require.NoError(t, err)

	size, err := store.Size(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, int64(7), size)

	require.NoError(t, store.Evict(ctx, ref))
	size, err = store.Size(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)
}

func TestMemoryStoreClearAll(t *testing.T) {
	fetcher := &fakeFetcher{content: map[string][]byte{"u1": []byte("x")}}
	store := NewMemoryStore(fetcher)
	ctx := context.Background()
	ref := domain.ArtifactRef("owner/model")

	_, err := store.Fetch(ctx, ref, "onnx/model.onnx", "u1")
	require.NoError(t, err)

	require.NoError(t, store.ClearAll(ctx))
	ok, err := store.Has(ctx, ref, "onnx/model.onnx")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStorePropagatesFetchError(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("network down")}
	store := NewMemoryStore(fetcher)
	ctx := context.Background()
	ref := domain.ArtifactRef("owner/model")

	_, err := store.Fetch(ctx, ref, "onnx/model.onnx", "u1")
	assert.Error(t, err)
}

func TestMemoryStoreIsolatesDifferentRefs(t *testing.T) {
	fetcher := &fakeFetcher{content: map[string][]byte{"u1": []byte("a"), "u2": []byte("b")}}
	store := NewMemoryStore(fetcher)
	ctx := context.Background()

	_, err := store.Fetch(ctx, "owner/model-a", "onnx/model.onnx", "u1")
	require.NoError(t, err)
	_, err = store.Fetch(ctx, "owner/model-b", "onnx/model.onnx", "u2")
	require.NoError(t, err)

	ok, err := store.Has(ctx, "owner/model-a", "onnx/model.onnx")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Evict(ctx, "owner/model-a"))
	ok, err = store.Has(ctx, "owner/model-a", "onnx/model.onnx")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = store.Has(ctx, "owner/model-b", "onnx/model.onnx")
	require.NoError(t, err)
	assert.True(t, ok, "evicting one ref must not affect another")
}

func TestMemoryStoreModelCachedRequiresBothConfigAndWeights(t *testing.T) {
	fetcher := &fakeFetcher{content: map[string][]byte{"u1": []byte("c"), "u2": []byte("w")}}
	store := NewMemoryStore(fetcher)
	ctx := context.Background()
	ref := domain.ArtifactRef("owner/model")
	profile := domain.LayoutRootOnnx

	cached, hasConfig, hasWeights, err := store.ModelCached(ctx, ref, profile)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.False(t, hasConfig)
	assert.False(t, hasWeights)

	_, err = store.Fetch(ctx, ref, "config.json", "u1")
	require.NoError(t, err)

	cached, hasConfig, hasWeights, err = store.ModelCached(ctx, ref, profile)
	require.NoError(t, err)
	assert.False(t, cached, "config alone must not count as cached")
	assert.True(t, hasConfig)
	assert.False(t, hasWeights)

	_, err = store.Fetch(ctx, ref, "model_quantized.onnx", "u2")
	require.NoError(t, err)

	cached, hasConfig, hasWeights, err = store.ModelCached(ctx, ref, profile)
	require.NoError(t, err)
	assert.True(t, cached, "config and weights together must count as cached")
	assert.True(t, hasConfig)
	assert.True(t, hasWeights)
}

func TestMemoryStoreModelCachedWeightsAloneIsNotCached(t *testing.T) {
	fetcher := &fakeFetcher{content: map[string][]byte{"u1": []byte("w")}}
	store := NewMemoryStore(fetcher)
	ctx := context.Background()
	ref := domain.ArtifactRef("owner/model")
	profile := domain.LayoutRootOnnx

	_, err := store.Fetch(ctx, ref, "model.onnx", "u1")
	require.NoError(t, err)

	cached, hasConfig, hasWeights, err := store.ModelCached(ctx, ref, profile)
	require.NoError(t, err)
	assert.False(t, cached, "weights alone must not count as cached")
	assert.False(t, hasConfig)
	assert.True(t, hasWeights)
}

func TestMemoryStoreTotalSizeExactSumBelowThreshold(t *testing.T) {
	fetcher := &fakeFetcher{content: map[string][]byte{"u1": []byte("12345"), "u2": []byte("67")}}
	store := NewMemoryStore(fetcher)
	ctx := context.Background()

	_, err := store.Fetch(ctx, "owner/model-a", "onnx/model.onnx", "u1")
	require.NoError(t, err)
	_, err = store.Fetch(ctx, "owner/model-b", "onnx/model.onnx", "u2")
	require.NoError(t, err)

	report, err := store.TotalSize(ctx, registry.New())
	require.NoError(t, err)
	assert.Equal(t, int64(7), report.Bytes)
	assert.False(t, report.Estimated)
}

func TestMemoryStoreTotalSizeEstimatesAboveThreshold(t *testing.T) {
	fetcher := &fakeFetcher{content: map[string][]byte{}}
	store := NewMemoryStore(fetcher)
	ctx := context.Background()
	reg := registry.New()

	for i := 0; i < estimateThreshold+1; i++ {
		ref := domain.ArtifactRef(fmt.Sprintf("Xenova/distilbert-base-uncased-finetuned-sst-2-english-%d", i))
		store.blobs[key(ref, "onnx/model.onnx")] = []byte("x")
	}
	// One entry uses the registry's real ref so the estimate picks up its
	// EstimatedArtifactBytes instead of summing zero for every distinct ref.
	store.blobs[key("Xenova/distilbert-base-uncased-finetuned-sst-2-english", "onnx/model.onnx")] = []byte("y")

	report, err := store.TotalSize(ctx, reg)
	require.NoError(t, err)
	assert.True(t, report.Estimated)
	assert.Equal(t, reg.EstimateBytes("sentiment-distilbert"), report.Bytes)
}
