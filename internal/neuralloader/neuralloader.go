// Package neuralloader resolves a neural AnalyzerDescriptor's LayoutProfile
// into concrete file paths and URLs, fetches those files through an
// artifactstore.Store, and hands back ready-to-load weight bytes. It also
// hosts RemoteOpenAILoader, which skips local weights entirely and
// delegates to a hosted endpoint. ONNX session construction itself lives in
// inferencehost; this package only resolves "where are the bytes".
//
// Layout resolution is grounded on the retrieved ONNX provider examples
// (fsvxavier-nexs-mcp's ONNXBERTProvider, SkyClf's ORTPredictor): both
// locate a weights file relative to a model directory and fall back to an
// alternate filename when the preferred one is absent, which is the same
// shape as the quantized/full-precision fallback below.
package neuralloader

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sentimentomatic/engine/internal/artifactstore"
	"github.com/sentimentomatic/engine/internal/domain"
	pipelineerrors "github.com/sentimentomatic/engine/internal/domain/errors"
)

// ResolvedWeights is the outcome of a successful layout resolution: the
// relative path the file was cached/fetched under, and its bytes.
type ResolvedWeights struct {
	Path  string
	Bytes []byte
}

const hfResolveBase = "https://huggingface.co"

// Loader fetches and resolves a neural analyzer's weight file.
type Loader struct {
	store artifactstore.Store
}

// New constructs a Loader backed by the given artifact store.
func New(store artifactstore.Store) *Loader {
	return &Loader{store: store}
}

// Resolve locates and fetches the best available weight file for desc,
// trying each candidate path from most- to least-preferred and returning
// the first one that exists (or can be fetched). Before attempting any
// weight fetch it first requires at least one config-file candidate to
// exist (a HEAD-equivalent existence check): a model with weights but no
// config is not a resolvable layout. Returns ArtifactLayoutUnresolvable if
// desc's profile has no local-file resolution at all (e.g.
// LayoutRemoteOpenAI — callers should route those to RemoteOpenAILoader
// instead) or if no config candidate exists, and WeightLoadFailed if every
// weight candidate fails.
func (l *Loader) Resolve(ctx context.Context, desc domain.AnalyzerDescriptor) (*ResolvedWeights, error) {
	weightPaths := desc.LayoutProfile.WeightCandidates()
	configPaths := desc.LayoutProfile.ConfigCandidates()
	if weightPaths == nil || configPaths == nil {
		return nil, pipelineerrors.ArtifactLayoutUnresolvable(desc.Artifact)
	}

	if !l.configExists(ctx, desc, configPaths) {
		return nil, pipelineerrors.ArtifactLayoutUnresolvable(desc.Artifact)
	}

	var lastErr error
	for _, path := range weightPaths {
		url := fmt.Sprintf("%s/%s/resolve/main/%s", hfResolveBase, desc.Artifact, path)
		data, err := l.store.Fetch(ctx, desc.Artifact, path, url)
		if err == nil {
			return &ResolvedWeights{Path: path, Bytes: data}, nil
		}
		lastErr = err
	}
	return nil, pipelineerrors.WeightLoadFailed(desc.Artifact, lastErr)
}

// configExists reports whether at least one config candidate is already
// cached or can be fetched. A successful fetch is kept in the cache so a
// subsequent load of the same model does not re-request it.
func (l *Loader) configExists(ctx context.Context, desc domain.AnalyzerDescriptor, configPaths []string) bool {
	for _, path := range configPaths {
		url := fmt.Sprintf("%s/%s/resolve/main/%s", hfResolveBase, desc.Artifact, path)
		if _, err := l.store.Fetch(ctx, desc.Artifact, path, url); err == nil {
			return true
		}
	}
	return false
}

// Preload warms the artifact cache for desc without returning the bytes,
// used by a plan's pre-flight pass to surface fetch failures before any
// host is started.
func (l *Loader) Preload(ctx context.Context, desc domain.AnalyzerDescriptor) error {
	_, err := l.Resolve(ctx, desc)
	return err
}

// RemoteOpenAILoader serves LayoutRemoteOpenAI analyzers by delegating
// classification to a hosted OpenAI-compatible moderation endpoint instead
// of a local ONNX session. Its only inference method is Moderate; the
// pipeline driver routes LayoutRemoteOpenAI columns to it explicitly
// instead of through an inferencehost.Host.
type RemoteOpenAILoader struct {
	client *openai.Client
}

// NewRemoteOpenAILoader constructs a loader around an API key. Panics are
// never raised here; a misconfigured key only surfaces on first call, as
// an InferenceError.
func NewRemoteOpenAILoader(apiKey string) *RemoteOpenAILoader {
	return &RemoteOpenAILoader{client: openai.NewClient(apiKey)}
}

// Moderate runs OpenAI's moderation endpoint over a batch of lines,
// returning one RawPrediction per line in input order. Labels are the
// short codes labelremapper.ModerationMap and outputclassifier's
// moderation-family rule both key on (S, H, V, HR, SH, S3, H2, V2), plus a
// synthesized "OK" entry since the endpoint reports category scores, not a
// safety score — OK is taken as one minus the highest category score.
func (l *RemoteOpenAILoader) Moderate(ctx context.Context, lines []string) ([]domain.RawPrediction, error) {
	resp, err := l.client.Moderations(ctx, openai.ModerationRequest{Input: lines})
	if err != nil {
		return nil, pipelineerrors.InferenceError(err)
	}

	out := make([]domain.RawPrediction, len(resp.Results))
	for i, r := range resp.Results {
		pred := domain.RawPrediction{
			{Label: "S", Score: r.CategoryScores.Sexual},
			{Label: "H", Score: r.CategoryScores.Hate},
			{Label: "V", Score: r.CategoryScores.Violence},
			{Label: "HR", Score: r.CategoryScores.Harassment},
			{Label: "SH", Score: r.CategoryScores.SelfHarm},
			{Label: "S3", Score: r.CategoryScores.SexualMinors},
			{Label: "H2", Score: r.CategoryScores.HateThreatening},
			{Label: "V2", Score: r.CategoryScores.ViolenceGraphic},
		}
		top, _ := pred.Top()
		pred = append(pred, domain.LabelScore{Label: "OK", Score: 1 - top.Score})
		out[i] = pred
	}
	return out, nil
}
