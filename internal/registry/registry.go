// Package registry holds the static, compile-time-known table of analyzer
// descriptors. Adding a new analyzer is a pure data change here (plus, if
// needed, a new layout profile entry in neuralloader). Grounded on the
// teacher's internal/node.Registry: an RWMutex-guarded map with
// GetByID/ListAll, generalized from dynamically-registered nodes to a
// fixed literal table since analyzers are known ahead of time.
package registry

import (
	"sync"

	"github.com/sentimentomatic/engine/internal/domain"
)

// defaultDescriptors is the built-in analyzer table. Rule analyzers carry
// no artifact; neural analyzers name a HuggingFace-style owner/name ref and
// the layout profile needed to locate their files.
var defaultDescriptors = []domain.AnalyzerDescriptor{
	{
		ID:          "vader",
		DisplayName: "VADER (compound)",
		Kind:        domain.AnalyzerKindRule,
		Task:        domain.TaskSentiment,
	},
	{
		ID:          "afinn",
		DisplayName: "AFINN (lexicon sum)",
		Kind:        domain.AnalyzerKindRule,
		Task:        domain.TaskSentiment,
	},
	{
		ID:                    "sentiment-distilbert",
		DisplayName:           "DistilBERT SST-2 sentiment",
		Kind:                  domain.AnalyzerKindNeural,
		Task:                  domain.TaskSentiment,
		Artifact:              "Xenova/distilbert-base-uncased-finetuned-sst-2-english",
		EstimatedArtifactBytes: 67 * 1024 * 1024,
		LayoutProfile:          domain.LayoutStandardOnnxSubfolder,
		Labels:                 []string{"NEGATIVE", "POSITIVE"},
	},
	{
		ID:                    "goemotions",
		DisplayName:           "GoEmotions (28-way multi-label)",
		Kind:                  domain.AnalyzerKindNeural,
		Task:                  domain.TaskClassification,
		Artifact:              "SamLowe/roberta-base-go_emotions-onnx",
		EstimatedArtifactBytes: 499 * 1024 * 1024,
		LayoutProfile:          domain.LayoutStandardOnnxSubfolder,
		MultiLabelHead:         true,
		Labels: []string{
			"admiration", "amusement", "anger", "annoyance", "approval",
			"caring", "confusion", "curiosity", "desire", "disappointment",
			"disapproval", "disgust", "embarrassment", "excitement", "fear",
			"gratitude", "grief", "joy", "love", "nervousness", "optimism",
			"pride", "realization", "relief", "remorse", "sadness",
			"surprise", "neutral",
		},
	},
	{
		ID:                    "toxic-bert",
		DisplayName:           "Toxic-BERT (multi-label toxicity)",
		Kind:                  domain.AnalyzerKindNeural,
		Task:                  domain.TaskClassification,
		Artifact:              "Xenova/toxic-bert",
		EstimatedArtifactBytes: 267 * 1024 * 1024,
		LayoutProfile:          domain.LayoutStandardOnnxSubfolder,
		MultiLabelHead:         true,
		Labels:                 []string{"toxic", "severe_toxic", "obscene", "threat", "insult", "identity_hate"},
	},
	{
		ID:                    "moderation",
		DisplayName:           "Moderation (short-code)",
		Kind:                  domain.AnalyzerKindNeural,
		Task:                  domain.TaskClassification,
		Artifact:              "openai/text-moderation",
		EstimatedArtifactBytes: 0,
		LayoutProfile:          domain.LayoutRemoteOpenAI,
	},
	{
		ID:                    "langid",
		DisplayName:           "Language identification",
		Kind:                  domain.AnalyzerKindNeural,
		Task:                  domain.TaskClassification,
		Artifact:              "Xenova/langdetect",
		EstimatedArtifactBytes: 9 * 1024 * 1024,
		LayoutProfile:          domain.LayoutRootOnnx,
		Labels:                 []string{"en", "es", "fr", "de", "zh", "ja", "pt", "ru", "ar", "hi"},
	},
}

// Registry is an immutable, shareable lookup table over analyzer
// descriptors. The zero value is not usable; construct via New.
type Registry struct {
	mu    sync.RWMutex
	byID  map[domain.AnalyzerID]domain.AnalyzerDescriptor
	order []domain.AnalyzerID
}

// New constructs a Registry pre-populated with the built-in descriptors,
// plus any extras supplied by the caller (later entries win on ID
// collision, matching how a caller would override a built-in).
func New(extra ...domain.AnalyzerDescriptor) *Registry {
	r := &Registry{byID: make(map[domain.AnalyzerID]domain.AnalyzerDescriptor)}
	for _, d := range defaultDescriptors {
		r.add(d)
	}
	for _, d := range extra {
		r.add(d)
	}
	return r
}

func (r *Registry) add(d domain.AnalyzerDescriptor) {
	if _, exists := r.byID[d.ID]; !exists {
		r.order = append(r.order, d.ID)
	}
	r.byID[d.ID] = d
}

// List returns all descriptors in registration order.
func (r *Registry) List() []domain.AnalyzerDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.AnalyzerDescriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Get looks up a single descriptor by ID.
func (r *Registry) Get(id domain.AnalyzerID) (domain.AnalyzerDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	return d, ok
}

// EstimateBytes returns the per-model size estimate used for pre-load user
// prompts and for ArtifactStore's estimation mode. Unknown IDs estimate 0.
func (r *Registry) EstimateBytes(id domain.AnalyzerID) int64 {
	d, ok := r.Get(id)
	if !ok {
		return 0
	}
	return d.EstimatedArtifactBytes
}

// EstimateBytesForArtifact returns the size estimate for the descriptor
// whose ArtifactRef equals ref. Used by artifactstore's size-estimation
// mode, which only knows the cache's own ArtifactRef keys, not analyzer
// IDs. Unknown refs estimate 0.
func (r *Registry) EstimateBytesForArtifact(ref domain.ArtifactRef) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if d := r.byID[id]; d.Artifact == ref {
			return d.EstimatedArtifactBytes
		}
	}
	return 0
}
