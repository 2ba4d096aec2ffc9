// Package domain holds the value types shared by every component of the
// analysis pipeline: analyzer descriptors, plans, raw predictions, and the
// cell results that flow through the result matrix.
package domain

// AnalyzerID is an opaque short string identifying an analyzer choice
// (e.g. "vader", "goemotions"). Unique within a single plan.
type AnalyzerID string

// ArtifactRef is a remote model identifier of the form "owner/name". The
// core treats it as opaque except that it is used verbatim as the cache
// key prefix and it selects a layout profile.
type ArtifactRef string

// AnalyzerKind distinguishes synchronous lexicon scorers from neural
// transformer classifiers.
type AnalyzerKind string

const (
	AnalyzerKindRule   AnalyzerKind = "rule"
	AnalyzerKindNeural AnalyzerKind = "neural"
)

// IsValid reports whether k is a recognized analyzer kind.
func (k AnalyzerKind) IsValid() bool {
	switch k {
	case AnalyzerKindRule, AnalyzerKindNeural:
		return true
	default:
		return false
	}
}

// Task is the assumed task hint used to select a runtime pipeline factory.
// Unknown defaults to TaskClassification.
type Task string

const (
	TaskSentiment      Task = "sentiment"
	TaskClassification Task = "classification"
)

// IsValid reports whether t is a recognized task hint.
func (t Task) IsValid() bool {
	switch t {
	case TaskSentiment, TaskClassification:
		return true
	default:
		return false
	}
}

// Family is the semantic class inferred for a neural analyzer's output, or
// synthesized directly for rule analyzers.
type Family string

const (
	FamilySentiment  Family = "sentiment"
	FamilyMultiLabel Family = "multiLabel"
	FamilyMultiClass Family = "multiClass"
	FamilyModeration Family = "moderation"
)

// IsValid reports whether f is a recognized family.
func (f Family) IsValid() bool {
	switch f {
	case FamilySentiment, FamilyMultiLabel, FamilyMultiClass, FamilyModeration:
		return true
	default:
		return false
	}
}

// Polarity is the coarse sentiment outcome.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
	PolarityNeutral  Polarity = "neutral"
)

// LayoutProfile describes how to locate weight and tokenizer files for a
// specific model on the remote host.
type LayoutProfile string

const (
	// LayoutStandardOnnxSubfolder: weights at <ref>/onnx/model_quantized.onnx,
	// fallback <ref>/onnx/model.onnx.
	LayoutStandardOnnxSubfolder LayoutProfile = "standardOnnxSubfolder"
	// LayoutRootOnnx: weights at <ref>/model_quantized.onnx, fallback
	// <ref>/model.onnx.
	LayoutRootOnnx LayoutProfile = "rootOnnx"
	// LayoutNamedRootOnnx: weights at a specific filename at the root.
	LayoutNamedRootOnnx LayoutProfile = "namedRootOnnx"
	// LayoutRemoteOpenAI: no local artifacts; inference is delegated to a
	// hosted OpenAI-compatible moderation/classification endpoint.
	LayoutRemoteOpenAI LayoutProfile = "remoteOpenAI"
)

// IsValid reports whether p is a recognized layout profile.
func (p LayoutProfile) IsValid() bool {
	switch p {
	case LayoutStandardOnnxSubfolder, LayoutRootOnnx, LayoutNamedRootOnnx, LayoutRemoteOpenAI:
		return true
	default:
		return false
	}
}

// WeightCandidates returns p's weight-file candidate paths, most- to
// least-preferred (quantized first, full-precision fallback). Returns nil
// for LayoutRemoteOpenAI, which has no local files to resolve.
func (p LayoutProfile) WeightCandidates() []string {
	switch p {
	case LayoutStandardOnnxSubfolder:
		return []string{"onnx/model_quantized.onnx", "onnx/model.onnx"}
	case LayoutRootOnnx:
		return []string{"model_quantized.onnx", "model.onnx"}
	case LayoutNamedRootOnnx:
		return []string{"model.onnx"}
	default:
		return nil
	}
}

// ConfigCandidates returns p's config-file candidate paths, most- to
// least-preferred. Returns nil for LayoutRemoteOpenAI.
func (p LayoutProfile) ConfigCandidates() []string {
	switch p {
	case LayoutStandardOnnxSubfolder, LayoutRootOnnx, LayoutNamedRootOnnx:
		return []string{"config.json", "tokenizer_config.json"}
	default:
		return nil
	}
}
