package domain

// InputBatch is an ordered, finite sequence of non-empty lines. Indices are
// stable cell coordinates into the ResultMatrix.
type InputBatch []string

// PlanOptions are the per-plan execution toggles a caller supplies.
type PlanOptions struct {
	// KeepArtifactsResident, when true, leaves the inference host live
	// after its neural column finishes instead of terminating it there.
	// A host serves one model only, so the driver still terminates it when
	// the next neural analyzer starts; no host is reused across neural
	// analyzers. A host still live when the plan ends is not terminated.
	KeepArtifactsResident bool
	// ClassificationExpansion signals the downstream exporter (out of
	// core scope) to expand multi-label/multi-class/moderation cells into
	// one column per label. The core only carries the flag through.
	ClassificationExpansion bool
}

// Plan is the input to the PipelineDriver: the lines to analyze, the
// ordered list of analyzers to run, and execution options.
type Plan struct {
	Batch     InputBatch
	Analyzers []AnalyzerDescriptor
	Options   PlanOptions
}
