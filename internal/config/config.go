// Package config holds the plain configuration record a caller builds and
// hands to the pipeline driver at construction time. The core never reads
// environment variables, flags, or files itself -- that is cmd/sentimentomatic's
// job, via cobra+viper -- matching the teacher's EngineConfig /
// internal/config.Config pattern of a config struct passed in, not pulled in.
package config

import "github.com/sentimentomatic/engine/internal/chunker"

// Config is the full set of knobs a PipelineDriver needs beyond the Plan
// itself.
type Config struct {
	// RemoteHost records the artifact host, e.g. "https://huggingface.co".
	// The driver does not pass it on: neuralloader builds every artifact
	// URL on a fixed "https://huggingface.co" base, whatever this field
	// holds.
	RemoteHost string

	// OpenAIAPIKey authorizes the RemoteOpenAILoader path for
	// LayoutRemoteOpenAI analyzers. Empty disables that path; a plan that
	// includes such an analyzer without a key fails that analyzer's column.
	OpenAIAPIKey string

	// DatabaseDSN selects the artifactstore backend: a non-empty DSN uses
	// BunStore (Postgres-backed persistent cache); empty uses MemoryStore.
	DatabaseDSN string

	// DefaultAggregation is the chunk-aggregation method used when a plan
	// does not specify one.
	DefaultAggregation chunker.AggregationMode

	// ChunkMaxChars bounds a single inference window in characters (L in
	// spec terms, default 1440).
	ChunkMaxChars int

	// ChunkOverlapRatio (r in spec terms, default 0.5) is the fraction of
	// one window that re-appears at the start of the next; stride =
	// floor(ChunkMaxChars * (1 - ChunkOverlapRatio)).
	ChunkOverlapRatio float64

	// ChunkMaxCount hard-caps the number of windows a single line can be
	// split into, guarding against pathological inputs.
	ChunkMaxCount int

	// MemoryPressureExpr is a boolean expr-lang/expr expression evaluated
	// over {rss_bytes, host_count} between two consecutive neural analyzers
	// run under KeepArtifactsResident; a true result forces a host
	// termination before the next analyzer starts.
	MemoryPressureExpr string

	// InferTimeoutMillis bounds a single neural infer call, in
	// milliseconds; zero disables the timeout.
	InferTimeoutMillis int64
}

// Default returns a Config with the core's documented defaults: 1440-char
// chunk windows, logitMean aggregation, and a conservative memory-pressure
// expression matching spec.md's "soft threshold" guidance.
func Default() Config {
	return Config{
		RemoteHost:         "https://huggingface.co",
		DefaultAggregation: chunker.AggregateLogitMean,
		ChunkMaxChars:      1440,
		ChunkOverlapRatio:  0.5,
		ChunkMaxCount:      100,
		MemoryPressureExpr: "rss_bytes > 1500000000 && host_count >= 1",
		InferTimeoutMillis: 30000,
	}
}
