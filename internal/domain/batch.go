package domain

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// sanitizer strips markup from input lines before they ever reach a
// scorer or tokenizer: lines sourced from pasted HTML, scraped pages, or
// rich-text exports should be judged on their text content, not their
// markup. A strict policy (no tags at all survive) is correct here since
// analyzers consume the output as plain text, never render it.
var sanitizer = bluemonday.StrictPolicy()

// NewInputBatch builds an InputBatch from raw lines, stripping HTML markup
// and discarding lines that are empty once sanitized and trimmed. Line
// indices in the returned batch are therefore not guaranteed to match
// indices in the original slice; callers that need to correlate results
// back to a source line should track that mapping themselves before
// calling NewInputBatch.
func NewInputBatch(lines []string) InputBatch {
	out := make(InputBatch, 0, len(lines))
	for _, line := range lines {
		clean := strings.TrimSpace(sanitizer.Sanitize(line))
		if clean == "" {
			continue
		}
		out = append(out, clean)
	}
	return out
}
