package artifactstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	pipelineerrors "github.com/sentimentomatic/engine/internal/domain/errors"
)

// HTTPFetcher retrieves artifact bytes over plain HTTP GET, grounded on the
// teacher's HTTPCallbackObserver client setup (a single *http.Client with a
// fixed timeout, no retry logic of its own -- ArtifactFetchFailed is marked
// retryable and it is the caller's job to retry).
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher constructs a fetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch issues a GET request for url and returns the response body.
// A 4xx status is reported as ArtifactNotFound (non-retryable); anything
// else unsuccessful is ArtifactFetchFailed (retryable).
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pipelineerrors.ArtifactFetchFailed(url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, pipelineerrors.ArtifactFetchFailed(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, pipelineerrors.ArtifactNotFound(url)
	}
	if resp.StatusCode >= 300 {
		return nil, pipelineerrors.ArtifactFetchFailed(url, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pipelineerrors.ArtifactFetchFailed(url, err)
	}
	return data, nil
}
