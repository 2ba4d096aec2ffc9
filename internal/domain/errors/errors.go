// Package errors implements the closed error-kind taxonomy of spec.md §7.
// Every error that can surface as a Failed cell or in the end-of-plan
// summary is one of these types; nothing else crosses a component
// boundary as a raw exception. The shape (struct + Error() + Unwrap())
// mirrors the teacher's domain.DomainError / ExecutionError pair.
package errors

import (
	"fmt"

	"github.com/sentimentomatic/engine/internal/domain"
)

// PipelineError is the base error type for failures surfaced by the
// analysis pipeline. Kind is always one of the domain.ErrorKind constants.
type PipelineError struct {
	Kind      domain.ErrorKind
	Component string
	Message   string
	Retryable bool
	Cause     error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s[%s]: %s: %v", e.Component, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Component, e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// New constructs a PipelineError.
func New(component string, kind domain.ErrorKind, message string, cause error, retryable bool) *PipelineError {
	return &PipelineError{
		Kind:      kind,
		Component: component,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// ArtifactNotFound reports a 4xx response for a required remote file.
func ArtifactNotFound(url string) *PipelineError {
	return New("artifactstore", domain.ErrArtifactNotFound, "remote returned 4xx for "+url, nil, false)
}

// ArtifactFetchFailed reports a retryable network or 5xx failure.
func ArtifactFetchFailed(url string, cause error) *PipelineError {
	return New("artifactstore", domain.ErrArtifactFetchFailed, "fetch failed for "+url, cause, true)
}

// CacheUnsupported reports that the local store is unavailable; callers
// should degrade to network-only operation, never treat this as fatal.
func CacheUnsupported(reason string, cause error) *PipelineError {
	return New("artifactstore", domain.ErrCacheUnsupported, reason, cause, false)
}

// CachePersistenceFailed reports a write failure against the local store.
func CachePersistenceFailed(reason string, cause error) *PipelineError {
	return New("artifactstore", domain.ErrCachePersistenceFailed, reason, cause, false)
}

// ArtifactLayoutUnresolvable reports that no known layout profile produces
// existing files for a model.
func ArtifactLayoutUnresolvable(ref domain.ArtifactRef) *PipelineError {
	return New("neuralloader", domain.ErrArtifactLayoutUnresolvable, "no layout profile resolved for "+string(ref), nil, false)
}

// WeightLoadFailed reports that the runtime rejected both the quantized
// and full-precision weight files.
func WeightLoadFailed(ref domain.ArtifactRef, cause error) *PipelineError {
	return New("neuralloader", domain.ErrWeightLoadFailed, "weight load failed for "+string(ref), cause, false)
}

// HostAlreadyRunning reports a start() call on a live host.
func HostAlreadyRunning() *PipelineError {
	return New("inferencehost", domain.ErrHostAlreadyRunning, "host is already running", nil, false)
}

// HostTerminated reports an operation attempted after terminate().
func HostTerminated() *PipelineError {
	return New("inferencehost", domain.ErrHostTerminated, "host has been terminated", nil, false)
}

// HostUnavailable reports that a host-fatal error has failed the column.
func HostUnavailable(cause error) *PipelineError {
	return New("inferencehost", domain.ErrHostUnavailable, "host is unavailable", cause, false)
}

// InferenceError reports a per-call inference failure.
func InferenceError(cause error) *PipelineError {
	return New("inferencehost", domain.ErrInferenceError, "inference call failed", cause, true)
}

// Timeout reports that an infer call exceeded its wall-clock budget.
func Timeout() *PipelineError {
	return New("inferencehost", domain.ErrTimeout, "inference call timed out", nil, false)
}

// Cancelled reports cooperative cancellation.
func Cancelled() *PipelineError {
	return New("pipeline", domain.ErrCancelled, "plan cancelled", nil, false)
}

// ModelLoadFailed reports a loadModel failure that fails an entire column.
func ModelLoadFailed(ref domain.ArtifactRef, cause error) *PipelineError {
	return New("pipeline", domain.ErrModelLoadFailed, "model load failed for "+string(ref), cause, false)
}

// KindOf extracts the ErrorKind from err if it (or something it wraps) is
// a *PipelineError, defaulting to InferenceError for unrecognized errors.
func KindOf(err error) domain.ErrorKind {
	var pe *PipelineError
	if asPipelineError(err, &pe) {
		return pe.Kind
	}
	return domain.ErrInferenceError
}

func asPipelineError(err error, target **PipelineError) bool {
	for err != nil {
		if pe, ok := err.(*PipelineError); ok {
			*target = pe
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
