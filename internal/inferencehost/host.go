// Package inferencehost runs a single neural analyzer's ONNX session and
// exposes the Idle -> Starting -> Running -> Terminating -> Terminated
// lifecycle every neural column in the pipeline drives a host through.
// Inference calls are serialized per host by a single mutex (matching the
// retrieved ONNX provider examples), so concurrency for a neural column
// comes from running multiple independent hosts, never from calling one
// host concurrently.
//
// The state-enum-plus-mutex shape is grounded on the teacher's
// executor.CircuitBreaker (CircuitState, setState, RWMutex-guarded
// transitions), generalized from a request-admission gate to a resource
// lifecycle with an irreversible terminal state.
package inferencehost

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/sentimentomatic/engine/internal/domain"
	pipelineerrors "github.com/sentimentomatic/engine/internal/domain/errors"
	"github.com/sentimentomatic/engine/internal/logging"
)

var log = logging.For("inferencehost")

// State is the lifecycle stage of a Host.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateTerminating
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateTerminating:
		return "terminating"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// ioNames describes the input/output tensor names a session expects,
// model-specific and supplied by the caller at start time (BERT-family
// classifiers take input_ids + attention_mask, some also token_type_ids).
type ioNames struct {
	Inputs  []string
	Outputs []string
}

// Host owns one loaded ONNX session; tensors are allocated and destroyed
// per call. A Host serves exactly one AnalyzerDescriptor for its
// lifetime; hosting a different model requires a new Host.
type Host struct {
	mu    sync.Mutex
	state State

	analyzerID domain.AnalyzerID
	session    *ort.DynamicAdvancedSession
	names      ioNames

	terminations int
}

// New constructs an idle host bound to analyzerID. Call Start to load a
// model before Infer.
func New(analyzerID domain.AnalyzerID) *Host {
	return &Host{analyzerID: analyzerID, state: StateIdle}
}

// State returns the host's current lifecycle state.
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Start transitions Idle -> Starting -> Running, loading an ONNX session
// from modelPath with the given input/output tensor names. Returns
// HostAlreadyRunning if called more than once, HostTerminated if the host
// was already torn down.
func (h *Host) Start(_ context.Context, modelPath string, inputNames, outputNames []string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case StateTerminated:
		return pipelineerrors.HostTerminated()
	case StateRunning, StateStarting:
		return pipelineerrors.HostAlreadyRunning()
	}

	h.state = StateStarting

	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			h.state = StateIdle
			return pipelineerrors.ModelLoadFailed(domain.ArtifactRef(modelPath), err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, outputNames, nil)
	if err != nil {
		h.state = StateIdle
		return pipelineerrors.ModelLoadFailed(domain.ArtifactRef(modelPath), err)
	}

	h.session = session
	h.names = ioNames{Inputs: inputNames, Outputs: outputNames}
	h.state = StateRunning
	log.Info().Str("analyzer", string(h.analyzerID)).Str("model_path", modelPath).Msg("host running")
	return nil
}

// Infer runs one forward pass. inputs must align 1:1 with the input names
// passed to Start; outputShape describes the expected single output
// tensor's shape. Calls are serialized: concurrent Infer calls on the same
// Host block on each other rather than running the session concurrently.
func (h *Host) Infer(_ context.Context, inputs []ort.Value, outputShape ort.Shape) ([]float32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateRunning {
		return nil, pipelineerrors.HostUnavailable(fmt.Errorf("host state is %s", h.state))
	}

	output, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		return nil, pipelineerrors.InferenceError(err)
	}
	defer func() { _ = output.Destroy() }()

	if err := h.session.Run(inputs, []ort.Value{output}); err != nil {
		h.terminations++
		return nil, pipelineerrors.InferenceError(err)
	}

	data := output.GetData()
	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}

// Terminate transitions to Terminating then Terminated, releasing the
// session. Idempotent: terminating an already-terminated host is a no-op.
func (h *Host) Terminate() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == StateTerminated {
		return nil
	}
	h.state = StateTerminating

	var err error
	if h.session != nil {
		err = h.session.Destroy()
		h.session = nil
	}
	h.state = StateTerminated
	log.Info().Str("analyzer", string(h.analyzerID)).Msg("host terminated")
	return err
}

// Terminations reports how many inference calls on this host have failed
// at the runtime level. domain.Summary.HostTerminations is not taken from
// it; the driver counts host terminations in its metrics collector.
func (h *Host) Terminations() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.terminations
}
