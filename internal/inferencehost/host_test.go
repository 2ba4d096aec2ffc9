package inferencehost

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sentimentomatic/engine/internal/domain"
	pipelineerrors "github.com/sentimentomatic/engine/internal/domain/errors"
)

func TestHostStartsIdle(t *testing.T) {
	h := New(domain.AnalyzerID("goemotions"))
	assert.Equal(t, StateIdle, h.State())
}

func TestHostStartOnMissingModelFails(t *testing.T) {
	h := New(domain.AnalyzerID("goemotions"))
	err := h.Start(nil, "/nonexistent/model.onnx", []string{"input_ids"}, []string{"logits"})
	assert.Error(t, err)
	assert.Equal(t, domain.ErrModelLoadFailed, pipelineerrors.KindOf(err))
	assert.Equal(t, StateIdle, h.State(), "a failed Start must not strand the host in Starting")
}

func TestHostInferBeforeStartIsUnavailable(t *testing.T) {
	h := New(domain.AnalyzerID("goemotions"))
	_, err := h.Infer(nil, nil, nil)
	assert.Error(t, err)
	assert.Equal(t, domain.ErrHostUnavailable, pipelineerrors.KindOf(err))
}

func TestHostTerminateIsIdempotent(t *testing.T) {
	h := New(domain.AnalyzerID("goemotions"))
	assert.NoError(t, h.Terminate())
	assert.Equal(t, StateTerminated, h.State())
	assert.NoError(t, h.Terminate())
	assert.Equal(t, StateTerminated, h.State())
}

func TestHostStartAfterTerminateFails(t *testing.T) {
	h := New(domain.AnalyzerID("goemotions"))
	assert.NoError(t, h.Terminate())
	err := h.Start(nil, "/nonexistent/model.onnx", []string{"input_ids"}, []string{"logits"})
	assert.Error(t, err)
	assert.Equal(t, domain.ErrHostTerminated, pipelineerrors.KindOf(err))
}

func TestStateStringCoversAllValues(t *testing.T) {
	cases := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateStarting, "starting"},
		{StateRunning, "running"},
		{StateTerminating, "terminating"},
		{StateTerminated, "terminated"},
		{State(99), "unknown"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.state.String())
	}
}
