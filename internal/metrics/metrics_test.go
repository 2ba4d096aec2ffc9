package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentimentomatic/engine/internal/domain"
)

func TestCollectorRecordCellTallysReadyAndFailed(t *testing.T) {
	c := New()
	c.RecordCell("vader", domain.CellResult{State: domain.CellReady}, 10*time.Millisecond)
	c.RecordCell("vader", domain.CellResult{State: domain.CellReady}, 20*time.Millisecond)
	c.RecordCell("vader", domain.CellResult{State: domain.CellFailed, ErrorKind: domain.ErrTimeout}, 5*time.Millisecond)

	completed, failed, terminations := c.Summary()
	assert.Equal(t, 2, completed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 0, terminations)

	snap := c.AnalyzerSnapshot()
	require.Contains(t, snap, domain.AnalyzerID("vader"))
	m := snap["vader"]
	assert.Equal(t, 2, m.CellsReady)
	assert.Equal(t, 1, m.CellsFailed)
	assert.Equal(t, 1, m.FailuresByKind[domain.ErrTimeout])
}

func TestCollectorTracksMinMaxLatency(t *testing.T) {
	c := New()
	c.RecordCell("afinn", domain.CellResult{State: domain.CellReady}, 30*time.Millisecond)
	c.RecordCell("afinn", domain.CellResult{State: domain.CellReady}, 10*time.Millisecond)
	c.RecordCell("afinn", domain.CellResult{State: domain.CellReady}, 20*time.Millisecond)

	snap := c.AnalyzerSnapshot()
	m := snap["afinn"]
	assert.Equal(t, 10*time.Millisecond, m.MinLatency)
	assert.Equal(t, 30*time.Millisecond, m.MaxLatency)
	assert.Equal(t, 20*time.Millisecond, c.AverageLatency("afinn"))
}

func TestCollectorAverageLatencyUnknownAnalyzerIsZero(t *testing.T) {
	c := New()
	assert.Equal(t, time.Duration(0), c.AverageLatency("never-seen"))
}

func TestCollectorRecordHostTermination(t *testing.T) {
	c := New()
	c.RecordHostTermination()
	c.RecordHostTermination()
	_, _, terminations := c.Summary()
	assert.Equal(t, 2, terminations)
}

func TestAnalyzerSnapshotFailuresByKindIsIndependentCopy(t *testing.T) {
	c := New()
	c.RecordCell("vader", domain.CellResult{State: domain.CellFailed, ErrorKind: domain.ErrTimeout}, time.Millisecond)

	snap := c.AnalyzerSnapshot()
	snap["vader"].FailuresByKind[domain.ErrTimeout] = 99

	snap2 := c.AnalyzerSnapshot()
	assert.Equal(t, 1, snap2["vader"].FailuresByKind[domain.ErrTimeout])
}
