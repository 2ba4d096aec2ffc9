// Package pipeline drives a Plan to completion: ResultMatrix holds the
// (line x analyzer) grid of cell results and notifies subscribers as cells
// reach a terminal state; Driver runs the column-major wave algorithm that
// fills it in.
package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/sentimentomatic/engine/internal/domain"
)

// Listener receives one notification per terminal cell write, in the exact
// order the driver performs them.
type Listener func(domain.CellTransition)

// ResultMatrix is a dense (lines x analyzers) grid of CellResult, value-typed
// cells behind a single RWMutex. Grounded on the teacher's ObserverManager
// (RWMutex-guarded subscriber slice, notify-all) generalized from nine typed
// On* callbacks down to one Listener signature, since a cell transition is
// the only event this matrix ever raises.
type ResultMatrix struct {
	lines     int
	analyzers []domain.AnalyzerID

	mu        sync.RWMutex
	cells     []domain.CellResult
	listeners []Listener
}

// NewResultMatrix allocates a matrix of shape (len(lines), len(analyzers)),
// every cell Pending.
func NewResultMatrix(lines int, analyzers []domain.AnalyzerID) *ResultMatrix {
	m := &ResultMatrix{
		lines:     lines,
		analyzers: analyzers,
		cells:     make([]domain.CellResult, lines*len(analyzers)),
	}
	for i := range m.cells {
		m.cells[i] = domain.Pending()
	}
	return m
}

func (m *ResultMatrix) index(line int, analyzerCol int) int {
	return line*len(m.analyzers) + analyzerCol
}

// Get returns the cell at (line, analyzerCol).
func (m *ResultMatrix) Get(line, analyzerCol int) domain.CellResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cells[m.index(line, analyzerCol)]
}

// Set performs the terminal write for (line, analyzerCol) and notifies every
// subscriber. Panics if the prior state was not Pending: a cell transitions
// exactly once, and a second write is a driver bug, not a runtime condition
// to recover from.
func (m *ResultMatrix) Set(line, analyzerCol int, cell domain.CellResult) {
	m.mu.Lock()
	idx := m.index(line, analyzerCol)
	if m.cells[idx].State != domain.CellPending {
		m.mu.Unlock()
		panic(fmt.Sprintf("pipeline: cell (%d,%d) written twice (prior state %s)", line, analyzerCol, m.cells[idx].State))
	}
	m.cells[idx] = cell
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	transition := domain.CellTransition{
		LineIndex:  line,
		AnalyzerID: m.analyzers[analyzerCol],
		Result:     cell,
		ObservedAt: time.Now(),
	}
	for _, l := range listeners {
		l(transition)
	}
}

// Subscribe registers a listener invoked synchronously on every terminal
// write, in (analyzer, line) emission order. A slow listener blocks the
// driver; wrap it in a BoundedSubscriber for async delivery.
func (m *ResultMatrix) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Snapshot returns an immutable copy of the matrix contents in (line
// ascending, analyzer in plan order) iteration order, suitable for export.
func (m *ResultMatrix) Snapshot() []domain.CellResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.CellResult, len(m.cells))
	copy(out, m.cells)
	return out
}

// Lines reports the matrix's line count.
func (m *ResultMatrix) Lines() int { return m.lines }

// Analyzers reports the plan-order analyzer IDs the matrix's columns
// correspond to.
func (m *ResultMatrix) Analyzers() []domain.AnalyzerID { return m.analyzers }
