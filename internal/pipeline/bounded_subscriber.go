package pipeline

import (
	"github.com/sentimentomatic/engine/internal/domain"
	"github.com/sentimentomatic/engine/internal/logging"
)

var subLog = logging.For("pipeline.subscriber")

// BoundedSubscriber wraps a buffered channel of CellTransition so a driver
// can publish asynchronously without a slow consumer stalling the wave
// algorithm. Grounded on the teacher's websocket Hub broadcast channel: a
// fixed-size buffer plus a non-blocking send that drops and logs on a full
// buffer rather than blocking the publisher.
type BoundedSubscriber struct {
	ch      chan domain.CellTransition
	dropped int
}

// NewBoundedSubscriber constructs a subscriber backed by a channel of the
// given capacity. Capacity 0 is not useful; callers size it to the number of
// transitions they can buffer between reads.
func NewBoundedSubscriber(capacity int) *BoundedSubscriber {
	return &BoundedSubscriber{ch: make(chan domain.CellTransition, capacity)}
}

// Listener returns the function to pass to ResultMatrix.Subscribe.
func (s *BoundedSubscriber) Listener() Listener {
	return func(t domain.CellTransition) {
		select {
		case s.ch <- t:
		default:
			s.dropped++
			subLog.Warn().
				Int("line_index", t.LineIndex).
				Str("analyzer_id", string(t.AnalyzerID)).
				Msg("subscriber buffer full, dropping transition")
		}
	}
}

// Transitions returns the receive-only channel consumers range over.
func (s *BoundedSubscriber) Transitions() <-chan domain.CellTransition {
	return s.ch
}

// Close closes the underlying channel. Callers must stop publishing (i.e.
// the driver's Run must have returned) before calling Close.
func (s *BoundedSubscriber) Close() {
	close(s.ch)
}

// Dropped reports how many transitions were discarded due to a full buffer.
func (s *BoundedSubscriber) Dropped() int {
	return s.dropped
}
