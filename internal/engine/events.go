package engine

import "github.com/hferris/waypoints/internal/timeline"

// Listener receives engine notifications. Delivery is synchronous, in
// subscription order, from inside the processing cycle: listeners get
// snapshot copies and must not call back into the engine.
type Listener interface {
	// SegmentCreated fires when the builder opens a new segment.
	SegmentCreated(seg timeline.Segment)

	// ProcessingCompleted fires after every accepted sample's full
	// cycle, whether or not anything changed.
	ProcessingCompleted()
}

// Subscribe registers a listener for all subsequent cycles.
func (e *Engine) Subscribe(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

func (e *Engine) emitSegmentCreated(s *timeline.Segment) {
	for _, l := range e.listeners {
		l.SegmentCreated(s.Clone())
	}
}

func (e *Engine) emitProcessingCompleted() {
	for _, l := range e.listeners {
		l.ProcessingCompleted()
	}
}
