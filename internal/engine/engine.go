// Package engine turns a stream of motion-classified location samples
// into a bounded, chronologically linked history of visits and paths.
//
// One cycle per accepted sample: the builder extends or opens a
// segment, consolidation merges recent segments to a fixpoint, and
// retention promotes settled segments to the finalized archive and
// expires archived segments past the retention window. The cycle is
// single-threaded; the engine's own mutex serializes hosts that
// deliver samples from concurrent goroutines.
package engine

import (
	"log"
	"sync"
	"time"

	"github.com/hferris/waypoints/internal/timeline"
)

// Config holds the engine's recognized options.
type Config struct {
	// SamplesPerMinute caps the accepted sample rate: a sample closer
	// than 60/SamplesPerMinute seconds to the last accepted one is
	// silently dropped. Zero disables the limit.
	SamplesPerMinute float64

	// HistoryRetention is the expiry window for the finalized archive.
	HistoryRetention time.Duration
}

// Engine is the segmentation, consolidation, and retention core. One
// instance manages exactly one timeline chain.
type Engine struct {
	mu sync.Mutex

	policy    Policy
	minGap    time.Duration
	retention time.Duration

	active    *timeline.Chain
	finalized []*timeline.Segment
	currentID string

	recording    bool
	lastAccepted time.Time
	haveAccepted bool

	listeners []Listener
	archiver  Archiver

	now func() time.Time
}

// New creates an engine with the given scoring policy and options.
// Recording starts disabled; call StartRecording to accept samples.
func New(p Policy, cfg Config) *Engine {
	var minGap time.Duration
	if cfg.SamplesPerMinute > 0 {
		minGap = time.Duration(float64(time.Minute) / cfg.SamplesPerMinute)
	}
	return &Engine{
		policy:    p,
		minGap:    minGap,
		retention: cfg.HistoryRetention,
		active:    timeline.NewChain(),
		now:       time.Now,
	}
}

// SetArchiver configures the durable archive for finalized segments.
func (e *Engine) SetArchiver(a Archiver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.archiver = a
}

// StartRecording enables sample processing.
func (e *Engine) StartRecording() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recording = true
}

// StopRecording halts sample processing. In-flight state is left
// exactly as last consolidated; submissions become no-ops.
func (e *Engine) StopRecording() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recording = false
}

// Recording reports whether samples are currently processed.
func (e *Engine) Recording() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recording
}

// Submit runs one full processing cycle for a sample. Samples arrive
// one at a time with non-decreasing timestamps; rate-limited or
// non-recording submissions change nothing and emit nothing.
func (e *Engine) Submit(smp timeline.Sample) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.recording {
		return
	}
	if e.haveAccepted && smp.Time.Sub(e.lastAccepted) < e.minGap {
		return
	}
	e.lastAccepted = smp.Time
	e.haveAccepted = true

	cur := e.active.ByID(e.currentID)
	switch {
	case cur == nil:
		e.openSegment(smp)
	case cur.Kind.Continues(smp.State):
		cur.Append(smp)
	default:
		cur.Close()
		e.openSegment(smp)
	}

	e.consolidate()
	e.active.Verify()
	e.emitProcessingCompleted()
}

// openSegment starts a new segment for the sample and makes it current.
func (e *Engine) openSegment(smp timeline.Sample) {
	seg := timeline.NewSegment(timeline.KindFor(smp.State), smp)
	e.active.Append(seg)
	e.currentID = seg.ID
	log.Printf("segment: opened %s %s (%s)", seg.Kind, seg.ID, smp.State)
	e.emitSegmentCreated(seg)
}

// Current returns a snapshot of the open segment, or false if none.
func (e *Engine) Current() (timeline.Segment, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur := e.active.ByID(e.currentID)
	if cur == nil {
		return timeline.Segment{}, false
	}
	return cur.Clone(), true
}

// ActiveSegments returns an ordered snapshot of the active set.
func (e *Engine) ActiveSegments() []timeline.Segment {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]timeline.Segment, 0, e.active.Len())
	for _, s := range e.active.Segments() {
		out = append(out, s.Clone())
	}
	return out
}

// FinalizedSegments returns an ordered snapshot of the archive.
func (e *Engine) FinalizedSegments() []timeline.Segment {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]timeline.Segment, 0, len(e.finalized))
	for _, s := range e.finalized {
		out = append(out, s.Clone())
	}
	return out
}
