package engine

import (
	"log"
	"sort"

	"github.com/hferris/waypoints/internal/timeline"
)

// Archiver persists finalized segments. The engine treats it as
// fire-and-forget durable storage: a failed write is logged, never
// retried, and does not affect the in-memory archive.
type Archiver interface {
	SaveSegment(s *timeline.Segment) error
	DeleteSegment(id string) error
}

// promoteSettled moves settled segments from the active set to the
// finalized archive. Scanning newest to oldest, everything strictly
// older than the second worth-keeping segment is presumed settled: the
// current segment and its nearest keeper stay revisable because a
// future sample or merge may still move their shared boundary.
func (e *Engine) promoteSettled() {
	keepers := 0
	boundary := -1
	for i := e.active.Len() - 1; i >= 0; i-- {
		s := e.active.At(i)
		s.WorthKeeping = e.policy.WorthKeeping(s)
		if s.WorthKeeping {
			keepers++
			if keepers == 2 {
				boundary = i
				break
			}
		}
	}
	if boundary <= 0 {
		return
	}

	promoted := make([]string, 0, boundary)
	for i := 0; i < boundary; i++ {
		s := e.active.At(i)
		if s.Open() {
			panic("engine: open segment promoted to finalized store")
		}
		e.finalized = append(e.finalized, s)
		promoted = append(promoted, s.ID)
		if e.archiver != nil {
			if err := e.archiver.SaveSegment(s); err != nil {
				log.Printf("retention: archive %s: %v", s.ID, err)
			}
		}
	}
	e.active.Remove(promoted...)
	log.Printf("retention: promoted %d, %d active / %d finalized",
		len(promoted), e.active.Len(), len(e.finalized))
}

// expireOld discards finalized segments whose end age exceeds the
// retention window. Runs every cycle, independent of promotion.
func (e *Engine) expireOld() {
	now := e.now()
	kept := e.finalized[:0]
	for _, s := range e.finalized {
		if s.End == nil {
			panic("engine: open segment in finalized store")
		}
		if e.retention > 0 && now.Sub(*s.End) > e.retention {
			if e.archiver != nil {
				if err := e.archiver.DeleteSegment(s.ID); err != nil {
					log.Printf("retention: delete archived %s: %v", s.ID, err)
				}
			}
			log.Printf("retention: expired %s %s", s.Kind, s.ID)
			continue
		}
		kept = append(kept, s)
	}
	e.finalized = kept
}

// RestoreFinalized seeds the archive from durable storage at startup,
// so the retention window keeps applying across restarts. It must run
// before the first Submit.
func (e *Engine) RestoreFinalized(segs []*timeline.Segment) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sort.SliceStable(segs, func(i, j int) bool {
		return segs[i].Start.Before(segs[j].Start)
	})
	e.finalized = segs
}
