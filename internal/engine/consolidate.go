package engine

import (
	"log"
	"sort"
	"time"

	"github.com/hferris/waypoints/internal/timeline"
)

// consolidate merges recent segments until no beneficial merge
// remains, then runs retention housekeeping. It is a deliberate loop
// rather than a recursion: every applied merge must strictly shrink
// the active set, which bounds the iteration count by the set size.
func (e *Engine) consolidate() {
	for {
		cur := e.active.ByID(e.currentID)
		if cur == nil {
			break
		}
		cur.WorthKeeping = e.policy.WorthKeeping(cur)
		if !cur.WorthKeeping {
			// Still-forming current segment; too low-confidence to
			// trigger consolidation yet.
			break
		}

		cands := e.mergeCandidates(cur)
		if len(cands) == 0 {
			break
		}
		// Stable sort so equally-scored candidates resolve to the
		// first generated one. Tests must not rely on which equal
		// candidate wins, only on the resulting invariants.
		sort.SliceStable(cands, func(i, j int) bool {
			return cands[i].Score > cands[j].Score
		})
		best := cands[0]
		if best.Score == timeline.ScoreImpossible {
			break
		}

		before := e.active.Len()
		died := e.applyMerge(best)
		e.active.Remove(died...)
		if e.active.Len() >= before {
			panic("engine: merge did not shrink the active set")
		}
		e.active.Verify()
		log.Printf("consolidate: %s, %d active", best, e.active.Len())
	}

	e.promoteSettled()
	e.expireOld()
}

// mergeCandidates walks backward from the current segment along Prev
// links, sanitizing each working segment before it is scored, and
// collects directional pair candidates plus 3-way betweener candidates
// for low-confidence segments sandwiched between stronger neighbors.
func (e *Engine) mergeCandidates(cur *timeline.Segment) []timeline.Candidate {
	var cands []timeline.Candidate

	working := cur
	for {
		e.policy.SanitizeEdges(working)
		working.Keepness = e.policy.Keepness(working)

		prev := e.active.ByID(working.Prev)
		if prev == nil {
			break
		}
		prev.Keepness = e.policy.Keepness(prev)

		cands = append(cands,
			e.scored(timeline.Candidate{Keeper: working.ID, Deadman: prev.ID}),
			e.scored(timeline.Candidate{Keeper: prev.ID, Deadman: working.ID}),
		)

		if prev.Keepness < working.Keepness {
			if pp := e.active.ByID(prev.Prev); pp != nil {
				pp.Keepness = e.policy.Keepness(pp)
				if pp.Keepness > prev.Keepness {
					cands = append(cands,
						e.scored(timeline.Candidate{Keeper: working.ID, Betweener: prev.ID, Deadman: pp.ID}),
						e.scored(timeline.Candidate{Keeper: pp.ID, Betweener: prev.ID, Deadman: working.ID}),
					)
				}
			}
		}

		working = prev
	}
	return cands
}

func (e *Engine) scored(c timeline.Candidate) timeline.Candidate {
	c.Score = e.policy.ScoreMerge(
		e.active.ByID(c.Keeper),
		e.active.ByID(c.Betweener),
		e.active.ByID(c.Deadman),
	)
	return c
}

// applyMerge absorbs the deadman (and betweener) into the keeper:
// samples merge chronologically, the keeper takes over the span's
// outer chain links, and the absorbed ids are returned for removal.
// If the open segment is absorbed, the keeper becomes current.
func (e *Engine) applyMerge(c timeline.Candidate) []string {
	keeper := e.active.ByID(c.Keeper)

	members := []*timeline.Segment{keeper, e.active.ByID(c.Deadman)}
	died := []string{c.Deadman}
	if c.Betweener != "" {
		members = append(members, e.active.ByID(c.Betweener))
		died = append(died, c.Betweener)
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].Start.Before(members[j].Start)
	})

	var merged []timeline.Sample
	open := false
	var last time.Time
	for _, m := range members {
		merged = append(merged, m.Samples...)
		if m.End == nil {
			open = true
		} else if m.End.After(last) {
			last = *m.End
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Time.Before(merged[j].Time)
	})

	keeper.Samples = merged
	keeper.Start = members[0].Start
	if open {
		keeper.End = nil
		e.currentID = keeper.ID
	} else {
		end := last
		keeper.End = &end
	}

	// Repair the chain around the absorbed span. The members are
	// contiguous, so the keeper inherits the span's outer links.
	keeper.Prev = members[0].Prev
	keeper.Next = members[len(members)-1].Next
	if p := e.active.ByID(keeper.Prev); p != nil {
		p.Next = keeper.ID
	}
	if n := e.active.ByID(keeper.Next); n != nil {
		n.Prev = keeper.ID
	}

	return died
}
