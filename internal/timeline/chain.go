package timeline

import "fmt"

// Chain owns an ordered run of segments, ascending by start time, with
// an id index for link resolution. It is the arena behind the active
// set: Prev/Next fields on segments are resolved through it and never
// point at memory the chain does not own.
type Chain struct {
	order []*Segment
	byID  map[string]*Segment
}

// NewChain returns an empty chain.
func NewChain() *Chain {
	return &Chain{byID: make(map[string]*Segment)}
}

// Len returns the number of segments in the chain.
func (c *Chain) Len() int {
	return len(c.order)
}

// Last returns the newest segment, or nil if the chain is empty.
func (c *Chain) Last() *Segment {
	if len(c.order) == 0 {
		return nil
	}
	return c.order[len(c.order)-1]
}

// First returns the oldest segment, or nil if the chain is empty.
func (c *Chain) First() *Segment {
	if len(c.order) == 0 {
		return nil
	}
	return c.order[0]
}

// ByID resolves a link. Returns nil for "" or for ids the chain does
// not own (e.g. a Prev that has already been finalized).
func (c *Chain) ByID(id string) *Segment {
	if id == "" {
		return nil
	}
	return c.byID[id]
}

// At returns the segment at position i (0 = oldest).
func (c *Chain) At(i int) *Segment {
	return c.order[i]
}

// Append adds a segment as the newest element and wires its Prev link
// to the previous tail.
func (c *Chain) Append(s *Segment) {
	if prev := c.Last(); prev != nil {
		prev.Next = s.ID
		s.Prev = prev.ID
	}
	c.order = append(c.order, s)
	c.byID[s.ID] = s
}

// Remove deletes the segments with the given ids, preserving order of
// the survivors. Link repair is the caller's job (a merge has already
// rewired the keeper before its victims are removed).
func (c *Chain) Remove(ids ...string) {
	dead := make(map[string]bool, len(ids))
	for _, id := range ids {
		dead[id] = true
	}
	kept := c.order[:0]
	for _, s := range c.order {
		if dead[s.ID] {
			delete(c.byID, s.ID)
			continue
		}
		kept = append(kept, s)
	}
	c.order = kept
}

// Segments returns the chain contents in order. The slice is fresh but
// shares segment pointers; callers that publish outside the engine
// must Clone.
func (c *Chain) Segments() []*Segment {
	out := make([]*Segment, len(c.order))
	copy(out, c.order)
	return out
}

// Verify checks that the chain is a simple, gapless run: ascending by
// start, every adjacent pair mutually linked, no duplicate ids. A
// failure is a bug in the consolidation algorithm, not a runtime
// condition, so Verify panics.
func (c *Chain) Verify() {
	seen := make(map[string]bool, len(c.order))
	for i, s := range c.order {
		if seen[s.ID] {
			panic(fmt.Sprintf("timeline: chain cycle, id %s appears twice", s.ID))
		}
		seen[s.ID] = true
		if i == 0 {
			continue
		}
		prev := c.order[i-1]
		if s.Start.Before(prev.Start) {
			panic(fmt.Sprintf("timeline: chain out of order at %s", s.ID))
		}
		if prev.Next != s.ID || s.Prev != prev.ID {
			panic(fmt.Sprintf("timeline: broken link between %s and %s", prev.ID, s.ID))
		}
	}
}
