// Package policy ships the default scoring policy: duration and
// sample-count thresholds for keepness, gap and kind checks for merge
// quality, and a speed-plausibility gate for edge sanitization. The
// engine depends only on its interface, so hosts can substitute their
// own scoring without touching the core.
package policy

import (
	"math"
	"sort"
	"time"

	"github.com/hferris/waypoints/internal/timeline"
)

// Heuristic grades segments from simple structural features. Zero
// values fall back to defaults; construct via New.
type Heuristic struct {
	// MinKeepSamples and MinKeepDuration are the floors below which a
	// segment is considered noise. Meeting either makes it worth
	// keeping; meeting both raises its keepness.
	MinKeepSamples  int
	MinKeepDuration time.Duration

	// MaxMergeGap is the largest time gap between adjacent segments a
	// merge may bridge; anything wider scores Impossible.
	MaxMergeGap time.Duration

	// MaxSpeedMps bounds plausible movement between consecutive fixes.
	// Boundary samples implying a faster jump are trimmed.
	MaxSpeedMps float64
}

// New returns a Heuristic with defaults filled in.
func New() *Heuristic {
	return &Heuristic{
		MinKeepSamples:  3,
		MinKeepDuration: 2 * time.Minute,
		MaxMergeGap:     5 * time.Minute,
		MaxSpeedMps:     55, // ~200 km/h
	}
}

// WorthKeeping reports whether the segment clears either noise floor.
func (h *Heuristic) WorthKeeping(s *timeline.Segment) bool {
	return h.Keepness(s) > timeline.ScoreLow
}

// Keepness grades confidence that the segment is a real unit:
// Low below both floors, Medium past one, High past both, Top past
// both with a 3x margin.
func (h *Heuristic) Keepness(s *timeline.Segment) timeline.Score {
	bySamples := len(s.Samples) >= h.MinKeepSamples
	byDuration := s.Duration() >= h.MinKeepDuration
	switch {
	case bySamples && byDuration:
		if len(s.Samples) >= 3*h.MinKeepSamples && s.Duration() >= 3*h.MinKeepDuration {
			return timeline.ScoreTop
		}
		return timeline.ScoreHigh
	case bySamples || byDuration:
		return timeline.ScoreMedium
	default:
		return timeline.ScoreLow
	}
}

// ScoreMerge grades a candidate merge. Two-way merges require matching
// kinds; a betweener merge bridges two same-kind segments across a
// short opposite-kind blip. Any gap wider than MaxMergeGap is
// Impossible.
func (h *Heuristic) ScoreMerge(keeper, betweener, deadman *timeline.Segment) timeline.Score {
	if keeper == nil || deadman == nil {
		return timeline.ScoreImpossible
	}
	if keeper.Kind != deadman.Kind {
		return timeline.ScoreImpossible
	}

	span := []*timeline.Segment{keeper, deadman}
	if betweener != nil {
		span = append(span, betweener)
	}
	sortByStart(span)
	for i := 1; i < len(span); i++ {
		if gapBetween(span[i-1], span[i]) > h.MaxMergeGap {
			return timeline.ScoreImpossible
		}
	}

	if betweener != nil {
		// Absorbing a weak sandwiched blip is the strongest merge.
		if h.Keepness(betweener) == timeline.ScoreLow {
			return timeline.ScoreTop
		}
		return timeline.ScoreHigh
	}
	switch h.Keepness(deadman) {
	case timeline.ScoreLow:
		return timeline.ScoreHigh
	case timeline.ScoreMedium:
		return timeline.ScoreMedium
	default:
		return timeline.ScoreLow
	}
}

// SanitizeEdges trims boundary samples that imply implausible speed
// relative to their neighbor, in place. At least one sample always
// survives.
func (h *Heuristic) SanitizeEdges(s *timeline.Segment) {
	if h.MaxSpeedMps <= 0 {
		return
	}
	for len(s.Samples) >= 2 && h.implausible(s.Samples[0], s.Samples[1]) {
		s.Samples = s.Samples[1:]
	}
	for n := len(s.Samples); n >= 2 && h.implausible(s.Samples[n-2], s.Samples[n-1]); n = len(s.Samples) {
		s.Samples = s.Samples[:n-1]
	}
}

func (h *Heuristic) implausible(a, b timeline.Sample) bool {
	dt := b.Time.Sub(a.Time).Seconds()
	if dt <= 0 {
		return false
	}
	return distMeters(a, b)/dt > h.MaxSpeedMps
}

// distMeters is an equirectangular approximation, plenty for the
// short hops between consecutive fixes.
func distMeters(a, b timeline.Sample) float64 {
	const earthRadius = 6371000.0
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := latB - latA
	dLon := (b.Lon - a.Lon) * math.Pi / 180 * math.Cos((latA+latB)/2)
	return earthRadius * math.Sqrt(dLat*dLat+dLon*dLon)
}

func sortByStart(segs []*timeline.Segment) {
	sort.Slice(segs, func(i, j int) bool {
		return segs[i].Start.Before(segs[j].Start)
	})
}

// gapBetween is the idle time between one segment's last sample and
// the next segment's first.
func gapBetween(earlier, later *timeline.Segment) time.Duration {
	if len(earlier.Samples) == 0 || len(later.Samples) == 0 {
		return 0
	}
	gap := later.Samples[0].Time.Sub(earlier.Samples[len(earlier.Samples)-1].Time)
	if gap < 0 {
		return 0
	}
	return gap
}
