package engine

import "github.com/hferris/waypoints/internal/timeline"

// Policy supplies the numeric judgement the engine deliberately does
// not own: whether a segment is worth retaining, how confidently, and
// how good a candidate merge would be. The engine consumes only the
// ordinal results.
type Policy interface {
	// WorthKeeping reports whether the segment represents a real,
	// worth-retaining unit rather than noise.
	WorthKeeping(s *timeline.Segment) bool

	// Keepness grades the same confidence ordinally.
	Keepness(s *timeline.Segment) timeline.Score

	// ScoreMerge grades a candidate merge. betweener is nil for plain
	// two-way merges. ScoreImpossible forbids the merge.
	ScoreMerge(keeper, betweener, deadman *timeline.Segment) timeline.Score

	// SanitizeEdges cleans up a segment's boundary samples in place
	// before the segment takes part in any scoring.
	SanitizeEdges(s *timeline.Segment)
}
