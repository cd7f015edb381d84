package timeline

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind is the segment variant: a Path covers in-transit movement, a
// Visit covers a stationary stay.
type Kind int

const (
	Path Kind = iota
	Visit
)

func (k Kind) String() string {
	if k == Visit {
		return "visit"
	}
	return "path"
}

// ParseKind parses the wire form of a segment kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "path":
		return Path, nil
	case "visit":
		return Visit, nil
	}
	return 0, fmt.Errorf("unknown segment kind %q", s)
}

// MarshalJSON encodes the kind in its wire form ("path" / "visit").
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseKind(raw)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// continuation is the compatibility table between a segment kind and
// an incoming motion state: a Path continues on moving or uncertain
// samples, a Visit continues only on stationary ones.
var continuation = map[Kind]map[MotionState]bool{
	Path:  {Moving: true, Uncertain: true},
	Visit: {Stationary: true},
}

// Continues reports whether a segment of this kind absorbs a sample in
// the given motion state, or whether a new segment must be opened.
func (k Kind) Continues(m MotionState) bool {
	return continuation[k][m]
}

// KindFor returns the segment kind a sample in the given motion state
// opens: Path for moving/uncertain, Visit for stationary.
func KindFor(m MotionState) Kind {
	if m == Stationary {
		return Visit
	}
	return Path
}

// Score is an ordinal merge-quality / keepness grade. It is a small
// enumeration rather than a float so that comparisons and the
// Impossible sentinel are exact.
type Score int

const (
	// ScoreImpossible marks a merge that must never be applied. It is
	// the distinguished worst value and sorts below every real grade.
	ScoreImpossible Score = iota
	ScoreLow
	ScoreMedium
	ScoreHigh
	ScoreTop
)

func (s Score) String() string {
	switch s {
	case ScoreImpossible:
		return "impossible"
	case ScoreLow:
		return "low"
	case ScoreMedium:
		return "medium"
	case ScoreHigh:
		return "high"
	case ScoreTop:
		return "top"
	}
	return fmt.Sprintf("score(%d)", int(s))
}

// Segment is one unit of the timeline chain: a Path or a Visit.
//
// Prev and Next hold neighbor ids, not references; the segments
// themselves are owned by the active chain or the finalized archive,
// and a link is only ever resolved by lookup.
type Segment struct {
	ID    string    `json:"id"`
	Kind  Kind      `json:"kind"`
	Start time.Time `json:"start"`
	// End is the timestamp of the last accepted sample. It is nil
	// while the segment is still current (open-ended).
	End     *time.Time `json:"end,omitempty"`
	Samples []Sample   `json:"samples"`

	Prev string `json:"prev,omitempty"`
	Next string `json:"next,omitempty"`

	// Policy-derived, refreshed during consolidation.
	WorthKeeping bool  `json:"worth_keeping"`
	Keepness     Score `json:"keepness"`
}

// entropy backs segment id generation. Monotonic so ids created within
// the same millisecond still sort in creation order. The engine
// serializes all segment creation, so the shared reader is safe.
var entropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)

// NewSegment opens a segment of the given kind with its first sample.
// The id embeds the first sample's timestamp, so ids sort by start.
func NewSegment(kind Kind, first Sample) *Segment {
	return &Segment{
		ID:      ulid.MustNew(ulid.Timestamp(first.Time), entropy).String(),
		Kind:    kind,
		Start:   first.Time,
		Samples: []Sample{first},
	}
}

// Append adds an accepted sample to an open segment.
func (s *Segment) Append(smp Sample) {
	s.Samples = append(s.Samples, smp)
}

// Close fixes the segment's end at its last sample's timestamp.
func (s *Segment) Close() {
	if len(s.Samples) == 0 {
		return
	}
	t := s.Samples[len(s.Samples)-1].Time
	s.End = &t
}

// Open reports whether the segment is still current (no end).
func (s *Segment) Open() bool {
	return s.End == nil
}

// Duration is the span from the first to the last sample.
func (s *Segment) Duration() time.Duration {
	if len(s.Samples) < 2 {
		return 0
	}
	return s.Samples[len(s.Samples)-1].Time.Sub(s.Samples[0].Time)
}

// Clone returns a deep copy safe to hand to readers and listeners
// while the engine keeps mutating the original.
func (s *Segment) Clone() Segment {
	out := *s
	if s.End != nil {
		end := *s.End
		out.End = &end
	}
	if len(s.Samples) > 0 {
		out.Samples = make([]Sample, len(s.Samples))
		copy(out.Samples, s.Samples)
	}
	return out
}

// Candidate is a proposed merge: the keeper survives, the deadman is
// absorbed, and an optional betweener bridging two stronger neighbors
// is absorbed along with it.
type Candidate struct {
	Keeper    string
	Deadman   string
	Betweener string
	Score     Score
}

func (c Candidate) String() string {
	if c.Betweener != "" {
		return fmt.Sprintf("merge %s + %s + %s (%s)", c.Keeper, c.Betweener, c.Deadman, c.Score)
	}
	return fmt.Sprintf("merge %s + %s (%s)", c.Keeper, c.Deadman, c.Score)
}
