package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/hferris/waypoints/internal/timeline"
)

// fakeArchive records archiver calls.
type fakeArchive struct {
	saved   []string
	deleted []string
	err     error
}

func (a *fakeArchive) SaveSegment(s *timeline.Segment) error {
	a.saved = append(a.saved, s.ID)
	return a.err
}

func (a *fakeArchive) DeleteSegment(id string) error {
	a.deleted = append(a.deleted, id)
	return a.err
}

// seedChain populates the active set with closed segments at 10s
// spacing plus one open current segment at the end.
func seedChain(e *Engine, n int) []*timeline.Segment {
	var segs []*timeline.Segment
	for i := 0; i < n; i++ {
		kind := timeline.Path
		if i%2 == 1 {
			kind = timeline.Visit
		}
		state := timeline.Moving
		if kind == timeline.Visit {
			state = timeline.Stationary
		}
		s := timeline.NewSegment(kind, sample(float64(i*10), state))
		s.Append(sample(float64(i*10+5), state))
		if i < n-1 {
			s.Close()
		}
		e.active.Append(s)
		segs = append(segs, s)
	}
	e.currentID = segs[n-1].ID
	return segs
}

func TestPromoteSettledKeepsTwoKeepers(t *testing.T) {
	// Keeper pattern (oldest → newest): A✓ B✗ C✓ D✗ E✓(current).
	// The second keeper from the newest is C; A and B are settled.
	worthy := map[int]bool{0: true, 2: true, 4: true}
	var segs []*timeline.Segment
	p := &fakePolicy{
		worth: func(s *timeline.Segment) bool {
			for i, seg := range segs {
				if seg.ID == s.ID {
					return worthy[i]
				}
			}
			return false
		},
	}
	e := testEngine(t, p)
	segs = seedChain(e, 5)

	e.promoteSettled()

	if got := e.active.Len(); got != 3 {
		t.Fatalf("active = %d, want 3 (C, D, E)", got)
	}
	if e.active.First().ID != segs[2].ID {
		t.Errorf("oldest active = %s, want C", e.active.First().ID)
	}
	if len(e.finalized) != 2 {
		t.Fatalf("finalized = %d, want 2", len(e.finalized))
	}
	if e.finalized[0].ID != segs[0].ID || e.finalized[1].ID != segs[1].ID {
		t.Error("finalized order does not match promotion order")
	}
	checkInvariants(t, e)
}

func TestPromoteNeedsTwoKeepers(t *testing.T) {
	p := &fakePolicy{worth: func(s *timeline.Segment) bool { return s.Open() }}
	e := testEngine(t, p)
	seedChain(e, 4)

	e.promoteSettled()

	if got := len(e.finalized); got != 0 {
		t.Errorf("finalized = %d with a single keeper, want 0", got)
	}
	if got := e.active.Len(); got != 4 {
		t.Errorf("active = %d, want 4 untouched", got)
	}
}

func TestPromotionIsMonotone(t *testing.T) {
	p := &fakePolicy{}
	e := testEngine(t, p)
	seedChain(e, 6)

	e.promoteSettled()
	promoted := make(map[string]bool)
	for _, s := range e.finalized {
		promoted[s.ID] = true
	}
	if len(promoted) == 0 {
		t.Fatal("expected promotions with every segment worth keeping")
	}

	// Promoted ids never show up in the active set again.
	e.promoteSettled()
	for _, s := range e.active.Segments() {
		if promoted[s.ID] {
			t.Fatalf("segment %s observed in active after finalization", s.ID)
		}
	}
}

func TestPromoteWritesToArchiver(t *testing.T) {
	arch := &fakeArchive{}
	p := &fakePolicy{}
	e := testEngine(t, p)
	e.SetArchiver(arch)
	segs := seedChain(e, 4)

	e.promoteSettled()

	// Keepers everywhere: second-from-newest is segs[2], so A and B settle.
	want := []string{segs[0].ID, segs[1].ID}
	if len(arch.saved) != len(want) {
		t.Fatalf("archived %d segments, want %d", len(arch.saved), len(want))
	}
	for i, id := range want {
		if arch.saved[i] != id {
			t.Errorf("archived[%d] = %s, want %s", i, arch.saved[i], id)
		}
	}
}

func TestArchiverFailureDoesNotBlockPromotion(t *testing.T) {
	arch := &fakeArchive{err: fmt.Errorf("disk full")}
	p := &fakePolicy{}
	e := testEngine(t, p)
	e.SetArchiver(arch)
	seedChain(e, 4)

	e.promoteSettled()

	if len(e.finalized) != 2 {
		t.Errorf("finalized = %d despite archiver failure, want 2", len(e.finalized))
	}
}

func TestExpireOldRespectsWindow(t *testing.T) {
	arch := &fakeArchive{}
	p := &fakePolicy{}
	e := New(p, Config{SamplesPerMinute: 60, HistoryRetention: 3600 * time.Second})
	e.SetArchiver(arch)

	now := at(10000)
	e.now = func() time.Time { return now }

	stale := timeline.NewSegment(timeline.Visit, timeline.Sample{Time: now.Add(-4000 * time.Second), State: timeline.Stationary})
	stale.Append(timeline.Sample{Time: now.Add(-3601 * time.Second), State: timeline.Stationary})
	stale.Close()

	fresh := timeline.NewSegment(timeline.Path, timeline.Sample{Time: now.Add(-3700 * time.Second), State: timeline.Moving})
	fresh.Append(timeline.Sample{Time: now.Add(-3599 * time.Second), State: timeline.Moving})
	fresh.Close()

	e.finalized = []*timeline.Segment{stale, fresh}
	e.expireOld()

	if len(e.finalized) != 1 {
		t.Fatalf("finalized = %d, want 1 (3601s-old segment expired)", len(e.finalized))
	}
	if e.finalized[0].ID != fresh.ID {
		t.Error("wrong segment survived expiry")
	}
	if len(arch.deleted) != 1 || arch.deleted[0] != stale.ID {
		t.Errorf("archiver deletions = %v, want just the stale id", arch.deleted)
	}

	// Boundary is strict: exactly at the window nothing more expires.
	e.expireOld()
	if len(e.finalized) != 1 {
		t.Error("repeated expiry discarded a within-window segment")
	}
}

func TestExpireZeroRetentionKeepsEverything(t *testing.T) {
	p := &fakePolicy{}
	e := New(p, Config{})
	e.now = func() time.Time { return at(1e6) }

	s := timeline.NewSegment(timeline.Visit, sample(0, timeline.Stationary))
	s.Close()
	e.finalized = []*timeline.Segment{s}

	e.expireOld()
	if len(e.finalized) != 1 {
		t.Error("zero retention must disable expiry, not expire everything")
	}
}

func TestOpenSegmentInFinalizedPanics(t *testing.T) {
	p := &fakePolicy{}
	e := New(p, Config{HistoryRetention: time.Hour})
	e.finalized = []*timeline.Segment{
		timeline.NewSegment(timeline.Visit, sample(0, timeline.Stationary)), // never closed
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expireOld accepted an open segment in the finalized store")
		}
	}()
	e.expireOld()
}

func TestRestoreFinalizedSortsByStart(t *testing.T) {
	p := &fakePolicy{}
	e := New(p, Config{HistoryRetention: time.Hour})

	older := timeline.NewSegment(timeline.Visit, sample(0, timeline.Stationary))
	older.Close()
	newer := timeline.NewSegment(timeline.Path, sample(100, timeline.Moving))
	newer.Close()

	e.RestoreFinalized([]*timeline.Segment{newer, older})

	segs := e.FinalizedSegments()
	if len(segs) != 2 {
		t.Fatalf("finalized = %d, want 2", len(segs))
	}
	if segs[0].ID != older.ID {
		t.Error("restored archive not sorted ascending by start")
	}
}
