package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hferris/waypoints/internal/timeline"
)

// SaveSegment upserts a finalized segment into the archive. Only
// closed segments belong here; a nil End is rejected.
func (db *DB) SaveSegment(s *timeline.Segment) error {
	if s.End == nil {
		return fmt.Errorf("save segment %s: segment is still open", s.ID)
	}
	samples, err := json.Marshal(s.Samples)
	if err != nil {
		return fmt.Errorf("encode samples for %s: %w", s.ID, err)
	}

	_, err = db.Exec(`
		INSERT INTO segments (id, kind, start_ms, end_ms, prev_id, next_id, samples, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			start_ms = excluded.start_ms,
			end_ms = excluded.end_ms,
			prev_id = excluded.prev_id,
			next_id = excluded.next_id,
			samples = excluded.samples
	`, s.ID, s.Kind.String(), s.Start.UnixMilli(), s.End.UnixMilli(),
		nullable(s.Prev), nullable(s.Next), string(samples), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert segment %s: %w", s.ID, err)
	}
	return nil
}

// DeleteSegment removes an expired segment from the archive.
func (db *DB) DeleteSegment(id string) error {
	if _, err := db.Exec(`DELETE FROM segments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete segment %s: %w", id, err)
	}
	return nil
}

// ListSegments returns all archived segments ascending by start.
func (db *DB) ListSegments() ([]*timeline.Segment, error) {
	rows, err := db.Query(`
		SELECT id, kind, start_ms, end_ms, prev_id, next_id, samples
		FROM segments ORDER BY start_ms ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var out []*timeline.Segment
	for rows.Next() {
		var (
			s       timeline.Segment
			kind    string
			startMS int64
			endMS   int64
			prev    sql.NullString
			next    sql.NullString
			samples string
		)
		if err := rows.Scan(&s.ID, &kind, &startMS, &endMS, &prev, &next, &samples); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		k, err := timeline.ParseKind(kind)
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", s.ID, err)
		}
		s.Kind = k
		s.Start = time.UnixMilli(startMS)
		end := time.UnixMilli(endMS)
		s.End = &end
		s.Prev = prev.String
		s.Next = next.String
		if err := json.Unmarshal([]byte(samples), &s.Samples); err != nil {
			return nil, fmt.Errorf("decode samples for %s: %w", s.ID, err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// CountSegments returns the number of archived segments.
func (db *DB) CountSegments() (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM segments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count segments: %w", err)
	}
	return n, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
