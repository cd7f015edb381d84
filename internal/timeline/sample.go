// Package timeline defines the segment data model shared by the
// recording engine, scoring policy, store, and HTTP layer.
package timeline

import (
	"encoding/json"
	"fmt"
	"time"
)

// MotionState is the classified motion of a single location fix,
// produced upstream by the sample source.
type MotionState int

const (
	Moving MotionState = iota
	Uncertain
	Stationary
)

func (m MotionState) String() string {
	switch m {
	case Moving:
		return "moving"
	case Uncertain:
		return "uncertain"
	case Stationary:
		return "stationary"
	}
	return fmt.Sprintf("motionstate(%d)", int(m))
}

// ParseMotionState parses the wire/CLI form of a motion state.
func ParseMotionState(s string) (MotionState, error) {
	switch s {
	case "moving":
		return Moving, nil
	case "uncertain":
		return Uncertain, nil
	case "stationary":
		return Stationary, nil
	}
	return 0, fmt.Errorf("unknown motion state %q", s)
}

// MarshalJSON encodes the state in its wire form ("moving" etc.).
func (m MotionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *MotionState) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseMotionState(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Sample is a single motion-classified location fix. Samples are
// delivered one at a time with non-decreasing timestamps.
type Sample struct {
	Time  time.Time   `json:"time"`
	State MotionState `json:"state"`
	Lat   float64     `json:"lat"`
	Lon   float64     `json:"lon"`
}
