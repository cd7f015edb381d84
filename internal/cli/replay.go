package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hferris/waypoints/internal/config"
	"github.com/hferris/waypoints/internal/engine"
	"github.com/hferris/waypoints/internal/timeline"
)

var replayConfigPath string

var replayCmd = &cobra.Command{
	Use:   "replay <samples.jsonl>",
	Short: "Feed a recorded sample log through the engine and print the timeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().StringVarP(&replayConfigPath, "config", "c", "", "path to YAML config file")
}

// replay line format, one sample per line:
//
//	{"time":"2026-08-30T08:00:00Z","motion":"moving","lat":51.5,"lon":-0.12}
type replayLine struct {
	Time   time.Time `json:"time"`
	Motion string    `json:"motion"`
	Lat    float64   `json:"lat"`
	Lon    float64   `json:"lon"`
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(replayConfigPath)
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open samples: %w", err)
	}
	defer f.Close()

	eng := engine.New(newPolicy(cfg.Policy), engine.Config{
		SamplesPerMinute: cfg.Recorder.SamplesPerMinute,
		HistoryRetention: cfg.Recorder.HistoryRetention.Std(),
	})
	eng.StartRecording()

	fed := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rl replayLine
		if err := json.Unmarshal(line, &rl); err != nil {
			return fmt.Errorf("line %d: %w", fed+1, err)
		}
		state, err := timeline.ParseMotionState(rl.Motion)
		if err != nil {
			return fmt.Errorf("line %d: %w", fed+1, err)
		}
		eng.Submit(timeline.Sample{Time: rl.Time, State: state, Lat: rl.Lat, Lon: rl.Lon})
		fed++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read samples: %w", err)
	}

	active := eng.ActiveSegments()
	finalized := eng.FinalizedSegments()
	fmt.Printf("replayed %d samples → %d active, %d finalized\n\n", fed, len(active), len(finalized))

	printSegments("finalized", finalized)
	printSegments("active", active)
	return nil
}

func printSegments(label string, segs []timeline.Segment) {
	if len(segs) == 0 {
		return
	}
	fmt.Printf("%s:\n", label)
	for _, s := range segs {
		end := "open"
		if s.End != nil {
			end = s.End.Format(time.RFC3339)
		}
		fmt.Printf("  %-5s %s → %s  (%d samples)\n",
			s.Kind, s.Start.Format(time.RFC3339), end, len(s.Samples))
	}
	fmt.Println()
}
