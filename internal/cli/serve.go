package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hferris/waypoints/internal/config"
	"github.com/hferris/waypoints/internal/engine"
	"github.com/hferris/waypoints/internal/policy"
	"github.com/hferris/waypoints/internal/server"
	"github.com/hferris/waypoints/internal/store"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and begin recording",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "path to YAML config file")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return err
	}

	// Resolve database path
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	eng := engine.New(newPolicy(cfg.Policy), engine.Config{
		SamplesPerMinute: cfg.Recorder.SamplesPerMinute,
		HistoryRetention: cfg.Recorder.HistoryRetention.Std(),
	})
	eng.SetArchiver(db)

	// Reload the durable archive so expiry keeps applying across restarts.
	archived, err := db.ListSegments()
	if err != nil {
		return fmt.Errorf("load archive: %w", err)
	}
	eng.RestoreFinalized(archived)
	eng.StartRecording()

	srv := server.New(eng, db, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "waypoints serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s (%d archived)\n", dbPath, len(archived))
		fmt.Fprintf(os.Stderr, "  rate: %.1f samples/min, retention: %s\n",
			cfg.Recorder.SamplesPerMinute, cfg.Recorder.HistoryRetention.Std())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")
	eng.StopRecording()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

// newPolicy builds the default heuristic from config, keeping defaults
// for unset fields.
func newPolicy(pc config.PolicyConfig) engine.Policy {
	h := policy.New()
	if pc.MinKeepSamples > 0 {
		h.MinKeepSamples = pc.MinKeepSamples
	}
	if pc.MinKeepDuration.Std() > 0 {
		h.MinKeepDuration = pc.MinKeepDuration.Std()
	}
	if pc.MaxMergeGap.Std() > 0 {
		h.MaxMergeGap = pc.MaxMergeGap.Std()
	}
	if pc.MaxSpeedMps > 0 {
		h.MaxSpeedMps = pc.MaxSpeedMps
	}
	return h
}
