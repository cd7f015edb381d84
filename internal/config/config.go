// Package config holds waypoints configuration: defaults in code,
// optional overrides from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all waypoints configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Recorder RecorderConfig `yaml:"recorder"`
	Policy   PolicyConfig   `yaml:"policy"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RecorderConfig carries the engine's recognized options.
type RecorderConfig struct {
	// SamplesPerMinute sets the minimum inter-sample spacing to
	// 60/SamplesPerMinute seconds.
	SamplesPerMinute float64 `yaml:"samples_per_minute"`
	// HistoryRetention is the expiry window for finalized segments.
	HistoryRetention Duration `yaml:"history_retention"`
}

// PolicyConfig tunes the default scoring heuristic.
type PolicyConfig struct {
	MinKeepSamples  int      `yaml:"min_keep_samples"`
	MinKeepDuration Duration `yaml:"min_keep_duration"`
	MaxMergeGap     Duration `yaml:"max_merge_gap"`
	MaxSpeedMps     float64  `yaml:"max_speed_mps"`
}

// Duration parses human-readable durations ("90m", "24h") from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 38080,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Recorder: RecorderConfig{
			SamplesPerMinute: 60,
			HistoryRetention: Duration(24 * time.Hour),
		},
		Policy: PolicyConfig{
			MinKeepSamples:  3,
			MinKeepDuration: Duration(2 * time.Minute),
			MaxMergeGap:     Duration(5 * time.Minute),
			MaxSpeedMps:     55,
		},
	}
}

// Load reads a YAML config file over the defaults. A missing path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
