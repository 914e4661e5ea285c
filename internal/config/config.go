// Package config loads the YAML configuration that drives every other
// package: intervals, retention windows, error-handling thresholds, and
// the HTTP/console surface. There is no environment-variable layer; a
// single file is the source of truth, matching §6's CLI surface ("None
// beyond start/dev... all behaviour driven by a YAML configuration").
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of the YAML document.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	SSL            SSLConfig            `yaml:"ssl"`
	CORS           CORSConfig           `yaml:"cors"`
	Database       DatabaseConfig       `yaml:"database"`
	APIKeys        APIKeysConfig        `yaml:"api_keys"`
	HostMonitoring HostMonitoringConfig `yaml:"host_monitoring"`
	Stats          StatsConfig          `yaml:"stats"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SSLConfig points at an optional key/cert pair on disk (§6 "an optional
// SSL key and certificate pair on disk").
type SSLConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// CORSConfig lists the origins allowed to call the HTTP surface.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig names the embedded or networked relational store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// APIKeysConfig controls the bootstrap/hashing behaviour of §6's
// bearer-key authentication.
type APIKeysConfig struct {
	BootstrapEnabled bool `yaml:"bootstrap_enabled"`
	BcryptCost       int  `yaml:"bcrypt_cost"`
}

// HostMonitoringConfig groups the four sub-sections §6 names verbatim:
// intervals, retention, error_handling, performance.
type HostMonitoringConfig struct {
	Intervals     IntervalsConfig     `yaml:"intervals"`
	Retention     RetentionConfig     `yaml:"retention"`
	ErrorHandling ErrorHandlingConfig `yaml:"error_handling"`
	Performance   PerformanceConfig  `yaml:"performance"`
}

// IntervalsConfig is the per-collector cadence (§4.3: "Network-config
// (cadence: minutes)", "Network-usage (cadence: ~10s)", ...).
type IntervalsConfig struct {
	NetworkConfig    time.Duration `yaml:"network_config"`
	NetworkUsage     time.Duration `yaml:"network_usage"`
	Storage          time.Duration `yaml:"storage"`
	StorageFrequent  time.Duration `yaml:"storage_frequent"`
	Devices          time.Duration `yaml:"devices"`
	SystemMetrics    time.Duration `yaml:"system_metrics"`
	CleanupDailyAt   string        `yaml:"cleanup_daily_at"` // cron spec, e.g. "0 3 * * *"
}

// RetentionConfig is the per-table retention window (§4.5, SPEC_FULL §C:
// "Cleanup Service retention defaults are provided per table").
type RetentionConfig struct {
	NetworkUsage    time.Duration `yaml:"network_usage"`
	NetworkConfig   time.Duration `yaml:"network_config"`
	Storage         time.Duration `yaml:"storage"`
	StorageFrequent time.Duration `yaml:"storage_frequent"`
	Devices         time.Duration `yaml:"devices"`
	SystemMetrics   time.Duration `yaml:"system_metrics"`
	Tasks           time.Duration `yaml:"tasks"`
}

// ErrorHandlingConfig is the consecutive-error state machine's knobs
// (§4.3: "reset_error_count_after", "max_consecutive_errors").
type ErrorHandlingConfig struct {
	MaxConsecutiveErrors  int           `yaml:"max_consecutive_errors"`
	ResetErrorCountAfter  time.Duration `yaml:"reset_error_count_after"`
	BatchSize             int           `yaml:"batch_size"`
}

// PerformanceConfig holds values SPEC_FULL §C calls out as configurable
// though §6 doesn't enumerate them by name: session inactivity threshold
// and the VNC smart-cleanup grace window (§4.8).
type PerformanceConfig struct {
	CommandTimeout            time.Duration `yaml:"command_timeout"`
	SessionInactivityThreshold time.Duration `yaml:"session_inactivity_threshold"`
	VNCCleanupGraceWindow     time.Duration `yaml:"vnc_cleanup_grace_window"`
	MaxOutputBytes            int64         `yaml:"max_output_bytes"`
}

// StatsConfig controls the Query API's time-series sampling defaults
// (§4.7).
type StatsConfig struct {
	DefaultSampleLimit int `yaml:"default_sample_limit"`
	MaxSampleLimit     int `yaml:"max_sample_limit"`
}

// Default returns a Config with the defaults this daemon ships with when
// no file is present (used by `dev`), mirroring the teacher's
// collector.DefaultConfig() default-then-override idiom.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 5174},
		SSL:    SSLConfig{Enabled: false},
		CORS:   CORSConfig{AllowedOrigins: []string{"*"}},
		Database: DatabaseConfig{
			Path: "/var/lib/hostd/hostd.db",
		},
		APIKeys: APIKeysConfig{
			BootstrapEnabled: true,
			BcryptCost:       12,
		},
		HostMonitoring: HostMonitoringConfig{
			Intervals: IntervalsConfig{
				NetworkConfig:   5 * time.Minute,
				NetworkUsage:    10 * time.Second,
				Storage:         5 * time.Minute,
				StorageFrequent: 10 * time.Second,
				Devices:         5 * time.Minute,
				SystemMetrics:   10 * time.Second,
				CleanupDailyAt:  "0 3 * * *",
			},
			Retention: RetentionConfig{
				NetworkUsage:    7 * 24 * time.Hour,
				NetworkConfig:   30 * 24 * time.Hour,
				Storage:         30 * 24 * time.Hour,
				StorageFrequent: 7 * 24 * time.Hour,
				Devices:         30 * 24 * time.Hour,
				SystemMetrics:   7 * 24 * time.Hour,
				Tasks:           14 * 24 * time.Hour,
			},
			ErrorHandling: ErrorHandlingConfig{
				MaxConsecutiveErrors: 5,
				ResetErrorCountAfter: 5 * time.Minute,
				BatchSize:            100,
			},
			Performance: PerformanceConfig{
				CommandTimeout:             30 * time.Second,
				SessionInactivityThreshold: 30 * time.Minute,
				VNCCleanupGraceWindow:      10 * time.Second,
				MaxOutputBytes:             50 * 1024 * 1024,
			},
		},
		Stats: StatsConfig{
			DefaultSampleLimit: 200,
			MaxSampleLimit:     5000,
		},
	}
}

// Load reads and parses a YAML config file, applying Default() for any
// zero-valued field left unset by the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}
