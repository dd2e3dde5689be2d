// Package config provides configuration for the zoomcut agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/zoomcut/zoomcut-agent/internal/timeline"
)

const (
	// Default values
	DefaultPort     = 8790
	DefaultLogLevel = "info"
	DefaultDataDir  = ".zoomcut"
	DefaultFPS      = 30

	// Environment variable names
	EnvPort            = "ZOOMCUT_PORT"
	EnvLogLevel        = "ZOOMCUT_LOG_LEVEL"
	EnvDataDir         = "ZOOMCUT_DATA_DIR"
	EnvRecorderCommand = "ZOOMCUT_RECORDER_COMMAND"
	EnvProfilesPath    = "ZOOMCUT_PROFILES"
	EnvExportWorkers   = "ZOOMCUT_EXPORT_WORKERS"

	// Database filename
	DBFilename = "zoomcut.db"

	// Recording defaults carried over from the recorder: zoom-in time and
	// idle hold time make up a keyframe's active duration.
	DefaultZoomTime = 1.0
	DefaultIdleTime = 1.0

	// Timeouts
	DefaultArtifactTimeout = 10 * time.Second
	DefaultExportTimeout   = 2 * time.Minute
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	SessionsDir() string
	ExportsDir() string
	RecorderCommand() string
	ProfilesPath() string
	ExportWorkers() int
	FPS() int
	ZoomTime() float64
	IdleTime() float64
	ClusterOptions(frameWidth, frameHeight int) timeline.ClusterOptions
	ArtifactTimeout() time.Duration
	ExportTimeout() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port            int
	logLevel        string
	dataDir         string
	recorderCommand string
	profilesPath    string
	exportWorkers   int
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	cfg.recorderCommand = os.Getenv(EnvRecorderCommand)
	cfg.profilesPath = os.Getenv(EnvProfilesPath)

	if w := os.Getenv(EnvExportWorkers); w != "" {
		workers, err := strconv.Atoi(w)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvExportWorkers, err)
		}
		if workers < 1 {
			return nil, fmt.Errorf("invalid %s: must be at least 1", EnvExportWorkers)
		}
		cfg.exportWorkers = workers
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// SessionsDir returns the directory recording sessions are written to
func (c *EnvConfig) SessionsDir() string {
	return filepath.Join(c.dataDir, "sessions")
}

// ExportsDir returns the directory finished exports land in
func (c *EnvConfig) ExportsDir() string {
	return filepath.Join(c.dataDir, "exports")
}

// RecorderCommand returns the external recorder binary, empty when no
// recorder is configured (the agent then runs with the stub recorder).
func (c *EnvConfig) RecorderCommand() string {
	return c.recorderCommand
}

// ProfilesPath returns the YAML render-profile file path, empty for
// built-in profiles only.
func (c *EnvConfig) ProfilesPath() string {
	return c.profilesPath
}

// ExportWorkers returns the configured export concurrency; 0 means defer
// to the doctor's host probe.
func (c *EnvConfig) ExportWorkers() int {
	return c.exportWorkers
}

func (c *EnvConfig) FPS() int {
	return DefaultFPS
}

func (c *EnvConfig) ZoomTime() float64 {
	return DefaultZoomTime
}

func (c *EnvConfig) IdleTime() float64 {
	return DefaultIdleTime
}

// ClusterOptions returns the clustering thresholds for a frame size.
func (c *EnvConfig) ClusterOptions(frameWidth, frameHeight int) timeline.ClusterOptions {
	opts := timeline.DefaultClusterOptions(frameWidth, frameHeight)
	opts.ActiveDuration = c.ZoomTime() + c.IdleTime()
	return opts
}

func (c *EnvConfig) ArtifactTimeout() time.Duration {
	return DefaultArtifactTimeout
}

func (c *EnvConfig) ExportTimeout() time.Duration {
	return DefaultExportTimeout
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
