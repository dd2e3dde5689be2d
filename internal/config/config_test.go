package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	os.Unsetenv(EnvPort)
	os.Unsetenv(EnvLogLevel)
	os.Unsetenv(EnvExportWorkers)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel(), DefaultLogLevel)
	}
	if cfg.ExportWorkers() != 0 {
		t.Errorf("ExportWorkers = %d, want 0 (deferred to doctor)", cfg.ExportWorkers())
	}
	if cfg.FPS() != DefaultFPS {
		t.Errorf("FPS = %d, want %d", cfg.FPS(), DefaultFPS)
	}
}

func TestNew_PortFromEnv(t *testing.T) {
	os.Setenv(EnvPort, "9100")
	defer os.Unsetenv(EnvPort)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Port())
	}
}

func TestNew_InvalidPort(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"not a number", "abc"},
		{"zero", "0"},
		{"too large", "70000"},
		{"negative", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv(EnvPort, tt.value)
			defer os.Unsetenv(EnvPort)

			if _, err := New(); err == nil {
				t.Errorf("New() with %s=%q: expected error", EnvPort, tt.value)
			}
		})
	}
}

func TestNew_InvalidWorkers(t *testing.T) {
	os.Setenv(EnvExportWorkers, "0")
	defer os.Unsetenv(EnvExportWorkers)

	if _, err := New(); err == nil {
		t.Error("expected error for zero export workers")
	}
}

func TestDataDirPaths(t *testing.T) {
	os.Setenv(EnvDataDir, "/tmp/zoomcut-test")
	defer os.Unsetenv(EnvDataDir)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBPath() != filepath.Join("/tmp/zoomcut-test", DBFilename) {
		t.Errorf("DBPath = %q", cfg.DBPath())
	}
	if !strings.HasSuffix(cfg.SessionsDir(), "sessions") {
		t.Errorf("SessionsDir = %q, want sessions suffix", cfg.SessionsDir())
	}
	if !strings.HasSuffix(cfg.ExportsDir(), "exports") {
		t.Errorf("ExportsDir = %q, want exports suffix", cfg.ExportsDir())
	}
}

func TestClusterOptions(t *testing.T) {
	os.Unsetenv(EnvDataDir)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	opts := cfg.ClusterOptions(1920, 1080)
	if opts.FrameWidth != 1920 || opts.FrameHeight != 1080 {
		t.Errorf("frame = %dx%d, want 1920x1080", opts.FrameWidth, opts.FrameHeight)
	}
	want := DefaultZoomTime + DefaultIdleTime
	if opts.ActiveDuration != want {
		t.Errorf("ActiveDuration = %v, want %v", opts.ActiveDuration, want)
	}
}
