package doctor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type fakeProber struct {
	calls atomic.Int32
	caps  *Capabilities
	err   error
}

func (f *fakeProber) Probe(ctx context.Context) (*Capabilities, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	caps := *f.caps
	caps.ProbedAt = time.Now()
	return &caps, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readyCaps() *Capabilities {
	return &Capabilities{
		FFmpeg:             DepInfo{Available: true, Version: "6.1.1"},
		FFprobe:            DepInfo{Available: true, Version: "6.1.1"},
		HasDrawtext:        true,
		Encoder:            "libx264",
		CPUCount:           8,
		MemoryMB:           16384,
		RecommendedWorkers: 4,
		Ready:              true,
	}
}

func TestCachedDoctor_Get_CachesResult(t *testing.T) {
	fake := &fakeProber{caps: readyCaps()}
	d := NewCachedDoctor(fake, testLogger())
	ctx := context.Background()

	first, err := d.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !first.Ready {
		t.Error("capabilities should be ready")
	}

	if _, err := d.Get(ctx); err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if fake.calls.Load() != 1 {
		t.Errorf("prober called %d times, want 1 (cached)", fake.calls.Load())
	}
}

func TestCachedDoctor_Refresh_Reprobes(t *testing.T) {
	fake := &fakeProber{caps: readyCaps()}
	d := NewCachedDoctor(fake, testLogger())
	ctx := context.Background()

	d.Get(ctx)
	d.Refresh(ctx)

	if fake.calls.Load() != 2 {
		t.Errorf("prober called %d times, want 2", fake.calls.Load())
	}
}

func TestCachedDoctor_Invalidate(t *testing.T) {
	fake := &fakeProber{caps: readyCaps()}
	d := NewCachedDoctor(fake, testLogger())
	ctx := context.Background()

	d.Get(ctx)
	d.Invalidate()
	if d.Peek() != nil {
		t.Error("Peek() should be nil after Invalidate()")
	}

	d.Get(ctx)
	if fake.calls.Load() != 2 {
		t.Errorf("prober called %d times, want 2 after invalidation", fake.calls.Load())
	}
}

func TestCachedDoctor_StaleCacheOnFailure(t *testing.T) {
	fake := &fakeProber{caps: readyCaps()}
	d := NewCachedDoctor(fake, testLogger())
	ctx := context.Background()

	if _, err := d.Get(ctx); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	fake.err = fmt.Errorf("probe exploded")
	caps, err := d.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh() should fall back to stale cache, got error %v", err)
	}
	if caps == nil || !caps.Ready {
		t.Error("expected stale ready capabilities")
	}
}

func TestCachedDoctor_FailureWithoutCache(t *testing.T) {
	fake := &fakeProber{err: fmt.Errorf("probe exploded")}
	d := NewCachedDoctor(fake, testLogger())

	if _, err := d.Get(context.Background()); err == nil {
		t.Error("Get() should fail when probe fails with no cache")
	}
}

func TestParseVersionLine(t *testing.T) {
	tests := []struct {
		out  string
		want string
	}{
		{"ffmpeg version 6.1.1 Copyright (c) 2000-2023\nbuilt with gcc", "6.1.1"},
		{"ffprobe version n7.0 Copyright", "n7.0"},
		{"garbage banner", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := parseVersionLine(tt.out); got != tt.want {
			t.Errorf("parseVersionLine(%q) = %q, want %q", tt.out, got, tt.want)
		}
	}
}

func TestRecommendWorkers(t *testing.T) {
	tests := []struct {
		name     string
		cpu      int
		memoryMB uint64
		want     int
	}{
		{"big workstation", 16, 32768, 4},
		{"cpu bound", 4, 32768, 2},
		{"memory bound", 16, 4096, 2},
		{"tiny host", 2, 2048, 1},
		{"zero info", 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := recommendWorkers(tt.cpu, tt.memoryMB); got != tt.want {
				t.Errorf("recommendWorkers(%d, %d) = %d, want %d", tt.cpu, tt.memoryMB, got, tt.want)
			}
		})
	}
}
