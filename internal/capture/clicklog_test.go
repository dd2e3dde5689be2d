package capture

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zoomcut/zoomcut-agent/internal/timeline"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildClickLog(t *testing.T) {
	raw := &RawCapture{Width: 1920, Height: 1080, Duration: 12.5, FPS: 30}
	keyframes := []timeline.ZoomKeyframe{
		{ID: "autozoom-0", Time: 1.0, X: 100, Y: 200, FrameWidth: 1920, FrameHeight: 1080, ZoomLevel: 2.0, ActiveDuration: 2.0},
		{ID: "autozoom-1", Time: 5.5, X: 800, Y: 400, FrameWidth: 1920, FrameHeight: 1080, ZoomLevel: 2.0, ActiveDuration: 2.0},
	}

	now := time.Unix(1700000000, 0)
	log := BuildClickLog(keyframes, raw, 1.0, 1.0, now)

	if log.TotalClicks != 2 || len(log.Clicks) != 2 {
		t.Fatalf("click count = %d/%d, want 2", log.TotalClicks, len(log.Clicks))
	}
	if log.Width != 1920 || log.Height != 1080 || log.Duration != 12.5 || log.FPS != 30 {
		t.Errorf("envelope geometry = %+v, want raw capture values", log)
	}
	if log.ZoomFactor != 2.0 || log.ZoomTime != 1.0 || log.IdleTime != 1.0 {
		t.Errorf("envelope constants = %v/%v/%v", log.ZoomFactor, log.ZoomTime, log.IdleTime)
	}
	if log.ExportedAt != 1700000000 {
		t.Errorf("exportedAt = %v, want 1700000000", log.ExportedAt)
	}
	if log.Clicks[0].Type != KeyframeType {
		t.Errorf("click type = %q, want %q", log.Clicks[0].Type, KeyframeType)
	}
}

func TestBuildClickLog_ZoomFactorFromKeyframes(t *testing.T) {
	raw := &RawCapture{Width: 1920, Height: 1080, Duration: 5, FPS: 30}
	keyframes := []timeline.ZoomKeyframe{
		{ID: "autozoom-0", Time: 1, X: 10, Y: 10, ZoomLevel: 3.5, ActiveDuration: 2},
		{ID: "autozoom-1", Time: 4, X: 20, Y: 20, ZoomLevel: 2.0, ActiveDuration: 2},
	}

	log := BuildClickLog(keyframes, raw, 1.0, 1.0, time.Now())
	if log.ZoomFactor != 3.5 {
		t.Errorf("zoomFactor = %v, want the first keyframe's level 3.5", log.ZoomFactor)
	}

	empty := BuildClickLog(nil, raw, 1.0, 1.0, time.Now())
	if empty.ZoomFactor != timeline.DefaultZoomLevel {
		t.Errorf("zoomFactor = %v, want default %v", empty.ZoomFactor, timeline.DefaultZoomLevel)
	}
}

func TestClickLog_KeyframesRoundTrip(t *testing.T) {
	raw := &RawCapture{Width: 1280, Height: 720, Duration: 8, FPS: 30}
	keyframes := []timeline.ZoomKeyframe{
		{ID: "autozoom-0", Time: 0.5, X: 10, Y: 20, FrameWidth: 1280, FrameHeight: 720, ZoomLevel: 2.0, ActiveDuration: 2.0},
	}

	log := BuildClickLog(keyframes, raw, 1.0, 1.0, time.Now())

	path := filepath.Join(t.TempDir(), "clicks.json")
	if err := WriteClickLog(path, log); err != nil {
		t.Fatalf("WriteClickLog() error = %v", err)
	}
	loaded, err := ReadClickLog(path)
	if err != nil {
		t.Fatalf("ReadClickLog() error = %v", err)
	}

	got := loaded.Keyframes()
	if len(got) != 1 {
		t.Fatalf("keyframe count = %d, want 1", len(got))
	}
	if got[0] != keyframes[0] {
		t.Errorf("keyframe = %+v, want %+v", got[0], keyframes[0])
	}
}

func TestReadRawCapture_RejectsBadGeometry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	if err := os.WriteFile(path, []byte(`{"events":[],"width":0,"height":1080}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadRawCapture(path); err == nil {
		t.Error("expected error for zero frame width")
	}
}

func TestStubRecorder_WritesArtifactsOnStop(t *testing.T) {
	rec := NewStubRecorder(discardLogger())
	rec.Capture = &RawCapture{
		Events:   []timeline.ClickEvent{{Time: 0.2, X: 50, Y: 60}},
		Width:    1920,
		Height:   1080,
		Duration: 3,
		FPS:      30,
	}

	dir := t.TempDir()
	ctx := context.Background()

	if err := rec.Start(ctx, dir); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !rec.Running() {
		t.Error("Running() = false after Start")
	}
	if err := rec.Start(ctx, dir); err != ErrAlreadyRecording {
		t.Errorf("second Start() error = %v, want ErrAlreadyRecording", err)
	}
	if err := rec.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := rec.Stop(ctx); err != ErrNotRecording {
		t.Errorf("second Stop() error = %v, want ErrNotRecording", err)
	}

	artifacts, err := AwaitArtifacts(ctx, dir, time.Second)
	if err != nil {
		t.Fatalf("AwaitArtifacts() error = %v", err)
	}
	raw, err := ReadRawCapture(artifacts.EventsPath)
	if err != nil {
		t.Fatalf("ReadRawCapture() error = %v", err)
	}
	if len(raw.Events) != 1 || raw.Events[0].X != 50 {
		t.Errorf("raw events = %+v, want the stubbed click", raw.Events)
	}
}

func TestAwaitArtifacts_NormalizesSuffixedNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "out3.mp4"), []byte("v"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "events3.json"), []byte(`{"events":[],"width":1,"height":1}`), 0644); err != nil {
		t.Fatal(err)
	}

	artifacts, err := AwaitArtifacts(context.Background(), dir, time.Second)
	if err != nil {
		t.Fatalf("AwaitArtifacts() error = %v", err)
	}
	if filepath.Base(artifacts.VideoPath) != RawVideoFile {
		t.Errorf("video path = %s, want %s", artifacts.VideoPath, RawVideoFile)
	}
	if _, err := os.Stat(artifacts.EventsPath); err != nil {
		t.Errorf("normalized events file missing: %v", err)
	}
}

func TestAwaitArtifacts_TimesOut(t *testing.T) {
	_, err := AwaitArtifacts(context.Background(), t.TempDir(), 10*time.Millisecond)
	if err == nil {
		t.Error("expected timeout error for empty dir")
	}
}
