// Package studio manages recording sessions and export jobs: the
// stateful half of the agent sitting between the recorder, the timeline
// compiler, and the encoder.
package studio

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/zoomcut/zoomcut-agent/internal/timeline"
)

const (
	SessionStatusRecording = "recording"
	SessionStatusReady     = "ready"
	SessionStatusFailed    = "failed"

	JobTypeExport = "export"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Session is one recording take: its artifact directory, the probed
// frame geometry, and the clustering outcome.
type Session struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Dir       string    `json:"dir"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Duration  float64   `json:"duration"`
	FPS       int       `json:"fps"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExportEffects is the user-edited timeline attached to an export job.
// When nil the runner falls back to the session's clustered keyframes.
type ExportEffects struct {
	Zooms    []timeline.ZoomEffect  `json:"zoomEffects,omitempty"`
	Overlays []timeline.TextOverlay `json:"textOverlays,omitempty"`
}

// Job is one queued export pass over a ready session.
type Job struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	SessionID  string         `json:"session_id,omitempty"`
	Status     string         `json:"status"`
	Progress   int            `json:"progress"`
	Profile    string         `json:"profile"`
	OutputPath string         `json:"output_path,omitempty"`
	Effects    *ExportEffects `json:"effects,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func NewID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
