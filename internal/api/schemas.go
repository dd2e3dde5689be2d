package api

import (
	"time"

	"github.com/zoomcut/zoomcut-agent/internal/render"
	"github.com/zoomcut/zoomcut-agent/internal/studio"
	"github.com/zoomcut/zoomcut-agent/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State         string          `json:"state"`
	LastError     string          `json:"last_error,omitempty"`
	Recording     bool            `json:"recording"`
	SessionsCount int             `json:"sessions_count"`
	JobsRunning   int             `json:"jobs_running"`
	ActiveJob     *JobResponse    `json:"active_job,omitempty"`
	Doctor        *DoctorResponse `json:"doctor,omitempty"`
}

type DoctorResponse struct {
	Ready              bool   `json:"ready"`
	FFmpegVersion      string `json:"ffmpeg_version,omitempty"`
	HasDrawtext        bool   `json:"has_drawtext"`
	Encoder            string `json:"encoder,omitempty"`
	RecommendedWorkers int    `json:"recommended_workers"`
	LastProbeAt        string `json:"last_probe_at,omitempty"`
}

type SessionResponse struct {
	ID        string  `json:"id"`
	Status    string  `json:"status"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Duration  float64 `json:"duration"`
	FPS       int     `json:"fps"`
	Error     string  `json:"error,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type SessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

// CompileRequest carries a full effect timeline. The zoom and overlay
// records use the same field names the click log and the UI exchange.
type CompileRequest struct {
	Duration float64                `json:"duration"`
	Zooms    []timeline.ZoomEffect  `json:"zoomEffects"`
	Overlays []timeline.TextOverlay `json:"textOverlays"`
}

type CompileResponse struct {
	Segments []SegmentResponse `json:"segments"`
	Plan     *render.Plan      `json:"plan"`
}

type SegmentResponse struct {
	StartTime float64                `json:"startTime"`
	EndTime   float64                `json:"endTime"`
	Zoom      timeline.ZoomEffect    `json:"zoom"`
	Overlays  []timeline.TextOverlay `json:"overlays,omitempty"`
}

// ExportRequest queues a render of one session. When zoomEffects or
// textOverlays are present they are the timeline to render; otherwise the
// session's clustered keyframes are used. output_dir overrides the
// agent's exports directory and must already exist.
type ExportRequest struct {
	SessionID string                 `json:"session_id"`
	Profile   string                 `json:"profile,omitempty"`
	Filename  string                 `json:"filename,omitempty"`
	OutputDir string                 `json:"output_dir,omitempty"`
	Zooms     []timeline.ZoomEffect  `json:"zoomEffects,omitempty"`
	Overlays  []timeline.TextOverlay `json:"textOverlays,omitempty"`
}

type ExportResponse struct {
	JobID string `json:"job_id"`
}

type JobResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	SessionID  string `json:"session_id,omitempty"`
	Progress   int    `json:"progress"`
	Profile    string `json:"profile"`
	OutputPath string `json:"output_path,omitempty"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

func SessionToResponse(s *studio.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		Status:    s.Status,
		Width:     s.Width,
		Height:    s.Height,
		Duration:  s.Duration,
		FPS:       s.FPS,
		Error:     s.Error,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
}

func JobToResponse(j *studio.Job) JobResponse {
	return JobResponse{
		ID:         j.ID,
		Type:       j.Type,
		Status:     j.Status,
		SessionID:  j.SessionID,
		Progress:   j.Progress,
		Profile:    j.Profile,
		OutputPath: j.OutputPath,
		Error:      j.Error,
		CreatedAt:  j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  j.UpdatedAt.Format(time.RFC3339),
	}
}

func SegmentToResponse(seg timeline.Segment) SegmentResponse {
	return SegmentResponse{
		StartTime: seg.StartTime,
		EndTime:   seg.EndTime,
		Zoom:      seg.Zoom,
		Overlays:  seg.Overlays,
	}
}
