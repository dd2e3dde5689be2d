package studio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/zoomcut/zoomcut-agent/internal/capture"
	"github.com/zoomcut/zoomcut-agent/internal/config"
	"github.com/zoomcut/zoomcut-agent/internal/media"
	"github.com/zoomcut/zoomcut-agent/internal/render"
	"github.com/zoomcut/zoomcut-agent/internal/timeline"
)

type StudioService interface {
	StartSession(ctx context.Context) (*Session, error)
	StopSession(ctx context.Context, id string) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context) ([]*Session, error)
	GetKeyframes(ctx context.Context, sessionID string) ([]timeline.ZoomKeyframe, error)
	ClickLog(ctx context.Context, sessionID string) (*capture.ClickLog, error)
	QueueExport(ctx context.Context, sessionID, profile, filename string, effects *ExportEffects) (*Job, error)
	CompilePlan(duration float64, zooms []timeline.ZoomEffect, overlays []timeline.TextOverlay) (*render.Plan, []timeline.Segment, error)
}

type Service struct {
	repo     Repository
	recorder capture.Recorder
	ffmpeg   media.FFmpeg
	cfg      config.Config
	logger   *slog.Logger
}

func NewService(repo Repository, recorder capture.Recorder, ffmpeg media.FFmpeg, cfg config.Config, logger *slog.Logger) *Service {
	return &Service{repo: repo, recorder: recorder, ffmpeg: ffmpeg, cfg: cfg, logger: logger}
}

// StartSession allocates a session directory and launches the recorder.
// Only one session records at a time; the recorder enforces it.
func (s *Service) StartSession(ctx context.Context) (*Session, error) {
	id := NewID()
	dir := filepath.Join(s.cfg.SessionsDir(), id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	if err := s.recorder.Start(ctx, dir); err != nil {
		os.Remove(dir)
		return nil, err
	}

	now := time.Now()
	session := &Session{
		ID:        id,
		Status:    SessionStatusRecording,
		Dir:       dir,
		FPS:       s.cfg.FPS(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		s.recorder.Stop(ctx)
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("session started", "session_id", id, "dir", dir)
	}
	return session, nil
}

// StopSession ends the recording, waits for the recorder's artifacts,
// clusters the raw click events into zoom keyframes, and persists both
// the keyframes and the click-log envelope. The raw event log is never
// modified after this point.
func (s *Service) StopSession(ctx context.Context, id string) (*Session, error) {
	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session not found")
	}
	if session.Status != SessionStatusRecording {
		return nil, fmt.Errorf("session is not recording")
	}

	if err := s.recorder.Stop(ctx); err != nil {
		s.failSession(ctx, id, err)
		return nil, err
	}

	artifacts, err := capture.AwaitArtifacts(ctx, session.Dir, s.cfg.ArtifactTimeout())
	if err != nil {
		s.failSession(ctx, id, err)
		return nil, err
	}

	raw, err := capture.ReadRawCapture(artifacts.EventsPath)
	if err != nil {
		s.failSession(ctx, id, err)
		return nil, err
	}

	duration := raw.Duration
	width, height := raw.Width, raw.Height
	if s.ffmpeg != nil {
		if probe, err := s.ffmpeg.Probe(ctx, artifacts.VideoPath); err == nil {
			if probe.Duration > 0 {
				duration = probe.Duration
			}
			if probe.Width > 0 && probe.Height > 0 {
				width, height = probe.Width, probe.Height
			}
		} else if s.logger != nil {
			s.logger.Warn("probe failed, using recorder metadata", "session_id", id, "error", err)
		}
	}

	keyframes := timeline.Cluster(raw.Events, s.cfg.ClusterOptions(width, height))

	if err := s.repo.UpdateSessionMedia(ctx, id, width, height, duration, raw.FPS); err != nil {
		s.failSession(ctx, id, err)
		return nil, err
	}
	if err := s.repo.ReplaceKeyframes(ctx, id, keyframes); err != nil {
		s.failSession(ctx, id, err)
		return nil, err
	}

	clickLog := capture.BuildClickLog(keyframes, raw, s.cfg.ZoomTime(), s.cfg.IdleTime(), time.Now())
	clickLog.Duration = duration
	clickLog.Width = width
	clickLog.Height = height
	if err := capture.WriteClickLog(filepath.Join(session.Dir, capture.ClickLogFile), clickLog); err != nil {
		s.failSession(ctx, id, err)
		return nil, err
	}

	if err := s.repo.UpdateSessionStatus(ctx, id, SessionStatusReady, ""); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("session ready", "session_id", id,
			"clicks", len(raw.Events), "keyframes", len(keyframes), "duration", duration)
	}
	return s.repo.GetSession(ctx, id)
}

func (s *Service) failSession(ctx context.Context, id string, cause error) {
	if err := s.repo.UpdateSessionStatus(ctx, id, SessionStatusFailed, cause.Error()); err != nil && s.logger != nil {
		s.logger.Error("failed to mark session failed", "session_id", id, "error", err)
	}
}

func (s *Service) GetSession(ctx context.Context, id string) (*Session, error) {
	return s.repo.GetSession(ctx, id)
}

func (s *Service) ListSessions(ctx context.Context) ([]*Session, error) {
	return s.repo.ListSessions(ctx)
}

func (s *Service) GetKeyframes(ctx context.Context, sessionID string) ([]timeline.ZoomKeyframe, error) {
	return s.repo.GetKeyframes(ctx, sessionID)
}

// ClickLog reads the session's persisted click-log envelope.
func (s *Service) ClickLog(ctx context.Context, sessionID string) (*capture.ClickLog, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session not found")
	}
	if session.Status != SessionStatusReady {
		return nil, fmt.Errorf("session is not ready")
	}
	return capture.ReadClickLog(filepath.Join(session.Dir, capture.ClickLogFile))
}

// QueueExport creates a pending export job for a ready session. The
// runner picks it up on its next poll. When effects carries a user-edited
// timeline it is compiled here once so malformed intervals are rejected
// synchronously instead of failing the job later.
func (s *Service) QueueExport(ctx context.Context, sessionID, profile, filename string, effects *ExportEffects) (*Job, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session not found")
	}
	if session.Status != SessionStatusReady {
		return nil, fmt.Errorf("session is not ready for export")
	}

	if effects != nil {
		if _, _, err := s.CompilePlan(session.Duration, effects.Zooms, effects.Overlays); err != nil {
			return nil, err
		}
	}

	if profile == "" {
		profile = "export"
	}

	now := time.Now()
	job := &Job{
		ID:         NewID(),
		Type:       JobTypeExport,
		SessionID:  sessionID,
		Status:     JobStatusPending,
		Profile:    profile,
		OutputPath: filename,
		Effects:    effects,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("export job created", "job_id", job.ID, "session_id", sessionID, "profile", profile)
	}
	return job, nil
}

// CompilePlan runs the timeline compiler and the render emitter over one
// set of effects. It holds no state and is safe for concurrent use.
func (s *Service) CompilePlan(duration float64, zooms []timeline.ZoomEffect, overlays []timeline.TextOverlay) (*render.Plan, []timeline.Segment, error) {
	segments, err := timeline.Compile(duration, zooms, overlays, timeline.DefaultZoom(duration))
	if err != nil {
		return nil, nil, err
	}
	plan, err := render.Emit(segments)
	if err != nil {
		return nil, nil, err
	}
	return plan, segments, nil
}
