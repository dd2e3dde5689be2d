package studio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zoomcut/zoomcut-agent/internal/capture"
	"github.com/zoomcut/zoomcut-agent/internal/config"
	"github.com/zoomcut/zoomcut-agent/internal/export"
	"github.com/zoomcut/zoomcut-agent/internal/media"
	"github.com/zoomcut/zoomcut-agent/internal/timeline"
)

// Runner polls for pending export jobs and renders them. Up to workers
// jobs encode concurrently; each job runs its own ffmpeg passes.
type Runner struct {
	service      *Service
	repo         Repository
	ffmpeg       media.FFmpeg
	profiles     *config.Profiles
	exportsDir   string
	workers      int
	logger       *slog.Logger
	pollInterval time.Duration
	jobTimeout   time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRunner(service *Service, repo Repository, ffmpeg media.FFmpeg, profiles *config.Profiles, exportsDir string, workers int, jobTimeout time.Duration, logger *slog.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		service:      service,
		repo:         repo,
		ffmpeg:       ffmpeg,
		profiles:     profiles,
		exportsDir:   exportsDir,
		workers:      workers,
		logger:       logger,
		pollInterval: 2 * time.Second,
		jobTimeout:   jobTimeout,
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("export runner started", "workers", r.workers)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("export runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processPendingJobs(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("export runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("export runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) processPendingJobs(ctx context.Context) {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			switch job.Type {
			case JobTypeExport:
				r.processExportJob(gctx, job)
			default:
				r.logger.Warn("unknown job type", "type", job.Type)
				r.repo.UpdateJobStatus(gctx, job.ID, JobStatusFailed, "unknown job type")
			}
			return nil
		})
	}
	g.Wait()
}

func (r *Runner) processExportJob(ctx context.Context, job *Job) {
	logger := r.logger.With("job_id", job.ID, "session_id", job.SessionID)

	session, err := r.repo.GetSession(ctx, job.SessionID)
	if err != nil || session == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "session not found")
		return
	}
	if session.Status != SessionStatusReady {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "session is not ready")
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")
	logger.Info("export started", "profile", job.Profile)

	if r.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.jobTimeout)
		defer cancel()
	}

	// A job queued with an edited timeline renders exactly that timeline;
	// otherwise the session's clustered keyframes seed the zooms.
	var zooms []timeline.ZoomEffect
	var overlays []timeline.TextOverlay
	if job.Effects != nil {
		zooms = job.Effects.Zooms
		overlays = job.Effects.Overlays
	} else {
		keyframes, err := r.repo.GetKeyframes(ctx, job.SessionID)
		if err != nil {
			r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("load keyframes: %v", err))
			return
		}
		zooms = make([]timeline.ZoomEffect, 0, len(keyframes))
		for _, k := range keyframes {
			zooms = append(zooms, k.Effect(session.Duration))
		}
	}

	plan, _, err := r.service.CompilePlan(session.Duration, zooms, overlays)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("compile timeline: %v", err))
		return
	}

	graph, err := media.FilterGraph(plan, session.Width, session.Height)
	if err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("build filtergraph: %v", err))
		return
	}
	r.repo.UpdateJobProgress(ctx, job.ID, 10)

	// The queued output path may carry a caller-supplied directory; it
	// was validated at queue time but the filesystem can have changed
	// since, so check again before writing.
	destDir := r.exportsDir
	requested := job.OutputPath
	if dir := filepath.Dir(requested); requested != "" && dir != "." {
		if err := export.ValidateOutputDir(dir); err != nil {
			r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("output dir: %v", err))
			return
		}
		destDir = dir
		requested = filepath.Base(requested)
	} else if err := os.MkdirAll(destDir, 0755); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("create exports dir: %v", err))
		return
	}

	profile := r.profiles.Get(job.Profile)
	inputPath := filepath.Join(session.Dir, capture.RawVideoFile)
	renderedPath := filepath.Join(session.Dir, "rendered.mp4")
	outputPath := filepath.Join(destDir, export.OutputFilename(requested, session.ID))

	renderJob := media.RenderJob{
		InputPath:   inputPath,
		OutputPath:  renderedPath,
		FilterGraph: graph,
		Duration:    session.Duration,
		Encoder:     profile.Encoder,
		Preset:      profile.Preset,
		CRF:         profile.CRF,
	}
	if err := r.ffmpeg.Render(ctx, renderJob); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("render: %v", err))
		return
	}
	r.repo.UpdateJobProgress(ctx, job.ID, 70)

	if err := r.ffmpeg.MuxAudio(ctx, renderedPath, inputPath, outputPath); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("mux audio: %v", err))
		return
	}
	os.Remove(renderedPath)

	r.repo.UpdateJobOutput(ctx, job.ID, outputPath)
	r.repo.UpdateJobProgress(ctx, job.ID, 100)
	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	logger.Info("export completed", "output", outputPath, "segments", plan.Concat.SegmentCount)
}
