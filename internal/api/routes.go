// Package api exposes the agent's local HTTP surface: session lifecycle,
// timeline compilation, export jobs, and playback.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zoomcut/zoomcut-agent/internal/export"
	"github.com/zoomcut/zoomcut-agent/internal/studio"
	"github.com/zoomcut/zoomcut-agent/internal/timeline"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/sessions", listSessionsHandler(cfg))
		r.Post("/sessions", startSessionHandler(cfg))
		r.Get("/sessions/{id}", getSessionHandler(cfg))
		r.Post("/sessions/{id}/stop", stopSessionHandler(cfg))
		r.Get("/sessions/{id}/clicks", clickLogHandler(cfg))
		r.Post("/compile", compileHandler(cfg))
		r.Post("/exports", exportHandler(cfg))
		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
		r.Get("/playback/file", playbackHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sessions, _ := cfg.StudioService.ListSessions(ctx)
		jobs, _ := cfg.Repository.ListJobs(ctx, 10)

		state := "idle"
		recording := false
		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""

		for _, s := range sessions {
			if s.Status == studio.SessionStatusRecording {
				state = "recording"
				recording = true
			}
		}

		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		for _, j := range jobs {
			if j.Status == studio.JobStatusRunning {
				if !recording {
					state = "exporting"
				}
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == studio.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}

		if lastError != "" && state == "idle" {
			state = "error"
		}

		resp := StatusResponse{
			State:         state,
			LastError:     lastError,
			Recording:     recording,
			SessionsCount: len(sessions),
			JobsRunning:   jobsRunning,
			ActiveJob:     activeJob,
		}

		if cfg.Doctor != nil {
			caps, err := cfg.Doctor.Get(ctx)
			if err == nil && caps != nil {
				resp.Doctor = &DoctorResponse{
					Ready:              caps.Ready,
					FFmpegVersion:      caps.FFmpeg.Version,
					HasDrawtext:        caps.HasDrawtext,
					Encoder:            caps.Encoder,
					RecommendedWorkers: caps.RecommendedWorkers,
					LastProbeAt:        caps.ProbedAt.Format(time.RFC3339),
				}
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func listSessionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := cfg.StudioService.ListSessions(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list sessions", "INTERNAL_ERROR")
			return
		}

		resp := SessionsResponse{Sessions: make([]SessionResponse, len(sessions))}
		for i, s := range sessions {
			resp.Sessions[i] = SessionToResponse(s)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func startSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := cfg.StudioService.StartSession(r.Context())
		if err != nil {
			WriteError(w, http.StatusConflict, err.Error(), "CONFLICT")
			return
		}

		WriteJSON(w, http.StatusCreated, SessionToResponse(session))
	}
}

func getSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		session, err := cfg.StudioService.GetSession(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if session == nil {
			WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, SessionToResponse(session))
	}
}

func stopSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		session, err := cfg.StudioService.StopSession(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, SessionToResponse(session))
	}
}

func clickLogHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		log, err := cfg.StudioService.ClickLog(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, log)
	}
}

func compileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CompileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		plan, segments, err := cfg.StudioService.CompilePlan(req.Duration, req.Zooms, req.Overlays)
		if err != nil {
			var verr *timeline.ValidationError
			if errors.As(err, &verr) {
				WriteValidationError(w, verr)
				return
			}
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		resp := CompileResponse{Segments: make([]SegmentResponse, len(segments)), Plan: plan}
		for i, seg := range segments {
			resp.Segments[i] = SegmentToResponse(seg)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.SessionID == "" {
			WriteError(w, http.StatusBadRequest, "session_id is required", "BAD_REQUEST")
			return
		}

		filename := req.Filename
		if req.OutputDir != "" {
			if req.Filename == "" {
				WriteError(w, http.StatusBadRequest, "filename is required with output_dir", "BAD_REQUEST")
				return
			}
			if err := export.ValidateOutputDir(req.OutputDir); err != nil {
				WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
				return
			}
			filename = filepath.Join(req.OutputDir, req.Filename)
		}

		var effects *studio.ExportEffects
		if len(req.Zooms) > 0 || len(req.Overlays) > 0 {
			effects = &studio.ExportEffects{Zooms: req.Zooms, Overlays: req.Overlays}
		}

		job, err := cfg.StudioService.QueueExport(r.Context(), req.SessionID, req.Profile, filename, effects)
		if err != nil {
			var verr *timeline.ValidationError
			if errors.As(err, &verr) {
				WriteValidationError(w, verr)
				return
			}
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusAccepted, ExportResponse{JobID: job.ID})
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		job, err := cfg.Repository.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}
