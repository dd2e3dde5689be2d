package api

import (
	"net/http"
	"path/filepath"

	"github.com/zoomcut/zoomcut-agent/internal/capture"
	"github.com/zoomcut/zoomcut-agent/internal/studio"
)

// playbackHandler streams either a session's raw recording or a finished
// export, resolved by id. The playback server restricts the actual reads
// to the agent's data directories.
func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")
		jobID := r.URL.Query().Get("job_id")

		var path string
		switch {
		case sessionID != "":
			session, err := cfg.StudioService.GetSession(r.Context(), sessionID)
			if err != nil {
				WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
				return
			}
			if session == nil {
				WriteError(w, http.StatusNotFound, "session not found", "NOT_FOUND")
				return
			}
			path = filepath.Join(session.Dir, capture.RawVideoFile)

		case jobID != "":
			job, err := cfg.Repository.GetJob(r.Context(), jobID)
			if err != nil {
				WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
				return
			}
			if job == nil {
				WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
				return
			}
			if job.Status != studio.JobStatusCompleted || job.OutputPath == "" {
				WriteError(w, http.StatusConflict, "export is not finished", "CONFLICT")
				return
			}
			path = job.OutputPath

		default:
			WriteError(w, http.StatusBadRequest, "session_id or job_id is required", "BAD_REQUEST")
			return
		}

		if err := cfg.PlaybackServer.ServeFile(w, r, path); err != nil {
			cfg.Logger.Error("playback error", "error", err, "path", path)
		}
	}
}
