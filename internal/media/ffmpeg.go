// Package media is the boundary to the external renderer. The compiler
// core emits renderer-agnostic instructions; this package translates them
// into an ffmpeg filtergraph and drives the ffmpeg/ffprobe binaries.
package media

import (
	"context"
	"log/slog"
)

// FFmpeg is the external encoder contract. The agent owns process
// lifecycle and timeouts through the context; implementations must not
// keep state between calls.
type FFmpeg interface {
	// Probe reports container-level metadata for a media file.
	Probe(ctx context.Context, path string) (*ProbeResult, error)

	// Render applies a filtergraph to the input and encodes the result
	// with the given profile, truncated to duration seconds.
	Render(ctx context.Context, job RenderJob) error

	// MuxAudio combines the video stream of rendered with the audio
	// stream of original. When original carries no audio the rendered
	// video is re-encoded without an audio track.
	MuxAudio(ctx context.Context, rendered, original, output string) error
}

// ProbeResult is the subset of ffprobe output the agent consumes.
type ProbeResult struct {
	Duration float64
	Width    int
	Height   int
	HasAudio bool
}

// RenderJob describes one encode pass.
type RenderJob struct {
	InputPath   string
	OutputPath  string
	FilterGraph string
	Duration    float64
	Encoder     string
	Preset      string
	CRF         int
}

// StubFFmpeg satisfies FFmpeg without touching any binary. It backs tests
// and platforms where ffmpeg is absent.
type StubFFmpeg struct {
	logger *slog.Logger

	// ProbeFunc overrides Probe when set.
	ProbeFunc func(path string) (*ProbeResult, error)
}

func NewStubFFmpeg(logger *slog.Logger) *StubFFmpeg {
	return &StubFFmpeg{logger: logger}
}

func (f *StubFFmpeg) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	if f.ProbeFunc != nil {
		return f.ProbeFunc(path)
	}
	f.logger.Info("ffmpeg stub: probe requested", "path", path)
	return &ProbeResult{}, nil
}

func (f *StubFFmpeg) Render(ctx context.Context, job RenderJob) error {
	f.logger.Info("ffmpeg stub: render requested",
		"input", job.InputPath, "output", job.OutputPath, "filter_len", len(job.FilterGraph))
	return nil
}

func (f *StubFFmpeg) MuxAudio(ctx context.Context, rendered, original, output string) error {
	f.logger.Info("ffmpeg stub: mux requested",
		"rendered", rendered, "original", original, "output", output)
	return nil
}
