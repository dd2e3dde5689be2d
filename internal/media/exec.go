package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

const stderrTailBytes = 8 * 1024

// ExecFFmpeg runs the real ffmpeg/ffprobe binaries.
type ExecFFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	logger      *slog.Logger
}

// NewExecFFmpeg resolves the ffmpeg and ffprobe binaries on PATH.
func NewExecFFmpeg(logger *slog.Logger) (*ExecFFmpeg, error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	ffprobe, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}
	return &ExecFFmpeg{ffmpegPath: ffmpeg, ffprobePath: ffprobe, logger: logger}, nil
}

func (f *ExecFFmpeg) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	out, err := f.runProbe(ctx,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("probe duration: %w", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return nil, fmt.Errorf("probe duration: unparseable output %q: %w", out, err)
	}

	result := &ProbeResult{Duration: duration}

	if out, err := f.runProbe(ctx,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=p=0",
		path,
	); err == nil {
		if _, serr := fmt.Sscanf(strings.TrimSpace(out), "%d,%d", &result.Width, &result.Height); serr != nil {
			f.logger.Warn("could not parse stream geometry", "output", out)
		}
	}

	if out, err := f.runProbe(ctx,
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=index",
		"-of", "csv=p=0",
		path,
	); err == nil {
		result.HasAudio = strings.TrimSpace(out) != ""
	}

	return result, nil
}

func (f *ExecFFmpeg) Render(ctx context.Context, job RenderJob) error {
	args := []string{"-y", "-i", job.InputPath}
	if job.FilterGraph != "" {
		args = append(args, "-filter_complex", job.FilterGraph, "-map", "[vout]")
	} else {
		args = append(args, "-map", "0:v:0")
	}
	args = append(args,
		"-map", "0:a?",
		"-c:v", job.Encoder,
		"-preset", job.Preset,
		"-crf", strconv.Itoa(job.CRF),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-avoid_negative_ts", "make_zero",
	)
	if job.Duration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", job.Duration))
	}
	args = append(args, job.OutputPath)

	return f.runFFmpeg(ctx, args)
}

func (f *ExecFFmpeg) MuxAudio(ctx context.Context, rendered, original, output string) error {
	probe, err := f.Probe(ctx, original)
	if err != nil {
		return fmt.Errorf("probe original: %w", err)
	}

	var args []string
	if probe.HasAudio {
		args = []string{
			"-y",
			"-i", rendered,
			"-i", original,
			"-c:v", "libx264",
			"-preset", "ultrafast",
			"-crf", "28",
			"-c:a", "aac",
			"-b:a", "128k",
			"-map", "0:v:0",
			"-map", "1:a:0",
			"-shortest",
			"-t", fmt.Sprintf("%.3f", probe.Duration),
			"-avoid_negative_ts", "make_zero",
			"-movflags", "+faststart",
			output,
		}
	} else {
		args = []string{
			"-y",
			"-i", rendered,
			"-c:v", "libx264",
			"-preset", "ultrafast",
			"-crf", "28",
			"-an",
			"-t", fmt.Sprintf("%.3f", probe.Duration),
			"-avoid_negative_ts", "make_zero",
			"-movflags", "+faststart",
			output,
		}
	}

	return f.runFFmpeg(ctx, args)
}

// SupportsFilter reports whether the installed ffmpeg build ships the
// named filter. Builds without libfreetype lack drawtext.
func (f *ExecFFmpeg) SupportsFilter(ctx context.Context, name string) bool {
	out, err := exec.CommandContext(ctx, f.ffmpegPath, "-hide_banner", "-filters").CombinedOutput()
	return err == nil && bytes.Contains(out, []byte(name))
}

// BestH264Encoder prefers a hardware encoder when the build offers one.
func (f *ExecFFmpeg) BestH264Encoder(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, f.ffmpegPath, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, enc := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if bytes.Contains(out, []byte(enc)) {
			return enc
		}
	}
	return "libx264"
}

func (f *ExecFFmpeg) runFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	f.logger.Debug("running ffmpeg", "args", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, stderrTail(stderr.Bytes()))
	}
	return nil
}

func (f *ExecFFmpeg) runProbe(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffprobe failed: %w: %s", err, stderrTail(stderr.Bytes()))
	}
	return stdout.String(), nil
}

func stderrTail(b []byte) string {
	if len(b) > stderrTailBytes {
		b = b[len(b)-stderrTailBytes:]
	}
	return strings.TrimSpace(string(b))
}
