package doctor

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/zoomcut/zoomcut-agent/internal/media"
)

const (
	maxWorkers = 4

	// Encoding one 1080p stream comfortably takes about 2 GB.
	memPerWorkerMB = 2048
)

// HostProber probes the local machine: the ffmpeg toolchain via the
// media layer and CPU/memory via gopsutil.
type HostProber struct {
	logger *slog.Logger
}

func NewHostProber(logger *slog.Logger) *HostProber {
	return &HostProber{logger: logger}
}

func (p *HostProber) Probe(ctx context.Context) (*Capabilities, error) {
	caps := &Capabilities{ProbedAt: time.Now()}

	caps.FFmpeg = probeTool(ctx, "ffmpeg")
	caps.FFprobe = probeTool(ctx, "ffprobe")

	if caps.FFmpeg.Available {
		if tools, err := media.NewExecFFmpeg(p.logger); err == nil {
			caps.HasDrawtext = tools.SupportsFilter(ctx, "drawtext")
			caps.Encoder = tools.BestH264Encoder(ctx)
		}
	}

	if count, err := cpu.CountsWithContext(ctx, true); err == nil {
		caps.CPUCount = count
	} else if p.logger != nil {
		p.logger.Warn("cpu probe failed", "error", err)
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		caps.MemoryMB = vm.Total / (1024 * 1024)
	} else if p.logger != nil {
		p.logger.Warn("memory probe failed", "error", err)
	}

	caps.RecommendedWorkers = recommendWorkers(caps.CPUCount, caps.MemoryMB)
	caps.Ready = caps.FFmpeg.Available && caps.FFprobe.Available && caps.HasDrawtext

	return caps, nil
}

func probeTool(ctx context.Context, name string) DepInfo {
	path, err := exec.LookPath(name)
	if err != nil {
		return DepInfo{Error: err.Error()}
	}

	info := DepInfo{Available: true, Path: path}

	out, err := exec.CommandContext(ctx, path, "-version").Output()
	if err == nil {
		info.Version = parseVersionLine(string(out))
	}
	return info
}

// parseVersionLine extracts the version token from ffmpeg's banner, e.g.
// "ffmpeg version 6.1.1 Copyright ..." -> "6.1.1".
func parseVersionLine(out string) string {
	line := out
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	for i, f := range fields {
		if f == "version" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}

func recommendWorkers(cpuCount int, memoryMB uint64) int {
	workers := cpuCount / 2
	if byMem := int(memoryMB / memPerWorkerMB); byMem < workers {
		workers = byMem
	}
	if workers < 1 {
		workers = 1
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}
	return workers
}
