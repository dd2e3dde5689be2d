// Package doctor probes the host for everything an export needs: the
// ffmpeg toolchain, drawtext filter support, an H.264 encoder, and enough
// CPU and memory to size the export worker pool.
package doctor

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

// DepInfo represents the availability status of a single external tool.
type DepInfo struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Path      string `json:"path,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Capabilities is one host probe outcome.
type Capabilities struct {
	FFmpeg      DepInfo `json:"ffmpeg"`
	FFprobe     DepInfo `json:"ffprobe"`
	HasDrawtext bool    `json:"has_drawtext"`
	Encoder     string  `json:"encoder,omitempty"`

	CPUCount           int    `json:"cpu_count"`
	MemoryMB           uint64 `json:"memory_mb"`
	RecommendedWorkers int    `json:"recommended_workers"`

	Ready    bool      `json:"ready"`
	ProbedAt time.Time `json:"-"`
}

// Prober performs one host capability probe.
type Prober interface {
	Probe(ctx context.Context) (*Capabilities, error)
}

// CachedDoctor wraps a Prober to cache probe results with a TTL, so
// status endpoints and job dispatch do not re-probe the host every call.
type CachedDoctor struct {
	prober Prober
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	cached *Capabilities
}

func NewCachedDoctor(prober Prober, logger *slog.Logger) *CachedDoctor {
	return &CachedDoctor{
		prober: prober,
		ttl:    defaultCacheTTL,
		logger: logger,
	}
}

// Get returns cached capabilities if fresh, otherwise re-probes.
func (d *CachedDoctor) Get(ctx context.Context) (*Capabilities, error) {
	d.mu.RLock()
	if d.cached != nil && time.Since(d.cached.ProbedAt) < d.ttl {
		caps := d.cached
		d.mu.RUnlock()
		return caps, nil
	}
	d.mu.RUnlock()

	return d.Refresh(ctx)
}

func (d *CachedDoctor) Peek() *Capabilities {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// Refresh forces a new probe regardless of cache freshness.
func (d *CachedDoctor) Refresh(ctx context.Context) (*Capabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps, err := d.prober.Probe(ctx)
	if err != nil {
		d.logger.Warn("host probe failed", "error", err)
		// Return stale cache if available
		if d.cached != nil {
			d.logger.Info("returning stale capabilities cache")
			return d.cached, nil
		}
		return nil, err
	}

	d.cached = caps
	return caps, nil
}

// Invalidate clears the cached capabilities.
func (d *CachedDoctor) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
}
