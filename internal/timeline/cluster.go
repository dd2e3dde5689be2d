package timeline

import (
	"fmt"
	"math"
	"sort"
)

const (
	// DefaultTimeEpsilon and DefaultDistEpsilon are the recorder's tuned
	// clustering thresholds: clicks within 0.6s and 40px of the running
	// centroid belong to the same burst.
	DefaultTimeEpsilon = 0.6
	DefaultDistEpsilon = 40.0

	// DefaultZoomLevel and DefaultActiveDuration seed auto-zoom keyframes:
	// 2x zoom held for zoom-in time plus idle time.
	DefaultZoomLevel      = 2.0
	DefaultActiveDuration = 2.0
)

// ClusterOptions controls the clustering pass and the constants stamped
// onto each resulting keyframe.
type ClusterOptions struct {
	TimeEpsilon    float64
	DistEpsilon    float64
	ZoomLevel      float64
	ActiveDuration float64
	FrameWidth     int
	FrameHeight    int
}

// DefaultClusterOptions returns the recorder's tuned thresholds for a frame
// of the given pixel size.
func DefaultClusterOptions(frameWidth, frameHeight int) ClusterOptions {
	return ClusterOptions{
		TimeEpsilon:    DefaultTimeEpsilon,
		DistEpsilon:    DefaultDistEpsilon,
		ZoomLevel:      DefaultZoomLevel,
		ActiveDuration: DefaultActiveDuration,
		FrameWidth:     frameWidth,
		FrameHeight:    frameHeight,
	}
}

type cluster struct {
	firstTime float64
	lastTime  float64
	sumX      float64
	sumY      float64
	count     int
}

func (c *cluster) centroid() (float64, float64) {
	return c.sumX / float64(c.count), c.sumY / float64(c.count)
}

func (c *cluster) add(e ClickEvent) {
	c.lastTime = e.Time
	c.sumX += e.X
	c.sumY += e.Y
	c.count++
}

// Cluster groups click events into zoom keyframes with a single
// left-to-right sweep. Events are compared only against the most recent
// cluster: if an event falls within TimeEpsilon of that cluster's latest
// timestamp and within DistEpsilon of its running centroid, it joins the
// cluster (shifting the centroid); otherwise it opens a new one. Earlier
// clusters are never revisited or merged, so a slow positional drift can
// chain many events into one cluster even when its extremes are far apart.
// That is the intended behavior, not an approximation of global clustering.
//
// The output carries one keyframe per cluster: time is the earliest click,
// position is the mean of the members.
func Cluster(events []ClickEvent, opts ClusterOptions) []ZoomKeyframe {
	if len(events) == 0 {
		return nil
	}

	sorted := make([]ClickEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})

	first := sorted[0]
	clusters := []*cluster{{
		firstTime: first.Time,
		lastTime:  first.Time,
		sumX:      first.X,
		sumY:      first.Y,
		count:     1,
	}}

	for _, e := range sorted[1:] {
		last := clusters[len(clusters)-1]
		cx, cy := last.centroid()
		if e.Time-last.lastTime <= opts.TimeEpsilon && math.Hypot(e.X-cx, e.Y-cy) <= opts.DistEpsilon {
			last.add(e)
			continue
		}
		clusters = append(clusters, &cluster{
			firstTime: e.Time,
			lastTime:  e.Time,
			sumX:      e.X,
			sumY:      e.Y,
			count:     1,
		})
	}

	keyframes := make([]ZoomKeyframe, len(clusters))
	for i, c := range clusters {
		cx, cy := c.centroid()
		keyframes[i] = ZoomKeyframe{
			ID:             fmt.Sprintf("autozoom-%d", i),
			Time:           c.firstTime,
			X:              cx,
			Y:              cy,
			FrameWidth:     opts.FrameWidth,
			FrameHeight:    opts.FrameHeight,
			ZoomLevel:      opts.ZoomLevel,
			ActiveDuration: opts.ActiveDuration,
		}
	}
	return keyframes
}
