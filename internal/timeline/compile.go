package timeline

import (
	"math"
	"sort"
)

// Compile partitions [0, duration) into the minimal ordered sequence of
// segments such that every segment has exactly one active zoom and a fixed
// set of active overlays. Segment boundaries are the sorted unique
// breakpoints: 0, duration, and every effect/overlay start or end that
// falls inside [0, duration]. Contiguity and exact coverage follow by
// construction.
//
// Per segment, the active zoom is the effect with the strictly greatest
// overlap against the half-open segment interval; ties keep the earliest
// effect in input order, and a segment no effect overlaps gets defaultZoom.
// Overlay activity uses an inclusive boundary test (start <= segEnd and
// end >= segStart), so an overlay ending exactly at a boundary is still
// attached to the segment that starts there. Overlays keep input order.
//
// All inputs are validated up front; a rejected input returns a
// *ValidationError and no segments.
func Compile(duration float64, zooms []ZoomEffect, overlays []TextOverlay, defaultZoom ZoomEffect) ([]Segment, error) {
	if err := validateInputs(duration, zooms, overlays); err != nil {
		return nil, err
	}

	points := breakpoints(duration, zooms, overlays)

	segments := make([]Segment, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		a, b := points[i], points[i+1]
		seg := Segment{
			StartTime: a,
			EndTime:   b,
			Zoom:      resolveZoom(a, b, zooms, defaultZoom),
		}
		for _, ov := range overlays {
			if ov.StartTime <= b && ov.EndTime >= a {
				seg.Overlays = append(seg.Overlays, ov)
			}
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// breakpoints returns the sorted, deduplicated boundary set for the given
// effect intervals: {0, duration} plus every bound inside [0, duration].
// Bounds outside the recording are dropped, not errors.
func breakpoints(duration float64, zooms []ZoomEffect, overlays []TextOverlay) []float64 {
	points := []float64{0, duration}
	add := func(t float64) {
		if t >= 0 && t <= duration {
			points = append(points, t)
		}
	}
	for _, z := range zooms {
		add(z.StartTime)
		add(z.EndTime)
	}
	for _, ov := range overlays {
		add(ov.StartTime)
		add(ov.EndTime)
	}

	sort.Float64s(points)
	unique := points[:1]
	for _, t := range points[1:] {
		if t != unique[len(unique)-1] {
			unique = append(unique, t)
		}
	}
	return unique
}

// resolveZoom picks the effect with the strictly greatest overlap against
// [a, b). The scan runs in input order and only a strictly larger overlap
// replaces the current pick, which makes the equal-overlap tie-break
// stable on input order rather than on start time.
func resolveZoom(a, b float64, zooms []ZoomEffect, defaultZoom ZoomEffect) ZoomEffect {
	best := defaultZoom
	bestOverlap := 0.0
	for _, z := range zooms {
		overlap := math.Min(b, z.EndTime) - math.Max(a, z.StartTime)
		if overlap > bestOverlap {
			bestOverlap = overlap
			best = z
		}
	}
	return best
}

func validateInputs(duration float64, zooms []ZoomEffect, overlays []TextOverlay) error {
	if math.IsNaN(duration) || math.IsInf(duration, 0) {
		return validationErrorf("duration", "must be a finite number")
	}
	if duration <= 0 {
		return validationErrorf("duration", "must be positive, got %v", duration)
	}
	for i, z := range zooms {
		if err := validateInterval("zoomEffects", i, z.StartTime, z.EndTime); err != nil {
			return err
		}
		if math.IsNaN(z.FocalXPercent) || math.IsNaN(z.FocalYPercent) || math.IsNaN(z.Scale) {
			return validationErrorf("zoomEffects", "effect %d has NaN geometry", i)
		}
		if z.FocalXPercent < 0 || z.FocalXPercent > 100 || z.FocalYPercent < 0 || z.FocalYPercent > 100 {
			return validationErrorf("zoomEffects", "effect %d focal point must be within [0,100] percent", i)
		}
		if z.Scale < 1 {
			return validationErrorf("zoomEffects", "effect %d scale must be >= 1, got %v", i, z.Scale)
		}
	}
	for i, ov := range overlays {
		if err := validateInterval("textOverlays", i, ov.StartTime, ov.EndTime); err != nil {
			return err
		}
		if math.IsNaN(ov.XPercent) || math.IsNaN(ov.YPercent) {
			return validationErrorf("textOverlays", "overlay %d has NaN position", i)
		}
		if ov.Padding < 0 {
			return validationErrorf("textOverlays", "overlay %d padding must be >= 0", i)
		}
	}
	return nil
}

func validateInterval(field string, i int, start, end float64) error {
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return validationErrorf(field, "effect %d has non-finite bounds", i)
	}
	if start < 0 {
		return validationErrorf(field, "effect %d start must be >= 0, got %v", i, start)
	}
	if start >= end {
		return validationErrorf(field, "effect %d start %v must precede end %v", i, start, end)
	}
	return nil
}
