// Package timeline implements the effects compiler at the heart of the
// agent: it collapses raw pointer clicks into zoom keyframes and partitions
// a recording's duration into render segments with a resolved zoom and
// overlay set per segment. Everything in this package is a pure function
// over immutable inputs; concurrent invocations never share state.
package timeline

import "fmt"

// ClickEvent is a single pointer click captured during a recording,
// in frame-relative pixel coordinates.
type ClickEvent struct {
	Time float64 `json:"time"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// ZoomKeyframe is a clustered click burst: a moment plus a focal point that
// seeds an automatic zoom effect. Keyframes are seeds, not effects; the
// editing layer may adjust or delete them before compilation.
type ZoomKeyframe struct {
	ID             string  `json:"id"`
	Time           float64 `json:"time"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	FrameWidth     int     `json:"width"`
	FrameHeight    int     `json:"height"`
	ZoomLevel      float64 `json:"zoomLevel"`
	ActiveDuration float64 `json:"duration"`
}

// ZoomEffect is a time-bounded instruction to crop/scale the frame toward
// a focal point expressed in percent of frame size.
type ZoomEffect struct {
	StartTime     float64 `json:"startTime"`
	EndTime       float64 `json:"endTime"`
	FocalXPercent float64 `json:"x"`
	FocalYPercent float64 `json:"y"`
	Scale         float64 `json:"scale"`
}

// TextOverlay is a time-bounded text drawn at a percent position.
// FontFamily and BackgroundColor are optional; empty means unset.
type TextOverlay struct {
	StartTime       float64 `json:"startTime"`
	EndTime         float64 `json:"endTime"`
	XPercent        float64 `json:"x"`
	YPercent        float64 `json:"y"`
	Text            string  `json:"text"`
	FontSizePt      int     `json:"fontSize"`
	Color           string  `json:"color"`
	FontFamily      string  `json:"fontFamily,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	Padding         int     `json:"padding,omitempty"`
}

// Segment is one interval of the compiled timeline. Segments from a single
// Compile call are contiguous, non-overlapping, and cover [0, duration).
type Segment struct {
	StartTime float64       `json:"startTime"`
	EndTime   float64       `json:"endTime"`
	Zoom      ZoomEffect    `json:"zoom"`
	Overlays  []TextOverlay `json:"overlays,omitempty"`
}

// Duration returns the segment's span in seconds.
func (s Segment) Duration() float64 {
	return s.EndTime - s.StartTime
}

// DefaultZoom returns the identity zoom covering the whole timeline:
// no scaling, focal point at frame center.
func DefaultZoom(duration float64) ZoomEffect {
	return ZoomEffect{
		StartTime:     0,
		EndTime:       duration,
		FocalXPercent: 50,
		FocalYPercent: 50,
		Scale:         1,
	}
}

// Effect derives a compiled zoom interval from a keyframe seed. The effect
// starts at the keyframe time, runs for the keyframe's active duration
// clamped to the recording length, and targets the click centroid expressed
// as frame percentages.
func (k ZoomKeyframe) Effect(duration float64) ZoomEffect {
	end := k.Time + k.ActiveDuration
	if end > duration {
		end = duration
	}
	fx, fy := 50.0, 50.0
	if k.FrameWidth > 0 {
		fx = clampPercent(k.X / float64(k.FrameWidth) * 100)
	}
	if k.FrameHeight > 0 {
		fy = clampPercent(k.Y / float64(k.FrameHeight) * 100)
	}
	return ZoomEffect{
		StartTime:     k.Time,
		EndTime:       end,
		FocalXPercent: fx,
		FocalYPercent: fy,
		Scale:         k.ZoomLevel,
	}
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ValidationError reports an input rejected before any computation.
// The compiler never partially applies a bad input set.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationErrorf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
