// Package render turns compiled timeline segments into renderer-agnostic
// instructions: per-segment crop geometry in fractional frame coordinates
// and text-draw operations with segment-local timing. A renderer adapter
// (see internal/media) translates instructions into its own filter syntax.
package render

import (
	"fmt"
	"strings"

	"github.com/zoomcut/zoomcut-agent/internal/timeline"
)

// CropRect is a crop window in fractional frame coordinates: all fields
// are in [0, 1] and X+W <= 1, Y+H <= 1.
type CropRect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// TimeWindow is an interval in seconds. Instruction windows are absolute;
// text-draw windows are relative to their segment's start.
type TimeWindow struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// TextDrawOp draws one overlay inside one segment. Text arrives already
// escaped for filter description languages; Start/End are segment-local so
// the op stays correct after segments are concatenated.
type TextDrawOp struct {
	Text            string     `json:"text"`
	XPercent        float64    `json:"x"`
	YPercent        float64    `json:"y"`
	FontSizePt      int        `json:"fontSize"`
	Color           string     `json:"color"`
	FontFamily      string     `json:"fontFamily,omitempty"`
	BackgroundColor string     `json:"backgroundColor,omitempty"`
	Padding         int        `json:"padding,omitempty"`
	Window          TimeWindow `json:"window"`
}

// RenderInstruction is the render unit for one segment.
type RenderInstruction struct {
	Index   int          `json:"segmentIndex"`
	Crop    CropRect     `json:"crop"`
	TextOps []TextDrawOp `json:"textOps,omitempty"`
	Window  TimeWindow   `json:"window"`
}

// Concat is the concatenation directive closing a plan: the renderer is
// expected to assert segment count and total duration against it.
type Concat struct {
	SegmentCount  int     `json:"segmentCount"`
	TotalDuration float64 `json:"totalDuration"`
}

// Plan is an ordered instruction list plus its concatenation directive.
type Plan struct {
	Instructions []RenderInstruction `json:"instructions"`
	Concat       Concat              `json:"concat"`
}

// Emit maps segments to render instructions in segment order. The crop
// window is 1/scale of the frame centered on the focal point, clamped so
// it never leaves the frame. Overlay windows are clamped to the segment
// and re-expressed relative to the segment start, which is what lets an
// overlay spanning several segments survive concatenation.
func Emit(segments []timeline.Segment) (*Plan, error) {
	plan := &Plan{Instructions: make([]RenderInstruction, 0, len(segments))}

	for i, seg := range segments {
		if seg.EndTime <= seg.StartTime {
			return nil, fmt.Errorf("segment %d has non-positive span [%v, %v)", i, seg.StartTime, seg.EndTime)
		}
		if seg.Zoom.Scale < 1 {
			return nil, fmt.Errorf("segment %d zoom scale %v is below 1", i, seg.Zoom.Scale)
		}

		inst := RenderInstruction{
			Index:  i,
			Crop:   cropFor(seg.Zoom),
			Window: TimeWindow{Start: seg.StartTime, End: seg.EndTime},
		}

		for _, ov := range seg.Overlays {
			localStart := max(seg.StartTime, ov.StartTime) - seg.StartTime
			localEnd := min(seg.EndTime, ov.EndTime) - seg.StartTime
			if localStart < 0 {
				localStart = 0
			}
			if localEnd < localStart {
				localEnd = localStart
			}
			inst.TextOps = append(inst.TextOps, TextDrawOp{
				Text:            EscapeText(ov.Text),
				XPercent:        ov.XPercent,
				YPercent:        ov.YPercent,
				FontSizePt:      ov.FontSizePt,
				Color:           ov.Color,
				FontFamily:      ov.FontFamily,
				BackgroundColor: ov.BackgroundColor,
				Padding:         ov.Padding,
				Window:          TimeWindow{Start: localStart, End: localEnd},
			})
		}

		plan.Instructions = append(plan.Instructions, inst)
		plan.Concat.TotalDuration += seg.Duration()
	}

	plan.Concat.SegmentCount = len(plan.Instructions)
	return plan, nil
}

func cropFor(z timeline.ZoomEffect) CropRect {
	w := 1 / z.Scale
	h := 1 / z.Scale
	x := clamp(z.FocalXPercent/100-w/2, 0, 1-w)
	y := clamp(z.FocalYPercent/100-h/2, 0, 1-h)
	return CropRect{X: x, Y: y, W: w, H: h}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// filterEscaper covers the characters that carry meaning in ffmpeg-style
// filter descriptions. Backslash goes first so escapes are not re-escaped.
var filterEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`:`, `\:`,
	`,`, `\,`,
	`%`, `\%`,
)

// EscapeText escapes overlay text for embedding in a filter description.
// Overlay content is opaque user data; the emitter owns the escaping so no
// renderer adapter ever interprets raw text.
func EscapeText(s string) string {
	return filterEscaper.Replace(s)
}
