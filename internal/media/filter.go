package media

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zoomcut/zoomcut-agent/internal/render"
)

// FilterGraph translates a render plan into an ffmpeg -filter_complex
// description. Each instruction becomes a trim/crop/drawtext chain whose
// timestamps are reset to the segment's own clock, and the chains are
// concatenated in plan order into a [vout] stream. width and height are
// the source frame size; every segment is scaled back to it so concat
// sees uniform inputs.
//
// Overlay text inside the plan is already escaped by the emitter; this
// function never inspects or re-escapes it.
func FilterGraph(plan *render.Plan, width, height int) (string, error) {
	if plan == nil || len(plan.Instructions) == 0 {
		return "", nil
	}
	if len(plan.Instructions) != plan.Concat.SegmentCount {
		return "", fmt.Errorf("concat directive expects %d segments, plan has %d",
			plan.Concat.SegmentCount, len(plan.Instructions))
	}

	var b strings.Builder
	labels := make([]string, 0, len(plan.Instructions))

	for _, inst := range plan.Instructions {
		label := fmt.Sprintf("v%d", inst.Index)
		labels = append(labels, label)

		b.WriteString("[0:v]")
		fmt.Fprintf(&b, "trim=start=%s:end=%s,setpts=PTS-STARTPTS",
			f(inst.Window.Start), f(inst.Window.End))
		fmt.Fprintf(&b, ",crop=w=iw*%s:h=ih*%s:x=iw*%s:y=ih*%s",
			f(inst.Crop.W), f(inst.Crop.H), f(inst.Crop.X), f(inst.Crop.Y))
		fmt.Fprintf(&b, ",scale=%d:%d", width, height)

		for _, op := range inst.TextOps {
			b.WriteString(",")
			b.WriteString(drawtext(op))
		}

		fmt.Fprintf(&b, "[%s];", label)
	}

	for _, label := range labels {
		fmt.Fprintf(&b, "[%s]", label)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=1:a=0[vout]", plan.Concat.SegmentCount)

	return b.String(), nil
}

// drawtext renders one text operation the way the export path always has:
// centered on its percent position, boxed when a background is set, drop
// shadow otherwise, gated to its segment-local window.
func drawtext(op render.TextDrawOp) string {
	var b strings.Builder
	fmt.Fprintf(&b, "drawtext=text='%s'", op.Text)
	fmt.Fprintf(&b, ":x=w*%s-text_w/2", f(op.XPercent/100))
	fmt.Fprintf(&b, ":y=h*%s-text_h/2", f(op.YPercent/100))
	fmt.Fprintf(&b, ":fontsize=%d", op.FontSizePt)
	fmt.Fprintf(&b, ":fontcolor=%s", op.Color)
	if op.FontFamily != "" {
		fmt.Fprintf(&b, ":fontfile=%s", op.FontFamily)
	}
	if op.BackgroundColor != "" {
		fmt.Fprintf(&b, ":box=1:boxcolor=%s@0.8:boxborderw=%d", op.BackgroundColor, op.Padding)
	} else {
		b.WriteString(":shadowcolor=black@0.8:shadowx=2:shadowy=2")
	}
	fmt.Fprintf(&b, ":enable='between(t,%s,%s)'", f(op.Window.Start), f(op.Window.End))
	return b.String()
}

// f formats a float without exponent notation so filter expressions stay
// parseable by ffmpeg.
func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
