package capture

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/zoomcut/zoomcut-agent/internal/timeline"
)

// KeyframeType tags auto-generated zoom keyframes in the export envelope.
const KeyframeType = "autozoom"

// RawCapture is the recorder's raw event log: the unprocessed clicks plus
// the frame geometry and timing of the take. It is immutable once read.
type RawCapture struct {
	Events   []timeline.ClickEvent `json:"events"`
	Width    int                   `json:"width"`
	Height   int                   `json:"height"`
	Duration float64               `json:"duration"`
	FPS      int                   `json:"fps"`
}

// ClickRecord is one exported zoom keyframe in the click-log envelope.
type ClickRecord struct {
	ID        string  `json:"id"`
	Time      float64 `json:"time"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	ZoomLevel float64 `json:"zoomLevel"`
	Duration  float64 `json:"duration"`
	Type      string  `json:"type"`
}

// ClickLog is the persistence/UI envelope for a session's clustered
// keyframes. exportedAt is Unix seconds.
type ClickLog struct {
	Clicks      []ClickRecord `json:"clicks"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	Duration    float64       `json:"duration"`
	FPS         int           `json:"fps"`
	ZoomFactor  float64       `json:"zoomFactor"`
	ZoomTime    float64       `json:"zoomTime"`
	IdleTime    float64       `json:"idleTime"`
	TotalClicks int           `json:"totalClicks"`
	ExportedAt  float64       `json:"exportedAt"`
}

// BuildClickLog wraps clustered keyframes in the export envelope.
func BuildClickLog(keyframes []timeline.ZoomKeyframe, raw *RawCapture, zoomTime, idleTime float64, now time.Time) *ClickLog {
	log := &ClickLog{
		Clicks:      make([]ClickRecord, 0, len(keyframes)),
		Width:       raw.Width,
		Height:      raw.Height,
		Duration:    raw.Duration,
		FPS:         raw.FPS,
		ZoomFactor:  timeline.DefaultZoomLevel,
		ZoomTime:    zoomTime,
		IdleTime:    idleTime,
		TotalClicks: len(keyframes),
		ExportedAt:  float64(now.UnixMilli()) / 1000,
	}
	if len(keyframes) > 0 {
		log.ZoomFactor = keyframes[0].ZoomLevel
	}
	for _, kf := range keyframes {
		log.Clicks = append(log.Clicks, ClickRecord{
			ID:        kf.ID,
			Time:      kf.Time,
			X:         kf.X,
			Y:         kf.Y,
			Width:     kf.FrameWidth,
			Height:    kf.FrameHeight,
			ZoomLevel: kf.ZoomLevel,
			Duration:  kf.ActiveDuration,
			Type:      KeyframeType,
		})
	}
	return log
}

// Keyframes converts the envelope back into compiler seeds.
func (l *ClickLog) Keyframes() []timeline.ZoomKeyframe {
	keyframes := make([]timeline.ZoomKeyframe, 0, len(l.Clicks))
	for _, c := range l.Clicks {
		keyframes = append(keyframes, timeline.ZoomKeyframe{
			ID:             c.ID,
			Time:           c.Time,
			X:              c.X,
			Y:              c.Y,
			FrameWidth:     c.Width,
			FrameHeight:    c.Height,
			ZoomLevel:      c.ZoomLevel,
			ActiveDuration: c.Duration,
		})
	}
	return keyframes
}

// ReadRawCapture loads and sanity-checks a recorder event log.
func ReadRawCapture(path string) (*RawCapture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read raw capture: %w", err)
	}
	var raw RawCapture
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse raw capture: %w", err)
	}
	if raw.Width <= 0 || raw.Height <= 0 {
		return nil, fmt.Errorf("raw capture has invalid frame size %dx%d", raw.Width, raw.Height)
	}
	return &raw, nil
}

// WriteRawCapture persists a recorder event log.
func WriteRawCapture(path string, raw *RawCapture) error {
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadClickLog loads a persisted keyframe envelope.
func ReadClickLog(path string) (*ClickLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read click log: %w", err)
	}
	var log ClickLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("parse click log: %w", err)
	}
	return &log, nil
}

// WriteClickLog persists a keyframe envelope next to the session video.
func WriteClickLog(path string, log *ClickLog) error {
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
