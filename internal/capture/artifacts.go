package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// RawVideoFile and RawEventsFile are the canonical artifact names a
	// finished session directory carries.
	RawVideoFile  = "out.mp4"
	RawEventsFile = "events.json"

	// ClickLogFile is written next to the raw artifacts once the take's
	// clicks have been clustered into keyframes.
	ClickLogFile = "clicks.json"

	pollInterval = 500 * time.Millisecond
)

// Artifacts are the files a completed recording session hands off.
type Artifacts struct {
	VideoPath  string
	EventsPath string
}

// AwaitArtifacts polls the session directory until both recorder outputs
// exist, then normalizes their names. Recorders may suffix their outputs
// (out1.mp4, events2.json) to avoid clobbering earlier takes; the newest
// of each kind wins and is renamed to the canonical name.
func AwaitArtifacts(ctx context.Context, dir string, timeout time.Duration) (*Artifacts, error) {
	deadline := time.Now().Add(timeout)

	for {
		video := newestMatch(dir, "out", ".mp4")
		events := newestMatch(dir, "events", ".json")
		if video != "" && events != "" {
			a := &Artifacts{
				VideoPath:  filepath.Join(dir, RawVideoFile),
				EventsPath: filepath.Join(dir, RawEventsFile),
			}
			if err := normalize(filepath.Join(dir, video), a.VideoPath); err != nil {
				return nil, err
			}
			if err := normalize(filepath.Join(dir, events), a.EventsPath); err != nil {
				return nil, err
			}
			return a, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("recorder artifacts not found in %s after %s (video=%v events=%v)",
				dir, timeout, video != "", events != "")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// newestMatch returns the most recently modified file in dir whose name
// starts with prefix and ends with ext, or "".
func newestMatch(dir, prefix, ext string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var newest string
	var newestTime time.Time
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = e.Name()
			newestTime = info.ModTime()
		}
	}
	return newest
}

func normalize(from, to string) error {
	if from == to {
		return nil
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("normalize artifact %s: %w", filepath.Base(from), err)
	}
	return nil
}
