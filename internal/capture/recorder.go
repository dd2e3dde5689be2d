// Package capture owns the boundary to the external screen recorder
// process. The recorder runs as a subprocess, writes its artifacts (raw
// video plus a raw click-event log) into the session directory, and exits
// on stop. Only after it exits does the agent read the artifacts, so click
// data crosses the boundary as an immutable snapshot rather than a shared
// list still being appended to.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

var (
	ErrAlreadyRecording = errors.New("a recording is already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
)

const stopGracePeriod = 5 * time.Second

// Recorder is the external recorder contract.
type Recorder interface {
	// Start launches a recording session writing into dir.
	Start(ctx context.Context, dir string) error

	// Stop ends the session and blocks until the recorder has flushed
	// its artifacts and exited.
	Stop(ctx context.Context) error

	Running() bool
}

// SubprocessRecorder drives a recorder binary. One recording at a time;
// starting a second one fails rather than interleaving capture state.
type SubprocessRecorder struct {
	command string
	args    []string
	logger  *slog.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan error
}

func NewSubprocessRecorder(command string, args []string, logger *slog.Logger) *SubprocessRecorder {
	return &SubprocessRecorder{command: command, args: args, logger: logger}
}

func (r *SubprocessRecorder) Start(ctx context.Context, dir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd != nil {
		return ErrAlreadyRecording
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	cmd := exec.Command(r.command, r.args...)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start recorder: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	r.cmd = cmd
	r.done = done
	r.logger.Info("recorder started", "command", r.command, "pid", cmd.Process.Pid, "dir", dir)
	return nil
}

func (r *SubprocessRecorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd == nil {
		return ErrNotRecording
	}
	cmd, done := r.cmd, r.done
	r.cmd = nil
	r.done = nil

	// Interrupt first so the recorder can finalize its output files;
	// kill only if it ignores the request.
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		r.logger.Warn("recorder interrupt failed, killing", "error", err)
		_ = cmd.Process.Kill()
	}

	select {
	case err := <-done:
		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			return fmt.Errorf("recorder wait: %w", err)
		}
		r.logger.Info("recorder stopped", "pid", cmd.Process.Pid)
		return nil
	case <-time.After(stopGracePeriod):
		_ = cmd.Process.Kill()
		<-done
		r.logger.Warn("recorder killed after grace period", "pid", cmd.Process.Pid)
		return nil
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return ctx.Err()
	}
}

func (r *SubprocessRecorder) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cmd != nil
}

// StubRecorder satisfies Recorder without a real recorder binary. On stop
// it writes the artifacts a real recorder would have produced, which is
// what service tests and recorder-less platforms rely on.
type StubRecorder struct {
	logger *slog.Logger

	// Capture is written as the raw event log on Stop.
	Capture *RawCapture

	mu      sync.Mutex
	dir     string
	running bool
}

func NewStubRecorder(logger *slog.Logger) *StubRecorder {
	return &StubRecorder{logger: logger}
}

func (r *StubRecorder) Start(ctx context.Context, dir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrAlreadyRecording
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	r.dir = dir
	r.running = true
	r.logger.Info("recorder stub: recording started", "dir", dir)
	return nil
}

func (r *StubRecorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return ErrNotRecording
	}
	r.running = false

	capture := r.Capture
	if capture == nil {
		capture = &RawCapture{Width: 1920, Height: 1080, Duration: 1, FPS: 30}
	}
	if err := WriteRawCapture(filepath.Join(r.dir, RawEventsFile), capture); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(r.dir, RawVideoFile), []byte("stub"), 0644); err != nil {
		return err
	}
	r.logger.Info("recorder stub: recording stopped", "dir", r.dir)
	return nil
}

func (r *StubRecorder) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
