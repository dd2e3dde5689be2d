package playback

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(logger, root), root
}

func serve(t *testing.T, s *Server, path, rangeHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/playback/file", nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rec := httptest.NewRecorder()
	if err := s.ServeFile(rec, req, path); err != nil {
		t.Fatalf("ServeFile() error = %v", err)
	}
	return rec
}

func TestServeFile_FullFile(t *testing.T) {
	s, root := newTestServer(t)
	path := filepath.Join(root, "clip.mp4")
	os.WriteFile(path, []byte("0123456789"), 0o644)

	rec := serve(t, s, path, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "0123456789" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if rec.Header().Get("Accept-Ranges") != "bytes" {
		t.Error("missing Accept-Ranges header")
	}
	if rec.Header().Get("Content-Type") != "video/mp4" {
		t.Errorf("Content-Type = %q, want video/mp4", rec.Header().Get("Content-Type"))
	}
}

func TestServeFile_RangeRequest(t *testing.T) {
	s, root := newTestServer(t)
	path := filepath.Join(root, "clip.mp4")
	os.WriteFile(path, []byte("0123456789"), 0o644)

	rec := serve(t, s, path, "bytes=2-5")
	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if rec.Body.String() != "2345" {
		t.Errorf("body = %q, want 2345", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 2-5/10" {
		t.Errorf("Content-Range = %q", got)
	}
}

func TestServeFile_UnsatisfiableRange(t *testing.T) {
	s, root := newTestServer(t)
	path := filepath.Join(root, "clip.mp4")
	os.WriteFile(path, []byte("0123456789"), 0o644)

	rec := serve(t, s, path, "bytes=100-")
	if rec.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("status = %d, want 416", rec.Code)
	}
}

func TestServeFile_OutsideRoot(t *testing.T) {
	s, _ := newTestServer(t)

	outside := filepath.Join(t.TempDir(), "secret.txt")
	os.WriteFile(outside, []byte("secret"), 0o644)

	rec := serve(t, s, outside, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for path outside roots", rec.Code)
	}
}

func TestServeFile_Missing(t *testing.T) {
	s, root := newTestServer(t)

	rec := serve(t, s, filepath.Join(root, "nope.mp4"), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
