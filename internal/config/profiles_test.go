package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultProfiles(t *testing.T) {
	p := DefaultProfiles()

	export := p.Get("export")
	if export.Preset != "medium" || export.CRF != 23 {
		t.Errorf("export profile = %+v, want medium/23", export)
	}

	mux := p.Get("mux")
	if mux.Preset != "ultrafast" || mux.CRF != 28 {
		t.Errorf("mux profile = %+v, want ultrafast/28", mux)
	}
}

func TestProfiles_GetFallback(t *testing.T) {
	p := DefaultProfiles()

	got := p.Get("no-such-profile")
	if got.Name != "export" {
		t.Errorf("unknown name resolved to %q, want export fallback", got.Name)
	}
}

func TestLoadProfiles_EmptyPath(t *testing.T) {
	p, err := LoadProfiles("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Profiles) == 0 {
		t.Error("expected built-in profiles")
	}
}

func TestLoadProfiles_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")

	orig := &Profiles{
		Profiles: []RenderProfile{
			{Name: "draft", Encoder: "libx264", Preset: "veryfast", CRF: 30},
			{Name: "export", Preset: "slow", CRF: 18},
		},
	}
	if err := SaveProfiles(path, orig); err != nil {
		t.Fatalf("SaveProfiles: %v", err)
	}

	p, err := LoadProfiles(path)
	if err != nil {
		t.Fatalf("LoadProfiles: %v", err)
	}
	if len(p.Profiles) != 2 {
		t.Fatalf("got %d profiles, want 2", len(p.Profiles))
	}
	draft := p.Get("draft")
	if draft.Encoder != "libx264" || draft.CRF != 30 {
		t.Errorf("draft profile = %+v", draft)
	}
}

func TestLoadProfiles_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty list", "profiles: []\n"},
		{"missing name", "profiles:\n  - preset: fast\n    crf: 22\n"},
		{"bad crf", "profiles:\n  - name: x\n    preset: fast\n    crf: 99\n"},
		{"missing preset", "profiles:\n  - name: x\n    crf: 22\n"},
		{"malformed yaml", "profiles: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "profiles.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadProfiles(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadProfiles_MissingFile(t *testing.T) {
	if _, err := LoadProfiles(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
