package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RenderProfile holds the encoder settings for one export quality tier.
type RenderProfile struct {
	Name    string `yaml:"name"`
	Encoder string `yaml:"encoder,omitempty"`
	Preset  string `yaml:"preset"`
	CRF     int    `yaml:"crf"`
}

// Profiles maps profile names to render settings. Unknown names fall back
// to the "export" profile.
type Profiles struct {
	Profiles []RenderProfile `yaml:"profiles"`
}

// DefaultProfiles returns the built-in render profiles.
func DefaultProfiles() *Profiles {
	return &Profiles{
		Profiles: []RenderProfile{
			{Name: "preview", Preset: "fast", CRF: 22},
			{Name: "export", Preset: "medium", CRF: 23},
			{Name: "mux", Preset: "ultrafast", CRF: 28},
		},
	}
}

// LoadProfiles reads render profiles from a YAML file. An empty path
// returns the built-in defaults.
func LoadProfiles(path string) (*Profiles, error) {
	if path == "" {
		return DefaultProfiles(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	var p Profiles
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	if len(p.Profiles) == 0 {
		return nil, fmt.Errorf("parse profiles: no profiles defined in %s", path)
	}
	for i, rp := range p.Profiles {
		if rp.Name == "" {
			return nil, fmt.Errorf("parse profiles: profile %d has no name", i)
		}
		if rp.CRF < 0 || rp.CRF > 51 {
			return nil, fmt.Errorf("parse profiles: profile %q: crf must be between 0 and 51", rp.Name)
		}
		if rp.Preset == "" {
			return nil, fmt.Errorf("parse profiles: profile %q has no preset", rp.Name)
		}
	}
	return &p, nil
}

// SaveProfiles writes profiles to a YAML file.
func SaveProfiles(path string, p *Profiles) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profiles: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	return nil
}

// Get returns the profile with the given name, falling back to "export"
// and then to the first profile.
func (p *Profiles) Get(name string) RenderProfile {
	for _, rp := range p.Profiles {
		if rp.Name == name {
			return rp
		}
	}
	for _, rp := range p.Profiles {
		if rp.Name == "export" {
			return rp
		}
	}
	return p.Profiles[0]
}
