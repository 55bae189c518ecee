package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PassProfiles maps item types to their analysis pass ceiling. Types
// absent from the map fall back to Default.
type PassProfiles struct {
	Profiles map[string]int `yaml:"profiles"`
	Default  int            `yaml:"default"`
}

// DefaultPassProfiles builds the built-in profile set: structured item
// types get the deeper pass ceiling because their mechanics take more
// passes to surface.
func DefaultPassProfiles(cfg AnalysisConfig) *PassProfiles {
	return &PassProfiles{
		Profiles: map[string]int{
			"csv":      cfg.PassesStructured,
			"sql":      cfg.PassesStructured,
			"notebook": cfg.PassesStructured,
		},
		Default: cfg.PassesDefault,
	}
}

// LoadPassProfiles reads a profile override file. The file fully
// replaces the built-in set, so it must carry its own default.
func LoadPassProfiles(path string) (*PassProfiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pass profiles: %w", err)
	}

	p := &PassProfiles{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("unmarshaling pass profiles from %s: %w", path, err)
	}
	if p.Default <= 0 {
		return nil, fmt.Errorf("pass profiles in %s: default must be positive, got %d", path, p.Default)
	}
	for typ, passes := range p.Profiles {
		if passes <= 0 {
			return nil, fmt.Errorf("pass profiles in %s: type %q must have positive passes, got %d", path, typ, passes)
		}
	}
	return p, nil
}

// MaxPasses returns the pass ceiling for an item type.
func (p *PassProfiles) MaxPasses(itemType string) int {
	if n, ok := p.Profiles[itemType]; ok {
		return n
	}
	return p.Default
}
