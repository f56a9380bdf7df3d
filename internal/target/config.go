package target

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"faultline/internal/inject"
)

type fileTarget struct {
	Path      string         `yaml:"path"`
	Method    string         `yaml:"method"`
	Weight    float64        `yaml:"weight"`
	Tags      []string       `yaml:"tags"`
	Injection *inject.Policy `yaml:"injection"`
}

type targetsFile struct {
	Targets []fileTarget `yaml:"targets"`
}

// LoadFile reads a YAML target set. Method defaults to GET and weight to 1 so
// a minimal file only needs paths. Every descriptor is validated before the
// set is returned.
func LoadFile(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}

	var f targetsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse targets file %s: %w", path, err)
	}
	if len(f.Targets) == 0 {
		return nil, fmt.Errorf("targets file %s: %w", path, ErrNoTargets)
	}

	out := make([]Descriptor, 0, len(f.Targets))
	for _, ft := range f.Targets {
		d := Descriptor{
			Path:      ft.Path,
			Method:    ft.Method,
			Weight:    ft.Weight,
			Tags:      ft.Tags,
			Injection: ft.Injection,
		}
		if d.Method == "" {
			d.Method = "GET"
		}
		if d.Weight == 0 {
			d.Weight = 1
		}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
