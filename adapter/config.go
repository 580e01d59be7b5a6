package adapter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/tafview/errs"
)

// Adapter type names accepted in Config.Type.
const (
	TypeBgzipTaffy = "BgzipTaffyAdapter"
	TypeMaf        = "MafAdapter"
)

// Config selects and configures an adapter.
//
// Example:
//
//	type: BgzipTaffyAdapter
//	tafGzLocation: https://example.org/hg38.447way.taf.gz
//	taiLocation: https://example.org/hg38.447way.taf.gz.tai
//	nhLocation: hg38.447way.nh
//	refAssemblyName: hg38
//	samples:
//	  - hg38
//	  - id: panTro4
//	    label: Chimp
//	    color: "#e7298a"
type Config struct {
	Type            string   `yaml:"type"`
	TafGzLocation   string   `yaml:"tafGzLocation,omitempty"`
	TaiLocation     string   `yaml:"taiLocation,omitempty"`
	MafLocation     string   `yaml:"mafLocation,omitempty"`
	NhLocation      string   `yaml:"nhLocation,omitempty"`
	RefAssemblyName string   `yaml:"refAssemblyName,omitempty"`
	Samples         []Sample `yaml:"samples,omitempty"`
	// CacheSize is the number of decoded blocks kept by a TaffyAdapter; 0
	// uses the resolver default.
	CacheSize int `yaml:"cacheSize,omitempty"`
}

// ParseConfig decodes a YAML adapter config and validates it.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse adapter config: %w", err)
	}
	cfg.Samples = NormalizeSamples(cfg.Samples)

	return cfg, cfg.Validate()
}

// LoadConfig reads and parses a YAML adapter config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	return ParseConfig(data)
}

// Validate checks that the locations required by Type are set.
func (c Config) Validate() error {
	switch c.Type {
	case TypeBgzipTaffy:
		if c.TafGzLocation == "" {
			return fmt.Errorf("%w: tafGzLocation", errs.ErrMissingLocation)
		}
		if c.TaiLocation == "" {
			return fmt.Errorf("%w: taiLocation", errs.ErrMissingLocation)
		}
	case TypeMaf:
		if c.MafLocation == "" {
			return fmt.Errorf("%w: mafLocation", errs.ErrMissingLocation)
		}
	default:
		return fmt.Errorf("%w: %q", errs.ErrUnknownAdapter, c.Type)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cacheSize must be non-negative, got %d", c.CacheSize)
	}

	return nil
}

// UnmarshalYAML accepts either a bare id or an {id, label, color} mapping.
func (s *Sample) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*s = Sample{ID: node.Value, Label: node.Value}
		return nil
	}

	type plain Sample
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = Sample(p)

	return nil
}

// NormalizeSamples fills missing labels with the id and drops entries
// without an id.
func NormalizeSamples(samples []Sample) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.ID == "" {
			continue
		}
		if s.Label == "" {
			s.Label = s.ID
		}
		out = append(out, s)
	}

	return out
}
