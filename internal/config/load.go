package config

import (
	"fmt"
)

// Load reads and resolves a YAML configuration file.
// An empty path yields the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		return Resolve(&RawConfig{})
	}

	raw, err := Parse(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg, err := Resolve(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config: %w", err)
	}

	return cfg, nil
}
