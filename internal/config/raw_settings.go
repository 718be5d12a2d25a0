package config

import "time"

// RawSettingsConfig holds general application settings
type RawSettingsConfig struct {
	DefaultCollectors *bool                    `yaml:"default_collectors,omitempty"`
	InternalMetrics   RawInternalMetricsConfig `yaml:"internal_metrics"`
	Monitor           RawMonitorConfig         `yaml:"monitor"`
}

// RawInternalMetricsConfig controls meterbox's self-monitoring metrics
type RawInternalMetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RawMonitorConfig controls the periodic resource log
type RawMonitorConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}
