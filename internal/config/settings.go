package config

import "time"

// DefaultMonitorInterval is the resource log period.
const DefaultMonitorInterval = 5 * time.Second

// SettingsConfig holds general application settings.
type SettingsConfig struct {
	// DefaultCollectors adds Go runtime and process metrics to the scrape.
	DefaultCollectors bool
	InternalMetrics   InternalMetricsConfig
	Monitor           MonitorConfig
}

// InternalMetricsConfig controls meterbox's self-monitoring metrics.
type InternalMetricsConfig struct {
	Enabled bool
}

// MonitorConfig controls the periodic resource log.
type MonitorConfig struct {
	Enabled  bool
	Interval time.Duration
}

// Validate applies defaults to settings configuration.
func (s *SettingsConfig) Validate() error {
	if s.Monitor.Interval == 0 {
		s.Monitor.Interval = DefaultMonitorInterval
	}
	return nil
}
